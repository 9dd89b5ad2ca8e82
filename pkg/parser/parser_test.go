package parser_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"redex/pkg/heap"
	"redex/pkg/parser"
)

func newHeap(t *testing.T) *heap.Heap {
	t.Helper()
	return heap.New(256, zerolog.Nop())
}

func TestQuoteParseRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"app",
		"[a] app",
		"[a] [b] cat",
		"{ f }",
		"(hint) x 42",
		"[[1] [2] swap] app",
	}
	for _, src := range cases {
		h := newHeap(t)
		ref, err := parser.ParseString(h, src)
		require.NoError(t, err, src)

		quoted, err := parser.Quote(h, ref)
		require.NoError(t, err, src)

		h2 := newHeap(t)
		ref2, err := parser.ParseString(h2, quoted)
		require.NoError(t, err, quoted)
		quoted2, err := parser.Quote(h2, ref2)
		require.NoError(t, err, quoted)

		require.Equal(t, quoted, quoted2, "quote(parse(quote(parse(%q)))) should be a fixed point", src)
	}
}

func TestParseNumberLiteral(t *testing.T) {
	h := newHeap(t)
	ref, err := parser.ParseString(h, "3.5")
	require.NoError(t, err)
	quoted, err := parser.Quote(h, ref)
	require.NoError(t, err)
	require.Equal(t, "3.5", quoted)
}

func TestParseCombinatorNames(t *testing.T) {
	h := newHeap(t)
	for _, name := range []string{"app", "box", "cat", "copy", "drop", "swap", "fix", "run", "shift"} {
		ref, err := parser.ParseString(h, name)
		require.NoError(t, err)
		quoted, err := parser.Quote(h, ref)
		require.NoError(t, err)
		require.Equal(t, name, quoted)
	}
}

func TestParseBlockVsCmdBrackets(t *testing.T) {
	h := newHeap(t)
	ref, err := parser.ParseString(h, "[a]")
	require.NoError(t, err)
	quoted, err := parser.Quote(h, ref)
	require.NoError(t, err)
	require.Equal(t, "[a]", quoted)

	h2 := newHeap(t)
	ref2, err := parser.ParseString(h2, "{ a }")
	require.NoError(t, err)
	quoted2, err := parser.Quote(h2, ref2)
	require.NoError(t, err)
	require.Equal(t, "{ a }", quoted2)
}

func TestParseMismatchedBracketIsSyntaxError(t *testing.T) {
	h := newHeap(t)
	_, err := parser.ParseString(h, "[ a }")
	require.ErrorIs(t, err, heap.ErrSyntax)
}

func TestParseUnclosedBracketIsSyntaxError(t *testing.T) {
	h := newHeap(t)
	_, err := parser.ParseString(h, "[ a")
	require.ErrorIs(t, err, heap.ErrSyntax)
}

func TestParseHintIsInertAnnotation(t *testing.T) {
	h := newHeap(t)
	ref, err := parser.ParseString(h, "(note) app")
	require.NoError(t, err)
	quoted, err := parser.Quote(h, ref)
	require.NoError(t, err)
	require.Equal(t, "(note) app", quoted)
}
