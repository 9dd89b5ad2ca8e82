package reducer_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"redex/pkg/heap"
	"redex/pkg/parser"
	"redex/pkg/reducer"
	"redex/pkg/term"
)

func reduceString(t *testing.T, src string, dict reducer.MapDictionary, quota int) string {
	t.Helper()
	h := heap.New(4096, zerolog.Nop())
	if dict == nil {
		dict = reducer.MapDictionary{}
	}
	root, err := parser.ParseString(h, src)
	require.NoError(t, err)

	result, _, err := reducer.Reduce(h, dict, zerolog.Nop(), root, quota)
	require.NoError(t, err)

	quoted, err := parser.Quote(h, result)
	require.NoError(t, err)
	return quoted
}

func check(t *testing.T, src, expected string) {
	t.Helper()
	require.Equal(t, expected, reduceString(t, src, nil, 10_000))
}

func TestReductionLaws(t *testing.T) {
	check(t, "[a] app", "a")
	check(t, "[a] box", "[[a]]")
	check(t, "[a] [b] cat", "[a b]")
	check(t, "[a] copy", "[a] [a]")
	check(t, "[a] drop", "")
	check(t, "[a] [b] swap", "[b] [a]")
	check(t, "[a] fix", "[[a] fix a]")
}

func TestStuckCases(t *testing.T) {
	check(t, "[a] cat", "[a] cat")
	check(t, "[a] swap", "[a] swap")
	check(t, "a", "a")
}

func TestRunCreatesReentrantFrame(t *testing.T) {
	check(t, "[[1] [2] cat] run", "[1 2]")
}

func TestShiftThunksAtTopLevel(t *testing.T) {
	// No enclosing Cmd frame: shift is stuck, per the spec's strict
	// resolution of the open question.
	check(t, "[k] shift", "[k] shift")
}

func TestShiftInsideCmdCapturesEnvAndCont(t *testing.T) {
	// Inside a Cmd scope, shift captures the remaining env ([1]) and
	// cont ([2]) of the inner frame as two Blocks and hands them to
	// the handler. The handler [drop] discards the captured
	// continuation Block, leaving the captured env Block behind; the
	// scope then exits cleanly (no thunk), draining [1] upward.
	check(t, "{ 1 [drop] shift 2 }", "[1]")
}

func TestQuotaZeroReturnsInputUnchanged(t *testing.T) {
	got := reduceString(t, "[a] [b] cat", nil, 0)
	require.Equal(t, "[a] [b] cat", got)
}

func TestQuotaIsAdditive(t *testing.T) {
	src := "[a] [b] cat app"
	full := reduceString(t, src, nil, 10_000)

	h := heap.New(4096, zerolog.Nop())
	dict := reducer.MapDictionary{}
	root, err := parser.ParseString(h, src)
	require.NoError(t, err)

	partial, _, err := reducer.Reduce(h, dict, zerolog.Nop(), root, 2)
	require.NoError(t, err)
	quotedPartial, err := parser.Quote(h, partial)
	require.NoError(t, err)

	h2 := heap.New(4096, zerolog.Nop())
	root2, err := parser.ParseString(h2, quotedPartial)
	require.NoError(t, err)
	rest, _, err := reducer.Reduce(h2, dict, zerolog.Nop(), root2, 10_000)
	require.NoError(t, err)
	quotedRest, err := parser.Quote(h2, rest)
	require.NoError(t, err)

	require.Equal(t, full, quotedRest)
}

func TestWordSubstitutionFromDictionary(t *testing.T) {
	// Substitution splices the dictionary's stored term verbatim in
	// place of the word (β-substitution, not an implicit apply): a
	// word bound to the bare combinator "app" acts as an identity
	// word, since the spliced "app" is itself dispatched against the
	// preceding value.
	h := heap.New(4096, zerolog.Nop())
	binding, err := parser.ParseString(h, "app")
	require.NoError(t, err)
	dict := reducer.MapDictionary{"i": binding}

	root, err := parser.ParseString(h, "[x] i")
	require.NoError(t, err)
	result, _, err := reducer.Reduce(h, dict, zerolog.Nop(), root, 10_000)
	require.NoError(t, err)
	quoted, err := parser.Quote(h, result)
	require.NoError(t, err)
	require.Equal(t, "x", quoted)
}

func TestWordSubstitutionOfBlockPushesOpaqueValue(t *testing.T) {
	// A word bound to a bracketed Block is spliced as-is: the Block
	// is pushed onto env like any other value, not entered. Reaching
	// inside it requires an explicit trailing app at the use site.
	h := heap.New(4096, zerolog.Nop())
	binding, err := parser.ParseString(h, "[app]")
	require.NoError(t, err)
	dict := reducer.MapDictionary{"i": binding}

	root, err := parser.ParseString(h, "[x] i")
	require.NoError(t, err)
	result, _, err := reducer.Reduce(h, dict, zerolog.Nop(), root, 10_000)
	require.NoError(t, err)
	quoted, err := parser.Quote(h, result)
	require.NoError(t, err)
	require.Equal(t, "[x] [app]", quoted)
}

func TestUnboundWordIsStuckNotAnError(t *testing.T) {
	h := heap.New(4096, zerolog.Nop())
	dict := reducer.MapDictionary{}
	root, err := parser.ParseString(h, "[x] i")
	require.NoError(t, err)
	result, _, err := reducer.Reduce(h, dict, zerolog.Nop(), root, 10_000)
	require.NoError(t, err)
	quoted, err := parser.Quote(h, result)
	require.NoError(t, err)
	require.Equal(t, "[x] i", quoted)
}

func TestSpaceExhaustionDuringReductionFails(t *testing.T) {
	// Large enough to parse the program, nowhere near enough to
	// survive forty box allocations during reduction (each box call
	// allocates one more live Block, and nothing is swept mid-run).
	h := heap.New(100, zerolog.Nop())
	dict := reducer.MapDictionary{}
	src := "[a]"
	for i := 0; i < 40; i++ {
		src += " box"
	}
	root, err := parser.ParseString(h, src)
	require.NoError(t, err)
	_, _, err = reducer.Reduce(h, dict, zerolog.Nop(), root, 10_000)
	require.ErrorIs(t, err, heap.ErrSpace)
}
