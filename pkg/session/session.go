// Package session implements the dictionary-backed evaluation loop on
// top of a heap and reducer: the insert/delete/eval command grammar,
// mark-and-sweep after every command, and Markdown image loading.
package session

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"redex/pkg/heap"
	"redex/pkg/parser"
	"redex/pkg/reducer"
	"redex/pkg/term"
)

// wordPattern matches the session-command name grammar (spec §6):
// the same character class as a term word.
const wordPattern = `[a-z0-9+\-*/<>!?=_.$;@]+`

var (
	insertPattern = regexp.MustCompile(`^:(` + wordPattern + `)\s+(.*)$`)
	deletePattern = regexp.MustCompile(`^~(` + wordPattern + `)\s*$`)
)

// imageLanguage is the fenced-code-block info string that marks a
// block as session commands when loading an image document.
const imageLanguage = "redex"

// Session is one running evaluation context: a heap, a name→term
// dictionary, and the time quota applied to every command.
type Session struct {
	Heap      *heap.Heap
	Dict      map[string]term.Ref
	TimeQuota int
	log       zerolog.Logger
}

// New constructs an empty session over a fresh heap of the given
// capacity.
func New(spaceQuota, timeQuota int, log zerolog.Logger) *Session {
	log = log.With().Str("component", "session").Logger()
	return &Session{
		Heap:      heap.New(spaceQuota, log),
		Dict:      make(map[string]term.Ref),
		TimeQuota: timeQuota,
		log:       log,
	}
}

func (s *Session) dictionary() reducer.MapDictionary {
	return reducer.MapDictionary(s.Dict)
}

// Eval runs one session command: an insert (":name body"), a delete
// ("~name"), or a bare evaluation (anything else). Every command, on
// success, marks every dictionary value and sweeps the heap before
// returning — so the dictionary is always exactly the live root set.
func (s *Session) Eval(src string) (string, error) {
	var out string
	switch {
	case insertPattern.MatchString(src):
		m := insertPattern.FindStringSubmatch(src)
		key, bodySrc := m[1], m[2]
		root, err := parser.ParseString(s.Heap, bodySrc)
		if err != nil {
			return "", errors.Wrapf(err, "session: parsing definition %q", key)
		}
		value, _, err := reducer.Reduce(s.Heap, s.dictionary(), s.log, root, s.TimeQuota)
		if err != nil {
			return "", errors.Wrapf(err, "session: reducing definition %q", key)
		}
		s.Dict[key] = value
		quoted, err := parser.Quote(s.Heap, value)
		if err != nil {
			return "", errors.Wrapf(err, "session: quoting definition %q", key)
		}
		out = ":" + key + " " + quoted
		s.log.Debug().Str("key", key).Str("value", quoted).Msg("insert")

	case deletePattern.MatchString(src):
		m := deletePattern.FindStringSubmatch(src)
		key := m[1]
		delete(s.Dict, key)
		out = "~" + key
		s.log.Debug().Str("key", key).Msg("delete")

	default:
		root, err := parser.ParseString(s.Heap, src)
		if err != nil {
			return "", errors.Wrap(err, "session: parsing")
		}
		target, _, err := reducer.Reduce(s.Heap, s.dictionary(), s.log, root, s.TimeQuota)
		if err != nil {
			return "", errors.Wrap(err, "session: reducing")
		}
		quoted, err := parser.Quote(s.Heap, target)
		if err != nil {
			return "", errors.Wrap(err, "session: quoting")
		}
		out = quoted
	}

	for _, ref := range s.Dict {
		if err := s.Heap.Mark(ref); err != nil {
			return "", errors.Wrap(err, "session: marking dictionary")
		}
	}
	s.Heap.Sweep()
	return out, nil
}

// Dump renders the dictionary as a sequence of insert commands, one
// per line, sorted by name for reproducible output.
func (s *Session) Dump() (string, error) {
	keys := make([]string, 0, len(s.Dict))
	for k := range s.Dict {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		quoted, err := parser.Quote(s.Heap, s.Dict[key])
		if err != nil {
			return "", errors.Wrapf(err, "session: dumping %q", key)
		}
		fmt.Fprintf(&b, ":%s %s\n", key, quoted)
	}
	return b.String(), nil
}

// LoadImage replays every non-empty line of src as a session command,
// in order, aborting on the first error.
func (s *Session) LoadImage(src string) error {
	for _, line := range strings.Split(src, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if _, err := s.Eval(line); err != nil {
			return err
		}
	}
	return nil
}

// LoadImageFile reads a Markdown document from path and replays the
// contents of every fenced code block whose info string is the
// system's language marker ("redex"), concatenated in document order,
// one line at a time.
func (s *Session) LoadImageFile(path string) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "session: reading image %q", path)
	}
	code, err := ExtractCodeBlocks(contents)
	if err != nil {
		return errors.Wrapf(err, "session: parsing image %q", path)
	}
	return s.LoadImage(code)
}

// ExtractCodeBlocks walks a Markdown document's AST and returns the
// concatenated contents of every fenced code block whose language is
// the system's marker, joined with newlines. Grounded on the
// original Rust implementation's comrak AST walk, here using goldmark.
func ExtractCodeBlocks(source []byte) (string, error) {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(source))
	var blocks []string
	err := gast.Walk(doc, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			return gast.WalkContinue, nil
		}
		block, ok := n.(*gast.FencedCodeBlock)
		if !ok {
			return gast.WalkContinue, nil
		}
		if string(block.Language(source)) != imageLanguage {
			return gast.WalkContinue, nil
		}
		var b strings.Builder
		lines := block.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			b.Write(line.Value(source))
		}
		blocks = append(blocks, b.String())
		return gast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}
	return strings.Join(blocks, "\n"), nil
}
