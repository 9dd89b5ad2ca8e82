// Package parser implements the bijective (modulo whitespace) text↔heap
// translation for redex term source: tokenization into terms and
// canonical rendering back to text.
package parser

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"redex/pkg/heap"
	"redex/pkg/term"
)

// wordChars is the word alphabet from the term grammar.
const wordChars = "abcdefghijklmnopqrstuvwxyz0123456789+-*/<>!?=_.$;@"

// Parser tokenizes source text against a Heap, allocating one term per
// token and folding the run into a right-linear Seq chain.
type Parser struct {
	h      *heap.Heap
	tokens []string
	pos    int
}

// New creates a Parser over src that allocates into h.
func New(h *heap.Heap, src string) *Parser {
	return &Parser{h: h, tokens: tokenize(src)}
}

// tokenize pads bracket characters with spaces, then splits on
// whitespace, per the §4.B tokenization rule.
func tokenize(src string) []string {
	var b strings.Builder
	for _, r := range src {
		switch r {
		case '[', ']', '{', '}':
			b.WriteByte(' ')
			b.WriteRune(r)
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Fields(b.String())
}

func (p *Parser) peek() (string, bool) {
	if p.pos >= len(p.tokens) {
		return "", false
	}
	return p.tokens[p.pos], true
}

func (p *Parser) advance() (string, bool) {
	tok, ok := p.peek()
	if ok {
		p.pos++
	}
	return tok, ok
}

// Parse tokenizes and allocates the full source as a single term
// reference: a right-linear Seq chain terminated by Id. An empty
// source parses to Id.
func (p *Parser) Parse() (term.Ref, error) {
	refs, err := p.parseRun("")
	if err != nil {
		return term.Ref{}, err
	}
	if len(p.tokens) != p.pos {
		return term.Ref{}, errors.Wrapf(heap.ErrSyntax, "unexpected trailing token %q", p.tokens[p.pos])
	}
	return p.fold(refs)
}

// parseRun consumes terms until it sees the token that closes the
// bracket kind named by closer ("" means "end of input"), returning the
// refs produced. On a scope-opener it recurses.
func (p *Parser) parseRun(closer string) ([]term.Ref, error) {
	var refs []term.Ref
	for {
		tok, ok := p.peek()
		if !ok {
			if closer != "" {
				return nil, errors.Wrapf(heap.ErrSyntax, "unclosed %q", closer)
			}
			return refs, nil
		}
		if tok == closer {
			p.pos++
			return refs, nil
		}
		if tok == "]" || tok == "}" {
			return nil, errors.Wrapf(heap.ErrSyntax, "mismatched bracket %q", tok)
		}

		ref, err := p.parseOne()
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
}

func (p *Parser) parseOne() (term.Ref, error) {
	tok, _ := p.advance()
	switch tok {
	case "[":
		inner, err := p.parseRun("]")
		if err != nil {
			return term.Ref{}, err
		}
		body, err := p.fold(inner)
		if err != nil {
			return term.Ref{}, err
		}
		return p.h.Alloc(term.Block(body))
	case "{":
		inner, err := p.parseRun("}")
		if err != nil {
			return term.Ref{}, err
		}
		body, err := p.fold(inner)
		if err != nil {
			return term.Ref{}, err
		}
		return p.h.Alloc(term.Cmd(body))
	}
	return p.parseAtom(tok)
}

func (p *Parser) parseAtom(tok string) (term.Ref, error) {
	if c, ok := term.LookupComb(tok); ok {
		return p.h.Alloc(term.CombTerm(c))
	}
	if h, ok := parseHint(tok); ok {
		return p.h.Alloc(term.Hint(h))
	}
	if v, ok := parseNumber(tok); ok {
		return p.h.Alloc(term.Num(v))
	}
	if !isWord(tok) {
		return term.Ref{}, errors.Wrapf(heap.ErrSyntax, "unrecognized token %q", tok)
	}
	return p.h.Alloc(term.Word(intern(tok)))
}

// fold right-folds refs into a Seq chain terminated by Id.
func (p *Parser) fold(refs []term.Ref) (term.Ref, error) {
	return p.h.Fold(refs)
}

func parseHint(tok string) (string, bool) {
	if len(tok) < 3 || tok[0] != '(' || tok[len(tok)-1] != ')' {
		return "", false
	}
	name := tok[1 : len(tok)-1]
	if !isWord(name) {
		return "", false
	}
	return intern(name), true
}

func parseNumber(tok string) (float64, bool) {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func isWord(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if strings.IndexRune(wordChars, r) < 0 {
			return false
		}
	}
	return true
}

// ParseString is a package-level convenience wrapper over New(...).Parse().
func ParseString(h *heap.Heap, src string) (term.Ref, error) {
	return New(h, src).Parse()
}
