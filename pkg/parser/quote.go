package parser

import (
	"strings"

	"redex/pkg/heap"
	"redex/pkg/term"
)

// Quote renders ref as the canonical text form described in §4.B.
func Quote(h *heap.Heap, ref term.Ref) (string, error) {
	var b strings.Builder
	if err := quoteInto(&b, h, ref); err != nil {
		return "", err
	}
	return b.String(), nil
}

func quoteInto(b *strings.Builder, h *heap.Heap, ref term.Ref) error {
	t, err := h.Read(ref)
	if err != nil {
		return err
	}
	switch t.Tag {
	case term.TagID:
		// emits nothing
		return nil
	case term.TagNum:
		b.WriteString(term.FormatNum(t.Num))
		return nil
	case term.TagWord:
		b.WriteString(t.Word)
		return nil
	case term.TagHint:
		b.WriteByte('(')
		b.WriteString(t.Hint)
		b.WriteByte(')')
		return nil
	case term.TagComb:
		b.WriteString(t.Comb.String())
		return nil
	case term.TagBlock:
		b.WriteByte('[')
		if err := quoteInto(b, h, t.Body); err != nil {
			return err
		}
		b.WriteByte(']')
		return nil
	case term.TagCmd:
		b.WriteString("{ ")
		if err := quoteInto(b, h, t.Body); err != nil {
			return err
		}
		b.WriteString(" }")
		return nil
	case term.TagSeq:
		if err := quoteInto(b, h, t.Left); err != nil {
			return err
		}
		rightTerm, err := h.Read(t.Right)
		if err != nil {
			return err
		}
		if !rightTerm.IsID() {
			b.WriteByte(' ')
			if err := quoteInto(b, h, t.Right); err != nil {
				return err
			}
		}
		return nil
	}
	return heap.ErrTag
}
