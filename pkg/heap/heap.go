// Package heap implements the generationally tagged, slot-based term
// arena: allocation, dereference, and mark/sweep collection.
//
// The reference scheme follows the fat-pointer idiom of a generational
// reference (slot index paired with a generation stamp, dereference
// checked against the slot's current generation) rather than reference
// counting: terms are built bottom-up and never mutated, so the heap
// graph is a DAG and a tracing collector needs no cycle support.
package heap

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"redex/pkg/term"
)

// Sentinel error kinds. Callers compare with errors.Is; wrapping with
// github.com/pkg/errors preserves these as the Cause.
var (
	ErrSpace  = errors.New("heap: space exhausted")
	ErrNull   = errors.New("heap: stale or vacant reference")
	ErrTag    = errors.New("heap: wrong term variant")
	ErrSyntax = errors.New("heap: syntax error")
)

type slot struct {
	occupied   bool
	generation uint64
	marked     bool
	value      term.Term
}

// Heap is a fixed-capacity slot arena. Capacity is the space quota.
type Heap struct {
	slots      []slot
	generation uint64
	log        zerolog.Logger
}

// New constructs a Heap with the given slot capacity.
func New(capacity int, log zerolog.Logger) *Heap {
	return &Heap{
		slots: make([]slot, capacity),
		log:   log.With().Str("component", "heap").Logger(),
	}
}

// Capacity returns the fixed number of slots.
func (h *Heap) Capacity() int { return len(h.slots) }

// Alloc writes t into the first vacant slot, stamping it with the
// heap's current generation. Fails ErrSpace if no slot is vacant.
func (h *Heap) Alloc(t term.Term) (term.Ref, error) {
	for i := range h.slots {
		if !h.slots[i].occupied {
			h.slots[i] = slot{
				occupied:   true,
				generation: h.generation,
				marked:     false,
				value:      t,
			}
			return term.Ref{Index: i, Generation: h.generation}, nil
		}
	}
	return term.Ref{}, errors.WithStack(ErrSpace)
}

// Read returns the tagged term at ref. Fails ErrNull if the slot is
// vacant or its generation does not match ref's.
func (h *Heap) Read(ref term.Ref) (term.Term, error) {
	if ref.Index < 0 || ref.Index >= len(h.slots) {
		return term.Term{}, errors.WithStack(ErrNull)
	}
	s := &h.slots[ref.Index]
	if !s.occupied || s.generation != ref.Generation {
		return term.Term{}, errors.WithStack(ErrNull)
	}
	return s.value, nil
}

// AllocID allocates a fresh Id term. Many call sites
// need an Id terminator; this is a thin convenience over Alloc.
func (h *Heap) AllocID() (term.Ref, error) {
	return h.Alloc(term.Id())
}

// NewSeq allocates Seq(l, r), applying the canonical-shape invariants:
// Seq(Id, x) simplifies to x, and Seq(Seq(a,b), c) right-associates to
// Seq(a, Seq(b, c)).
func (h *Heap) NewSeq(l, r term.Ref) (term.Ref, error) {
	lt, err := h.Read(l)
	if err != nil {
		return term.Ref{}, err
	}
	if lt.IsID() {
		return r, nil
	}
	if lt.IsSeq() {
		inner, err := h.NewSeq(lt.Right, r)
		if err != nil {
			return term.Ref{}, err
		}
		return h.Alloc(term.Seq(lt.Left, inner))
	}
	return h.Alloc(term.Seq(l, r))
}

// Fold right-folds refs into a Seq chain terminated by Id, so refs[0]
// is leftmost and refs[len-1] is rightmost in the rendered text.
func (h *Heap) Fold(refs []term.Ref) (term.Ref, error) {
	tail, err := h.AllocID()
	if err != nil {
		return term.Ref{}, err
	}
	for i := len(refs) - 1; i >= 0; i-- {
		tail, err = h.NewSeq(refs[i], tail)
		if err != nil {
			return term.Ref{}, err
		}
	}
	return tail, nil
}

// Mark sets ref's slot mark bit and recursively marks its children.
// Fails ErrNull on a stale or vacant ref. Idempotent within one sweep
// cycle (already-marked slots return immediately).
func (h *Heap) Mark(ref term.Ref) error {
	if ref.Index < 0 || ref.Index >= len(h.slots) {
		return errors.WithStack(ErrNull)
	}
	s := &h.slots[ref.Index]
	if !s.occupied || s.generation != ref.Generation {
		return errors.WithStack(ErrNull)
	}
	if s.marked {
		return nil
	}
	s.marked = true
	switch s.value.Tag {
	case term.TagBlock, term.TagCmd:
		return h.Mark(s.value.Body)
	case term.TagSeq:
		if err := h.Mark(s.value.Left); err != nil {
			return err
		}
		return h.Mark(s.value.Right)
	}
	return nil
}

// Sweep retains every marked slot (unmarking it) and clears every
// unmarked occupied slot. Afterwards the heap generation counter is
// incremented by one, so any reference recorded before this call
// becomes stale for a cleared slot and remains live for a retained one.
// Returns the count of slots reclaimed.
func (h *Heap) Sweep() int {
	reclaimed := 0
	for i := range h.slots {
		s := &h.slots[i]
		if !s.occupied {
			continue
		}
		if s.marked {
			s.marked = false
			continue
		}
		*s = slot{}
		reclaimed++
	}
	h.generation++
	h.log.Debug().
		Int("reclaimed", reclaimed).
		Uint64("generation", h.generation).
		Msg("sweep")
	return reclaimed
}

// Generation returns the heap's current generation counter.
func (h *Heap) Generation() uint64 { return h.generation }

// Live reports whether ref currently resolves to an occupied slot at
// the matching generation, without returning the term.
func (h *Heap) Live(ref term.Ref) bool {
	if ref.Index < 0 || ref.Index >= len(h.slots) {
		return false
	}
	s := &h.slots[ref.Index]
	return s.occupied && s.generation == ref.Generation
}
