// Package reducer implements the stack-machine that drives rewriting:
// fetch/dispatch over a frame stack, the nine combinator contracts,
// thunking of stuck redexes, and delimited continuations via run/shift.
package reducer

import (
	"github.com/rs/zerolog"

	"redex/pkg/heap"
	"redex/pkg/term"
)

// Dictionary resolves a bound word to its body term, per the
// session's name→term mapping.
type Dictionary interface {
	Lookup(word string) (term.Ref, bool)
}

// MapDictionary adapts a plain map to the Dictionary interface.
type MapDictionary map[string]term.Ref

func (d MapDictionary) Lookup(word string) (term.Ref, bool) {
	ref, ok := d[word]
	return ref, ok
}

// Machine is one reduction run: a frame stack over a Heap, bounded by
// a decrementing time quota.
type Machine struct {
	h     *heap.Heap
	dict  Dictionary
	frame Frame
	stack []Frame
	Stats Stats
	log   zerolog.Logger
}

func newMachine(h *heap.Heap, dict Dictionary, log zerolog.Logger, root term.Ref) *Machine {
	return &Machine{
		h:     h,
		dict:  dict,
		frame: newFrame(root),
		log:   log.With().Str("component", "reducer").Logger(),
	}
}

func (m *Machine) hasContinuation() bool {
	return len(m.frame.Cont) > 0 || len(m.stack) > 0
}

// popContinuation fetches the next term to act on, flattening Seq
// nodes lazily and popping exhausted frames, per spec §4.C's fetch
// protocol. Returns ok=false when no continuation remains anywhere in
// the machine.
func (m *Machine) popContinuation() (term.Ref, bool, error) {
	for {
		if len(m.frame.Cont) == 0 {
			if len(m.stack) == 0 {
				return term.Ref{}, false, nil
			}
			previous := m.stack[len(m.stack)-1]
			m.stack = m.stack[:len(m.stack)-1]
			if m.frame.IsThunked() {
				residue, err := m.foldEnvThunk(&m.frame)
				if err != nil {
					return term.Ref{}, false, err
				}
				cmdRef, err := m.h.Alloc(term.Cmd(residue))
				if err != nil {
					return term.Ref{}, false, err
				}
				m.frame = previous
				m.frame.thunk(cmdRef)
			} else {
				previous.Env = append(previous.Env, m.frame.Env...)
				m.frame = previous
			}
			continue
		}
		code := m.frame.Cont[0]
		m.frame.Cont = m.frame.Cont[1:]
		t, err := m.h.Read(code)
		if err != nil {
			return term.Ref{}, false, err
		}
		if t.IsSeq() {
			m.frame.pushContFront(t.Left, t.Right)
			continue
		}
		return code, true, nil
	}
}

// foldEnvThunk drains frame's thunk buffer then its env (in that
// chronological order: thunked residue occurred earlier in the
// program than whatever is still sitting in env) into one Seq chain.
func (m *Machine) foldEnvThunk(f *Frame) (term.Ref, error) {
	refs := make([]term.Ref, 0, len(f.Thunk)+len(f.Env))
	refs = append(refs, f.Thunk...)
	refs = append(refs, f.Env...)
	f.Thunk = nil
	f.Env = nil
	return m.h.Fold(refs)
}

// foldCont drains frame's pending cont deque into one Seq chain.
func (m *Machine) foldCont(f *Frame) (term.Ref, error) {
	refs := f.Cont
	f.Cont = nil
	return m.h.Fold(refs)
}

func (m *Machine) pushFrame(root term.Ref) {
	m.stack = append(m.stack, m.frame)
	m.frame = newFrame(root)
	m.Stats.FramesPushed++
}

// step fetches one term and dispatches on its tag.
func (m *Machine) step() error {
	code, ok, err := m.popContinuation()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	t, err := m.h.Read(code)
	if err != nil {
		return err
	}
	switch t.Tag {
	case term.TagID, term.TagHint:
		// no effect
	case term.TagNum, term.TagBlock:
		m.frame.push(code)
	case term.TagCmd:
		m.pushFrame(t.Body)
	case term.TagWord:
		if body, bound := m.dict.Lookup(t.Word); bound {
			m.frame.pushContFront(body)
			m.Stats.WordsSubstituted++
		} else {
			m.frame.thunk(code)
			m.Stats.Thunked++
		}
	case term.TagComb:
		fn := combinators[t.Comb]
		ok, err := fn(m, code)
		if err != nil {
			return err
		}
		if !ok {
			m.frame.thunk(code)
			m.Stats.Thunked++
		} else {
			m.Stats.Combinators++
		}
	}
	return nil
}

// finalize collapses any remaining frames into the outermost one, then
// serializes it as env-then-cont per spec §4.C Termination, so the quoted
// result can be parsed and reduced again to continue the run. Terms that
// were already thunked are fetched again by that second run and spend
// its steps, so reduce(quote(reduce(x, k)), m) can stop short of
// reduce(x, k+m); the two agree when both runs reach normal form.
func (m *Machine) finalize() (term.Ref, error) {
	for len(m.stack) > 0 {
		previous := m.stack[len(m.stack)-1]
		m.stack = m.stack[:len(m.stack)-1]
		if m.frame.IsThunked() || len(m.frame.Cont) > 0 {
			envThunk, err := m.foldEnvThunk(&m.frame)
			if err != nil {
				return term.Ref{}, err
			}
			cont, err := m.foldCont(&m.frame)
			if err != nil {
				return term.Ref{}, err
			}
			residue, err := m.h.NewSeq(envThunk, cont)
			if err != nil {
				return term.Ref{}, err
			}
			cmdRef, err := m.h.Alloc(term.Cmd(residue))
			if err != nil {
				return term.Ref{}, err
			}
			m.frame = previous
			m.frame.thunk(cmdRef)
		} else {
			previous.Env = append(previous.Env, m.frame.Env...)
			m.frame = previous
		}
	}
	envThunk, err := m.foldEnvThunk(&m.frame)
	if err != nil {
		return term.Ref{}, err
	}
	cont, err := m.foldCont(&m.frame)
	if err != nil {
		return term.Ref{}, err
	}
	return m.h.NewSeq(envThunk, cont)
}

// Reduce drives root to normal form (or quota exhaustion) against h and
// dict, consuming up to timeQuota steps. Quota 0 returns root unchanged
// up to canonicalization.
func Reduce(h *heap.Heap, dict Dictionary, log zerolog.Logger, root term.Ref, timeQuota int) (term.Ref, Stats, error) {
	m := newMachine(h, dict, log, root)
	for timeQuota > 0 && m.hasContinuation() {
		if err := m.step(); err != nil {
			return term.Ref{}, m.Stats, err
		}
		timeQuota--
		m.Stats.Steps++
	}
	result, err := m.finalize()
	if err != nil {
		return term.Ref{}, m.Stats, err
	}
	return result, m.Stats, nil
}
