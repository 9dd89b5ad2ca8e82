package reducer

import "redex/pkg/term"

// combinatorFn executes one combinator's contract. It returns ok=false
// (no error) when the precondition is not met — the caller thunks the
// combinator in that case, per spec §4.C: "Any combinator whose
// preconditions fail: thunk in place ... do not error." A non-nil
// error is reserved for heap errors (Space/Null/Tag), which do halt
// reduction.
type combinatorFn func(m *Machine, self term.Ref) (ok bool, err error)

var combinators = [...]combinatorFn{
	term.CombApp:   combApp,
	term.CombBox:   combBox,
	term.CombCat:   combCat,
	term.CombCopy:  combCopy,
	term.CombDrop:  combDrop,
	term.CombSwap:  combSwap,
	term.CombFix:   combFix,
	term.CombRun:   combRun,
	term.CombShift: combShift,
}

// combApp: top is Block; pop it; prepend its body to cont.
func combApp(m *Machine, _ term.Ref) (bool, error) {
	top, ok := m.frame.peek()
	if !ok {
		return false, nil
	}
	t, err := m.h.Read(top)
	if err != nil {
		return false, err
	}
	if !t.IsBlock() {
		return false, nil
	}
	m.frame.pop()
	m.frame.pushContFront(t.Body)
	return true, nil
}

// combBox: pop top value A; push Block(A).
func combBox(m *Machine, _ term.Ref) (bool, error) {
	top, ok := m.frame.pop()
	if !ok {
		return false, nil
	}
	block, err := m.h.Alloc(term.Block(top))
	if err != nil {
		return false, err
	}
	m.frame.push(block)
	return true, nil
}

// combCat: top two are Blocks; pop B, A; push Block(Seq(A.body, B.body)).
func combCat(m *Machine, _ term.Ref) (bool, error) {
	if !m.frame.isDyadic() {
		return false, nil
	}
	n := len(m.frame.Env)
	bRef, aRef := m.frame.Env[n-1], m.frame.Env[n-2]
	bt, err := m.h.Read(bRef)
	if err != nil {
		return false, err
	}
	at, err := m.h.Read(aRef)
	if err != nil {
		return false, err
	}
	if !bt.IsBlock() || !at.IsBlock() {
		return false, nil
	}
	m.frame.pop()
	m.frame.pop()
	body, err := m.h.NewSeq(at.Body, bt.Body)
	if err != nil {
		return false, err
	}
	block, err := m.h.Alloc(term.Block(body))
	if err != nil {
		return false, err
	}
	m.frame.push(block)
	return true, nil
}

// combCopy: duplicate top (terms are immutable, so pushing the same
// reference twice is a correct duplication).
func combCopy(m *Machine, _ term.Ref) (bool, error) {
	top, ok := m.frame.peek()
	if !ok {
		return false, nil
	}
	m.frame.push(top)
	return true, nil
}

// combDrop: discard top.
func combDrop(m *Machine, _ term.Ref) (bool, error) {
	_, ok := m.frame.pop()
	return ok, nil
}

// combSwap: swap the top two values.
func combSwap(m *Machine, _ term.Ref) (bool, error) {
	if !m.frame.isDyadic() {
		return false, nil
	}
	b, _ := m.frame.pop()
	a, _ := m.frame.pop()
	m.frame.push(b)
	m.frame.push(a)
	return true, nil
}

// combFix: top is Block A; replace with Block(Seq(Seq(A, fix), A.body)).
// The resulting Block's body is "self fix" followed by the original
// body — applying it re-introduces the recursion.
func combFix(m *Machine, self term.Ref) (bool, error) {
	top, ok := m.frame.peek()
	if !ok {
		return false, nil
	}
	t, err := m.h.Read(top)
	if err != nil {
		return false, err
	}
	if !t.IsBlock() {
		return false, nil
	}
	m.frame.pop()
	selfFix, err := m.h.NewSeq(top, self)
	if err != nil {
		return false, err
	}
	targetBody, err := m.h.NewSeq(selfFix, t.Body)
	if err != nil {
		return false, err
	}
	block, err := m.h.Alloc(term.Block(targetBody))
	if err != nil {
		return false, err
	}
	m.frame.push(block)
	return true, nil
}

// combRun: top is Block; pop it; prepend Cmd(body) to cont — a
// re-entrable scoped evaluation.
func combRun(m *Machine, _ term.Ref) (bool, error) {
	top, ok := m.frame.peek()
	if !ok {
		return false, nil
	}
	t, err := m.h.Read(top)
	if err != nil {
		return false, err
	}
	if !t.IsBlock() {
		return false, nil
	}
	m.frame.pop()
	cmd, err := m.h.Alloc(term.Cmd(t.Body))
	if err != nil {
		return false, err
	}
	m.frame.pushContFront(cmd)
	return true, nil
}

// combShift: top is Block (handler), and an enclosing frame exists
// (spec's resolved open question: thunk at top level, the strict
// view). Captures the current frame's remaining env and cont as two
// Blocks, pushes them, then runs the handler in the current frame.
func combShift(m *Machine, _ term.Ref) (bool, error) {
	if len(m.stack) == 0 {
		return false, nil
	}
	top, ok := m.frame.peek()
	if !ok {
		return false, nil
	}
	t, err := m.h.Read(top)
	if err != nil {
		return false, err
	}
	if !t.IsBlock() {
		return false, nil
	}
	m.frame.pop()
	handlerBody := t.Body

	envBody, err := m.foldEnvThunk(&m.frame)
	if err != nil {
		return false, err
	}
	conBody, err := m.foldCont(&m.frame)
	if err != nil {
		return false, err
	}
	envBlock, err := m.h.Alloc(term.Block(envBody))
	if err != nil {
		return false, err
	}
	conBlock, err := m.h.Alloc(term.Block(conBody))
	if err != nil {
		return false, err
	}
	m.frame.push(envBlock)
	m.frame.push(conBlock)
	m.frame.pushContFront(handlerBody)
	return true, nil
}
