package reducer

import (
	"fmt"
	"strings"
)

// Stats tracks bookkeeping for one reduction run: how many steps were
// spent, and what the machine did with them. Adapted from the
// teacher's optimization-pass statistics idiom (grouped counters, a
// String report, a Merge for combining runs) re-themed entirely around
// reduction instead of C-codegen optimizations.
type Stats struct {
	Steps            int // atoms fetched and dispatched
	Combinators      int // combinator dispatches that met their precondition
	Thunked          int // stuck combinators/words moved to a thunk buffer
	WordsSubstituted int // dictionary lookups that substituted a bound body
	FramesPushed     int // delimited (Cmd) scopes entered
}

// String returns a one-line human-readable summary.
func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "steps=%d combinators=%d thunked=%d words=%d frames=%d",
		s.Steps, s.Combinators, s.Thunked, s.WordsSubstituted, s.FramesPushed)
	return b.String()
}

// Merge accumulates other's counters into s, for drivers that report
// statistics across a sequence of evaluations.
func (s *Stats) Merge(other Stats) {
	s.Steps += other.Steps
	s.Combinators += other.Combinators
	s.Thunked += other.Thunked
	s.WordsSubstituted += other.WordsSubstituted
	s.FramesPushed += other.FramesPushed
}
