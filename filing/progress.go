package filing

import (
	"fmt"
	"strings"
)

// Progress is the step a personal tax return has reached. Steps are strictly
// ordered; a return moves one step at a time and is reset to NotStarted when
// the filing is confirmed.
type Progress int

const (
	ProgressNotStarted Progress = iota
	ProgressContactConfirmed
	ProgressSignatureSent
	ProgressSigned
	ProgressPaid
	ProgressFiled
)

var progressNames = [...]string{
	"not_started",
	"contact_confirmed",
	"signature_sent",
	"signed",
	"paid",
	"filed",
}

func (p Progress) String() string {
	if p < 0 || int(p) >= len(progressNames) {
		return fmt.Sprintf("progress(%d)", int(p))
	}
	return progressNames[p]
}

// Valid reports whether p is one of the named steps.
func (p Progress) Valid() bool { return p >= ProgressNotStarted && p <= ProgressFiled }

// ParseProgress parses a step name.
func ParseProgress(s string) (Progress, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for i, name := range progressNames {
		if name == norm {
			return Progress(i), nil
		}
	}
	return 0, fmt.Errorf("unknown progress step %q", s)
}

// Next returns the step after p. ok is false once Filed.
func (p Progress) Next() (next Progress, ok bool) {
	if p >= ProgressFiled {
		return p, false
	}
	return p + 1, true
}

// Advance moves to `to`. Only the immediate next step, staying put, or a
// reset to NotStarted are legal.
func (p Progress) Advance(to Progress) (Progress, error) {
	if !to.Valid() {
		return p, &IllegalProgressError{From: p, To: to}
	}
	if to == p || to == ProgressNotStarted {
		return to, nil
	}
	if next, ok := p.Next(); ok && next == to {
		return to, nil
	}
	return p, &IllegalProgressError{From: p, To: to}
}
