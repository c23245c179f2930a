package review

import (
	"errors"
	"fmt"
	"time"
)

// ErrDecisionRequired is returned when advancing forward from a question
// that has no recorded decision.
var ErrDecisionRequired = errors.New("current question has no decision")

// ErrReviewComplete signals that the reviewer advanced past the last
// question with every question decided: the review is finished.
var ErrReviewComplete = errors.New("review complete")

// OutstandingError is returned when the reviewer tries to finish while
// some questions still lack a decision.
type OutstandingError struct {
	Remaining int
}

func (e *OutstandingError) Error() string {
	return fmt.Sprintf("%d questions not yet reviewed", e.Remaining)
}

// View is what the presentation layer needs to render one question:
// the question itself, any restored decision, fresh progress, and
// which navigation controls are enabled.
type View struct {
	Index    int       `json:"index"`
	Question Question  `json:"question"`
	Decision *Decision `json:"decision"`
	Progress Progress  `json:"progress"`
	CanPrev  bool      `json:"canPrev"`
	CanNext  bool      `json:"canNext"`
	IsLast   bool      `json:"isLast"`
}

// Navigator sequences through a session's questions. Navigation is linear:
// moving forward requires a decision on the current question, and finishing
// requires every question to be decided. It has no rendering dependency.
type Navigator struct {
	s   *Session
	now func() time.Time
}

func NewNavigator(s *Session) *Navigator {
	if s.Reviews == nil {
		s.Reviews = ReviewMap{}
	}
	return &Navigator{s: s, now: time.Now}
}

// Session returns the session the navigator drives.
func (n *Navigator) Session() *Session { return n.s }

// View renders the question at the current index.
func (n *Navigator) View() View {
	idx := n.s.CurrentIndex
	v := View{
		Index:    idx,
		Progress: GetProgress(n.s.Reviews, len(n.s.Questions)),
		CanPrev:  idx > 0,
		IsLast:   idx == len(n.s.Questions)-1,
	}
	if idx >= 0 && idx < len(n.s.Questions) {
		v.Question = n.s.Questions[idx]
	}
	if d, ok := n.s.Reviews[idx]; ok {
		v.Decision = &d
		v.CanNext = true
	}
	return v
}

// Goto enters a specific index and renders it.
func (n *Navigator) Goto(idx int) (View, error) {
	if idx < 0 || idx >= len(n.s.Questions) {
		return View{}, fmt.Errorf("index %d out of range [0,%d)", idx, len(n.s.Questions))
	}
	n.s.CurrentIndex = idx
	return n.View(), nil
}

// Advance moves by delta questions. Backward moves clamp at 0. Forward
// moves require the current question to be decided; moving past the last
// question returns ErrReviewComplete when everything is reviewed, or an
// OutstandingError reporting how many questions remain.
func (n *Navigator) Advance(delta int) (View, error) {
	if delta > 0 {
		if _, ok := n.s.Reviews[n.s.CurrentIndex]; !ok {
			return n.View(), ErrDecisionRequired
		}
	}
	next := n.s.CurrentIndex + delta
	if next < 0 {
		next = 0
	}
	if next >= len(n.s.Questions) {
		p := GetProgress(n.s.Reviews, len(n.s.Questions))
		if p.Reviewed == p.Total {
			return n.View(), ErrReviewComplete
		}
		return n.View(), &OutstandingError{Remaining: p.Unreviewed}
	}
	n.s.CurrentIndex = next
	return n.View(), nil
}

// Record sets the decision for the current question, overwriting any prior
// verdict, and stamps it with the current time.
func (n *Navigator) Record(v Verdict, remarks string) View {
	n.s.Reviews[n.s.CurrentIndex] = Decision{
		Verdict:   v,
		Remarks:   remarks,
		Timestamp: n.now().UTC().Format(time.RFC3339),
	}
	return n.View()
}

// SetRemarks rewrites the remarks of an already-decided question. It is a
// no-op (false) when the current question has no decision yet.
func (n *Navigator) SetRemarks(remarks string) bool {
	d, ok := n.s.Reviews[n.s.CurrentIndex]
	if !ok {
		return false
	}
	d.Remarks = remarks
	n.s.Reviews[n.s.CurrentIndex] = d
	return true
}
