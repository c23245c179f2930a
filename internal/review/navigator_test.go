package review_test

import (
	"errors"
	"testing"

	"github.com/KuramitsuLab/ModelVistaPlus/internal/review"
)

func testSession(n int) *review.Session {
	qs := make([]review.Question, n)
	for i := range qs {
		qs[i] = review.Question{
			Tag:      "uml",
			Question: "q",
			Choice:   []string{"correct", "b", "c", "d"},
		}
	}
	return &review.Session{
		ReviewerName:  "tester",
		CurrentFolder: "activity001",
		CurrentFile:   "qa_new_ja.json",
		Questions:     qs,
		Reviews:       review.ReviewMap{},
	}
}

func TestNavigatorInitialView(t *testing.T) {
	nav := review.NewNavigator(testSession(3))
	v := nav.View()
	if v.Index != 0 {
		t.Fatalf("index = %d, want 0", v.Index)
	}
	if v.CanPrev {
		t.Fatal("prev must be disabled at index 0")
	}
	if v.CanNext {
		t.Fatal("next must be disabled before a decision")
	}
	if v.Decision != nil {
		t.Fatal("no decision expected on a fresh question")
	}
}

func TestNavigatorAdvanceRequiresDecision(t *testing.T) {
	nav := review.NewNavigator(testSession(3))
	if _, err := nav.Advance(1); !errors.Is(err, review.ErrDecisionRequired) {
		t.Fatalf("err = %v, want ErrDecisionRequired", err)
	}
	nav.Record(review.VerdictApproved, "ok")
	v, err := nav.Advance(1)
	if err != nil {
		t.Fatalf("advance after decision: %v", err)
	}
	if v.Index != 1 {
		t.Fatalf("index = %d, want 1", v.Index)
	}
}

func TestNavigatorBackwardClampsAtZero(t *testing.T) {
	nav := review.NewNavigator(testSession(3))
	v, err := nav.Advance(-1)
	if err != nil {
		t.Fatalf("backward advance: %v", err)
	}
	if v.Index != 0 {
		t.Fatalf("index = %d, want 0 (clamped)", v.Index)
	}
}

func TestNavigatorRestoresDecisionOnReentry(t *testing.T) {
	nav := review.NewNavigator(testSession(3))
	nav.Record(review.VerdictRejected, "dup of q2")
	if _, err := nav.Advance(1); err != nil {
		t.Fatal(err)
	}
	v, err := nav.Advance(-1)
	if err != nil {
		t.Fatal(err)
	}
	if v.Decision == nil || v.Decision.Verdict != review.VerdictRejected || v.Decision.Remarks != "dup of q2" {
		t.Fatalf("decision not restored: %+v", v.Decision)
	}
	if !v.CanNext {
		t.Fatal("next must be enabled for a decided question")
	}
}

func TestNavigatorFinishWhenComplete(t *testing.T) {
	nav := review.NewNavigator(testSession(3))
	nav.Record(review.VerdictApproved, "")
	if _, err := nav.Advance(1); err != nil {
		t.Fatal(err)
	}
	nav.Record(review.VerdictApproved, "")
	if _, err := nav.Advance(1); err != nil {
		t.Fatal(err)
	}
	nav.Record(review.VerdictRejected, "")
	_, err := nav.Advance(1)
	if !errors.Is(err, review.ErrReviewComplete) {
		t.Fatalf("err = %v, want ErrReviewComplete", err)
	}
}

func TestNavigatorFinishWithGapsCountsRemaining(t *testing.T) {
	s := testSession(4)
	nav := review.NewNavigator(s)
	nav.Record(review.VerdictApproved, "")
	if _, err := nav.Goto(3); err != nil {
		t.Fatal(err)
	}
	nav.Record(review.VerdictApproved, "")
	_, err := nav.Advance(1)
	var oe *review.OutstandingError
	if !errors.As(err, &oe) {
		t.Fatalf("err = %v, want OutstandingError", err)
	}
	if oe.Remaining != 2 {
		t.Fatalf("remaining = %d, want 2", oe.Remaining)
	}
}

func TestNavigatorRecordOverwrites(t *testing.T) {
	s := testSession(2)
	nav := review.NewNavigator(s)
	nav.Record(review.VerdictApproved, "first pass")
	v := nav.Record(review.VerdictRejected, "changed my mind")
	if v.Decision.Verdict != review.VerdictRejected {
		t.Fatalf("verdict = %s, want rejected", v.Decision.Verdict)
	}
	if len(s.Reviews) != 1 {
		t.Fatalf("resubmission must overwrite, got %d entries", len(s.Reviews))
	}
	if s.Reviews[0].Timestamp == "" {
		t.Fatal("decision must carry a timestamp")
	}
}

func TestNavigatorSetRemarks(t *testing.T) {
	nav := review.NewNavigator(testSession(2))
	if nav.SetRemarks("too vague") {
		t.Fatal("remarks without a decision must be rejected")
	}
	nav.Record(review.VerdictApproved, "")
	if !nav.SetRemarks("too vague") {
		t.Fatal("remarks after a decision must stick")
	}
	if d := nav.View().Decision; d.Remarks != "too vague" {
		t.Fatalf("remarks = %q", d.Remarks)
	}
}

func TestNavigatorGotoOutOfRange(t *testing.T) {
	nav := review.NewNavigator(testSession(2))
	if _, err := nav.Goto(5); err == nil {
		t.Fatal("goto past the end must fail")
	}
	if _, err := nav.Goto(-1); err == nil {
		t.Fatal("negative goto must fail")
	}
}
