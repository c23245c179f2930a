package review_test

import (
	"testing"

	"github.com/KuramitsuLab/ModelVistaPlus/internal/review"
)

func decided(v review.Verdict, ts string) review.Decision {
	return review.Decision{Verdict: v, Timestamp: ts}
}

func TestGetProgressEmpty(t *testing.T) {
	p := review.GetProgress(review.ReviewMap{}, 5)
	if p.Total != 5 || p.Reviewed != 0 || p.Unreviewed != 5 || p.Approved != 0 || p.Rejected != 0 {
		t.Fatalf("unexpected progress: %+v", p)
	}
}

func TestGetProgressScenario(t *testing.T) {
	// 5 questions, Q0 approved, Q2 rejected, Q4 approved.
	reviews := review.ReviewMap{
		0: decided(review.VerdictApproved, "2025-01-01T09:00:00Z"),
		2: decided(review.VerdictRejected, "2025-01-01T09:05:00Z"),
		4: decided(review.VerdictApproved, "2025-01-01T09:10:00Z"),
	}
	p := review.GetProgress(reviews, 5)
	if p.Total != 5 || p.Reviewed != 3 || p.Unreviewed != 2 || p.Approved != 2 || p.Rejected != 1 {
		t.Fatalf("unexpected progress: %+v", p)
	}
	if p.Stale != 0 {
		t.Fatalf("no stale entries expected, got %d", p.Stale)
	}
}

func TestGetProgressIdentities(t *testing.T) {
	cases := []struct {
		name    string
		reviews review.ReviewMap
		total   int
	}{
		{"empty", review.ReviewMap{}, 0},
		{"partial", review.ReviewMap{
			1: decided(review.VerdictApproved, ""),
			3: decided(review.VerdictRejected, ""),
		}, 10},
		{"complete", review.ReviewMap{
			0: decided(review.VerdictRejected, ""),
			1: decided(review.VerdictRejected, ""),
		}, 2},
	}
	for _, tc := range cases {
		p := review.GetProgress(tc.reviews, tc.total)
		if p.Reviewed+p.Unreviewed != tc.total {
			t.Errorf("%s: reviewed+unreviewed = %d, want %d", tc.name, p.Reviewed+p.Unreviewed, tc.total)
		}
		if p.Approved+p.Rejected != p.Reviewed {
			t.Errorf("%s: approved+rejected = %d, want %d", tc.name, p.Approved+p.Rejected, p.Reviewed)
		}
	}
}

func TestGetProgressCountsOutOfRangeKeys(t *testing.T) {
	// A decision left over from a question set that shrank still counts,
	// but is reported as stale.
	reviews := review.ReviewMap{
		0: decided(review.VerdictApproved, ""),
		7: decided(review.VerdictRejected, ""),
	}
	p := review.GetProgress(reviews, 3)
	if p.Reviewed != 2 || p.Approved != 1 || p.Rejected != 1 {
		t.Fatalf("out-of-range keys must still be counted: %+v", p)
	}
	if p.Unreviewed != 1 {
		t.Fatalf("unreviewed = %d, want 1", p.Unreviewed)
	}
	if p.Stale != 1 {
		t.Fatalf("stale = %d, want 1", p.Stale)
	}
}

func TestIsComplete(t *testing.T) {
	reviews := review.ReviewMap{0: decided(review.VerdictApproved, "")}
	if review.IsComplete(reviews, 2) {
		t.Fatal("1 of 2 must not be complete")
	}
	reviews[1] = decided(review.VerdictRejected, "")
	if !review.IsComplete(reviews, 2) {
		t.Fatal("2 of 2 must be complete")
	}
}
