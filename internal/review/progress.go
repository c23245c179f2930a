package review

// Progress is the aggregate review state for one question set.
type Progress struct {
	Total      int `json:"total"`
	Reviewed   int `json:"reviewed"`
	Unreviewed int `json:"unreviewed"`
	Approved   int `json:"approved"`
	Rejected   int `json:"rejected"`
	// Stale counts decisions whose index falls outside [0,total), e.g.
	// leftovers from a question set that shrank. They are still included
	// in Reviewed/Approved/Rejected.
	Stale int `json:"stale,omitempty"`
}

// GetProgress tallies a review map against the question count. Defined for
// any total >= 0 and arbitrary map contents; it never fails.
func GetProgress(reviews ReviewMap, total int) Progress {
	p := Progress{
		Total:    total,
		Reviewed: len(reviews),
	}
	p.Unreviewed = total - p.Reviewed
	for idx, d := range reviews {
		switch d.Verdict {
		case VerdictApproved:
			p.Approved++
		case VerdictRejected:
			p.Rejected++
		}
		if idx < 0 || idx >= total {
			p.Stale++
		}
	}
	return p
}

// IsComplete reports whether every question has a recorded decision.
func IsComplete(reviews ReviewMap, total int) bool {
	return len(reviews) == total
}
