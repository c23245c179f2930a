package review

// Verdict is the outcome of reviewing a single question.
type Verdict string

const (
	VerdictApproved Verdict = "approved"
	VerdictRejected Verdict = "rejected"
)

// Question is one multiple-choice item as loaded from a question-set file.
// choice always has exactly 4 entries; choice[0] is the correct answer.
type Question struct {
	Tag          string   `json:"tag"`
	Question     string   `json:"question"`
	Choice       []string `json:"choice"`
	AuthoredBy   string   `json:"authored_by,omitempty"`
	IsTranslated bool     `json:"is_translated,omitempty"`
}

// Decision records an approve/reject verdict for one question.
// Timestamps are ISO-8601 strings, matching the export file format.
type Decision struct {
	Verdict   Verdict `json:"decision"`
	Remarks   string  `json:"remarks"`
	Timestamp string  `json:"timestamp"`
}

// ReviewMap associates question indices with decisions. It is sparse: a
// question set is fully reviewed when len(m) equals the question count.
type ReviewMap map[int]Decision

// Session is the working state for one loaded question set.
type Session struct {
	ReviewerName  string    `json:"reviewerName"`
	CurrentFolder string    `json:"currentFolder"`
	CurrentFile   string    `json:"currentFile"`
	Questions     []Question `json:"questions"`
	Reviews       ReviewMap `json:"reviews"`
	CurrentIndex  int       `json:"currentIndex"`
}

// ReviewEntry is one decision inside a FileStatus, flattened for export.
type ReviewEntry struct {
	QuestionIndex int     `json:"questionIndex"`
	Decision      Verdict `json:"decision"`
	Remarks       string  `json:"remarks"`
	Timestamp     string  `json:"timestamp"`
}

// FileStatus summarizes the review of a single question-set file.
// CompletedAt stays null until every question in the file is reviewed.
type FileStatus struct {
	FileName          string        `json:"fileName"`
	ReviewerName      string        `json:"reviewerName"`
	TotalQuestions    int           `json:"totalQuestions"`
	ReviewedQuestions int           `json:"reviewedQuestions"`
	ApprovedCount     int           `json:"approvedCount"`
	RejectedCount     int           `json:"rejectedCount"`
	IsComplete        bool          `json:"isComplete"`
	StartedAt         string        `json:"startedAt,omitempty"`
	CompletedAt       *string       `json:"completedAt"`
	Reviews           []ReviewEntry `json:"reviews"`
}

// StatusFile is the folder-level review_status.json aggregate: one entry
// per question-set file, keyed by file name. Earlier versions of the tool
// wrote a flat single-file shape; the export engine normalizes that on read.
type StatusFile struct {
	FolderName  string                `json:"folderName"`
	Reviews     map[string]FileStatus `json:"reviews"`
	LastUpdated string                `json:"lastUpdated,omitempty"`
}
