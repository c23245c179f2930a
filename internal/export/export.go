// Package export turns a reviewed session into the three output files:
// the approved subset, the rejected subset, and the folder-level
// review_status.json aggregate merged with prior export runs.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/KuramitsuLab/ModelVistaPlus/internal/review"
	"github.com/KuramitsuLab/ModelVistaPlus/internal/storage"
)

// StatusFileName is the per-folder aggregate, always rewritten via merge.
const StatusFileName = "review_status.json"

// ErrCancelled is returned when the confirmation port declines the export.
var ErrCancelled = errors.New("export cancelled")

// NotExportableError lists every precondition the session fails, not just
// the first.
type NotExportableError struct {
	Reasons []string
}

func (e *NotExportableError) Error() string {
	return "not exportable: " + strings.Join(e.Reasons, "; ")
}

// StepError reports which output file failed to persist. Earlier writes in
// the same export are not rolled back; each output is idempotent to
// re-export.
type StepError struct {
	Step     string // "approved", "rejected", "status"
	Filename string
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("export step %s: write %s: %v", e.Step, e.Filename, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// ReviewInfo is the metadata attached to each exported question.
type ReviewInfo struct {
	Reviewer  string         `json:"reviewer"`
	Decision  review.Verdict `json:"decision"`
	Remarks   string         `json:"remarks"`
	Timestamp string         `json:"timestamp"`
}

// ReviewedQuestion is a question copy augmented with its review.
type ReviewedQuestion struct {
	review.Question
	Review ReviewInfo `json:"review"`
}

// Summary is what the confirmation port gets to show the reviewer before
// anything is written.
type Summary struct {
	Folder   string          `json:"folder"`
	File     string          `json:"file"`
	Reviewer string          `json:"reviewer"`
	Progress review.Progress `json:"progress"`
}

// ConfirmFunc asks the user to confirm an export. Returning false aborts
// with ErrCancelled. A nil ConfirmFunc means pre-confirmed.
type ConfirmFunc func(s Summary) bool

// EventSink receives one audit event per written file. Optional.
type EventSink interface {
	Append(ctx context.Context, typ, key string, data any) error
}

// Result reports what an export wrote.
type Result struct {
	SavedFiles []string        `json:"savedFiles"`
	Progress   review.Progress `json:"progress"`
}

// Engine writes export outputs through the blob store. The final
// persistence calls are its only side effects.
type Engine struct {
	Blobs   storage.BlobStore
	Confirm ConfirmFunc
	Events  EventSink

	now func() time.Time
}

func NewEngine(bs storage.BlobStore) *Engine {
	return &Engine{Blobs: bs, now: time.Now}
}

// SplitByDecision copies every question whose decision matches kind,
// attaching the review metadata. Output is ordered by ascending question
// index. Decisions pointing outside the question set are skipped.
func SplitByDecision(questions []review.Question, reviews review.ReviewMap, reviewer string, kind review.Verdict) []ReviewedQuestion {
	indices := make([]int, 0, len(reviews))
	for idx, d := range reviews {
		if d.Verdict != kind {
			continue
		}
		if idx < 0 || idx >= len(questions) {
			continue
		}
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	out := []ReviewedQuestion{}
	for _, idx := range indices {
		d := reviews[idx]
		out = append(out, ReviewedQuestion{
			Question: questions[idx],
			Review: ReviewInfo{
				Reviewer:  reviewer,
				Decision:  kind,
				Remarks:   d.Remarks,
				Timestamp: d.Timestamp,
			},
		})
	}
	return out
}

// Summarize builds the per-file status for the session: progress counts
// plus the timestamp span of its decisions. CompletedAt surfaces only when
// the file is fully reviewed. The inner reviews list is sorted by numeric
// question index so repeated exports diff cleanly.
func Summarize(s *review.Session) review.FileStatus {
	p := review.GetProgress(s.Reviews, len(s.Questions))

	var startedAt, completedAt string
	entries := make([]review.ReviewEntry, 0, len(s.Reviews))
	for idx, d := range s.Reviews {
		if startedAt == "" || timestampBefore(d.Timestamp, startedAt) {
			startedAt = d.Timestamp
		}
		if completedAt == "" || timestampBefore(completedAt, d.Timestamp) {
			completedAt = d.Timestamp
		}
		entries = append(entries, review.ReviewEntry{
			QuestionIndex: idx,
			Decision:      d.Verdict,
			Remarks:       d.Remarks,
			Timestamp:     d.Timestamp,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].QuestionIndex < entries[j].QuestionIndex
	})

	st := review.FileStatus{
		FileName:          s.CurrentFile,
		ReviewerName:      s.ReviewerName,
		TotalQuestions:    p.Total,
		ReviewedQuestions: p.Reviewed,
		ApprovedCount:     p.Approved,
		RejectedCount:     p.Rejected,
		IsComplete:        p.Reviewed == p.Total,
		StartedAt:         startedAt,
		Reviews:           entries,
	}
	if st.IsComplete && completedAt != "" {
		st.CompletedAt = &completedAt
	}
	return st
}

// timestampBefore compares two ISO-8601 timestamps, falling back to a
// lexicographic compare when either does not parse.
func timestampBefore(a, b string) bool {
	ta, errA := time.Parse(time.RFC3339Nano, a)
	tb, errB := time.Parse(time.RFC3339Nano, b)
	if errA != nil || errB != nil {
		return a < b
	}
	return ta.Before(tb)
}

// MergeIntoAggregate folds one file's status into the folder aggregate.
// existing is the prior review_status.json content, or nil when none;
// undecodable content also starts a fresh aggregate. A legacy flat record
// (fileName at top level, no reviews map) is first converted: its own file
// name becomes a key in the reviews map and the folder name is hoisted out.
// The entry for file is overwritten; every other file's entry survives.
func MergeIntoAggregate(existing []byte, folder, file string, st review.FileStatus, now time.Time) review.StatusFile {
	agg := review.StatusFile{
		FolderName: folder,
		Reviews:    map[string]review.FileStatus{},
	}

	if len(existing) > 0 {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(existing, &probe); err == nil {
			_, hasFileName := probe["fileName"]
			reviewsRaw, hasReviews := probe["reviews"]
			if hasReviews && string(bytes.TrimSpace(reviewsRaw)) == "null" {
				// A null reviews map is the legacy shape too.
				hasReviews = false
			}
			switch {
			case hasFileName && !hasReviews:
				// Legacy flat shape. Unmarshalling into FileStatus drops
				// the top-level folderName, which moves to the aggregate.
				var legacy review.FileStatus
				if err := json.Unmarshal(existing, &legacy); err == nil && legacy.FileName != "" {
					agg.Reviews[legacy.FileName] = legacy
				}
			case hasReviews:
				var loaded review.StatusFile
				if err := json.Unmarshal(existing, &loaded); err == nil {
					agg = loaded
					if agg.Reviews == nil {
						agg.Reviews = map[string]review.FileStatus{}
					}
				}
			}
		}
	}

	agg.Reviews[file] = st
	agg.FolderName = folder
	agg.LastUpdated = now.UTC().Format(time.RFC3339)
	return agg
}

// CheckExportable validates the session's export preconditions, returning
// all applicable reasons.
func CheckExportable(s *review.Session) (bool, []string) {
	var reasons []string
	if s.ReviewerName == "" {
		reasons = append(reasons, "reviewer name is not set")
	}
	if s.CurrentFolder == "" {
		reasons = append(reasons, "no folder selected")
	}
	if s.CurrentFile == "" {
		reasons = append(reasons, "no file selected")
	}
	if len(s.Questions) == 0 {
		reasons = append(reasons, "no questions loaded")
	}
	if len(s.Reviews) == 0 {
		reasons = append(reasons, "no reviews recorded")
	}
	return len(reasons) == 0, reasons
}

// BuildSummary assembles the confirmation summary without side effects.
func BuildSummary(s *review.Session) Summary {
	return Summary{
		Folder:   s.CurrentFolder,
		File:     s.CurrentFile,
		Reviewer: s.ReviewerName,
		Progress: review.GetProgress(s.Reviews, len(s.Questions)),
	}
}

// Export writes the approved subset, rejected subset (each only when
// non-empty), and the merged aggregate, in that order. A step failure
// surfaces as a StepError; completed steps stand.
func (e *Engine) Export(ctx context.Context, s *review.Session) (Result, error) {
	if ok, reasons := CheckExportable(s); !ok {
		return Result{}, &NotExportableError{Reasons: reasons}
	}
	p := review.GetProgress(s.Reviews, len(s.Questions))

	if e.Confirm != nil && !e.Confirm(BuildSummary(s)) {
		return Result{}, ErrCancelled
	}

	base := strings.TrimSuffix(s.CurrentFile, ".json")
	res := Result{Progress: p}

	if p.Approved > 0 {
		name := base + "_approved.json"
		data := SplitByDecision(s.Questions, s.Reviews, s.ReviewerName, review.VerdictApproved)
		if err := e.putJSON(s.CurrentFolder, name, data); err != nil {
			return res, &StepError{Step: "approved", Filename: name, Err: err}
		}
		res.SavedFiles = append(res.SavedFiles, name)
		e.record(ctx, s.CurrentFolder+"/"+name, map[string]any{"decision": review.VerdictApproved, "count": len(data)})
	}

	if p.Rejected > 0 {
		name := base + "_rejected.json"
		data := SplitByDecision(s.Questions, s.Reviews, s.ReviewerName, review.VerdictRejected)
		if err := e.putJSON(s.CurrentFolder, name, data); err != nil {
			return res, &StepError{Step: "rejected", Filename: name, Err: err}
		}
		res.SavedFiles = append(res.SavedFiles, name)
		e.record(ctx, s.CurrentFolder+"/"+name, map[string]any{"decision": review.VerdictRejected, "count": len(data)})
	}

	existing := e.readStatus(s.CurrentFolder)
	merged := MergeIntoAggregate(existing, s.CurrentFolder, s.CurrentFile, Summarize(s), e.now())
	if err := e.putJSON(s.CurrentFolder, StatusFileName, merged); err != nil {
		return res, &StepError{Step: "status", Filename: StatusFileName, Err: err}
	}
	res.SavedFiles = append(res.SavedFiles, StatusFileName)
	e.recordMerge(ctx, s, merged)

	return res, nil
}

// readStatus is the read-before-write half of the merge. Missing or
// unreadable aggregates start fresh.
func (e *Engine) readStatus(folder string) []byte {
	rc, err := e.Blobs.Get(folder + "/" + StatusFileName)
	if err != nil {
		return nil
	}
	defer rc.Close()
	buf, err := io.ReadAll(rc)
	if err != nil {
		return nil
	}
	return buf
}

func (e *Engine) putJSON(folder, name string, data any) error {
	buf, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	_, err = e.Blobs.Put(folder+"/"+name, bytes.NewReader(buf))
	return err
}

func (e *Engine) record(ctx context.Context, key string, data map[string]any) {
	if e.Events == nil {
		return
	}
	// Audit is best effort; a logging failure must not fail the export.
	_ = e.Events.Append(ctx, "file_exported", key, data)
}

func (e *Engine) recordMerge(ctx context.Context, s *review.Session, merged review.StatusFile) {
	if e.Events == nil {
		return
	}
	_ = e.Events.Append(ctx, "status_merged", s.CurrentFolder+"/"+StatusFileName, map[string]any{
		"file":  s.CurrentFile,
		"files": len(merged.Reviews),
	})
}
