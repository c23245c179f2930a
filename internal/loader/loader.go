// Package loader reads and shape-checks question sets from the model tree.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/KuramitsuLab/ModelVistaPlus/internal/review"
)

// QuestionFileNames are the only file names a question set may have inside
// a model folder.
var QuestionFileNames = []string{"qa_new_ja.json", "qa_new_ja2.json"}

// ReferenceImageName is the fixed name of the optional diagram image shown
// next to the questions.
const ReferenceImageName = "dgpowerpoint_ja-fs8.png"

// Store is what the loader needs from the model tree.
type Store interface {
	Get(key string) (io.ReadCloser, error)
	Exists(key string) (bool, error)
	Folders() ([]string, error)
}

// SchemaError reports a malformed question. Index is 1-based, matching the
// error messages shown to reviewers.
type SchemaError struct {
	Index  int
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("question %d: %s", e.Index, e.Reason)
}

// ErrInvalidName rejects question file names outside the fixed set.
var ErrInvalidName = errors.New("invalid question file name")

// NotFoundError reports a missing required file.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Key)
}

type Loader struct {
	store Store
}

func New(store Store) *Loader {
	return &Loader{store: store}
}

// Folders lists the model folders available for review.
func (l *Loader) Folders() ([]string, error) {
	return l.store.Folders()
}

// DetectFiles returns which of the fixed question-set names exist in the
// folder, in the fixed probe order.
func (l *Loader) DetectFiles(folder string) ([]string, error) {
	var found []string
	for _, name := range QuestionFileNames {
		ok, err := l.store.Exists(folder + "/" + name)
		if err != nil {
			return nil, err
		}
		if ok {
			found = append(found, name)
		}
	}
	return found, nil
}

// Load reads and validates a question set. Any malformed element aborts
// the whole load with a SchemaError naming its 1-based position.
func (l *Loader) Load(folder, file string) ([]review.Question, error) {
	if !ValidFileName(file) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidName, file)
	}
	key := folder + "/" + file
	rc, err := l.store.Get(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Key: key}
		}
		return nil, err
	}
	defer rc.Close()

	var questions []review.Question
	if err := json.NewDecoder(rc).Decode(&questions); err != nil {
		return nil, fmt.Errorf("parse %s: %w", key, err)
	}
	for i, q := range questions {
		if q.Tag == "" || q.Question == "" || q.Choice == nil {
			return nil, &SchemaError{Index: i + 1, Reason: "missing required fields (tag, question, choice)"}
		}
		if len(q.Choice) != 4 {
			return nil, &SchemaError{Index: i + 1, Reason: fmt.Sprintf("expected 4 choices, got %d", len(q.Choice))}
		}
	}
	return questions, nil
}

// IsReviewed probes for the approved-output sibling whose existence marks
// the file as previously reviewed.
func (l *Loader) IsReviewed(folder, file string) (bool, error) {
	return l.store.Exists(folder + "/" + ApprovedFileName(file))
}

// HasImage probes for the folder's reference image. Absence is non-fatal.
func (l *Loader) HasImage(folder string) (bool, error) {
	return l.store.Exists(folder + "/" + ReferenceImageName)
}

// ValidFileName reports whether name is one of the fixed question-set names.
func ValidFileName(name string) bool {
	for _, n := range QuestionFileNames {
		if n == name {
			return true
		}
	}
	return false
}

// ApprovedFileName derives the approved-output name: qa_new_ja.json ->
// qa_new_ja_approved.json.
func ApprovedFileName(file string) string {
	return strings.TrimSuffix(file, ".json") + "_approved.json"
}

// RejectedFileName derives the rejected-output name.
func RejectedFileName(file string) string {
	return strings.TrimSuffix(file, ".json") + "_rejected.json"
}
