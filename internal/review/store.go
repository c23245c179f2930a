package review

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrStoreWrite marks failures to durably persist review state (capacity,
// serialization, backend write errors). Callers keep their in-memory state
// authoritative and may retry.
var ErrStoreWrite = errors.New("review state write failed")

// State is the durably stored review state for one (folder, file) pair.
type State struct {
	ReviewerName string    `json:"reviewerName"`
	FolderName   string    `json:"folderName"`
	FileName     string    `json:"fileName"`
	LastModified time.Time `json:"lastModified"`
	Reviews      ReviewMap `json:"reviews"`
}

// SizeInfo is a capacity diagnostic over all stored review states.
type SizeInfo struct {
	Bytes int64 `json:"bytes"`
	Items int   `json:"items"`
}

// StateStore persists in-progress review state per (folder, file) pair plus
// a single global reviewer-name slot.
//
// LoadState treats corrupt (undecodable) stored state as absent rather than
// propagating it; Cleanup deletes such entries along with entries older than
// maxAge. Neither touches the reviewer-name slot.
type StateStore interface {
	SaveState(ctx context.Context, st State) error
	LoadState(ctx context.Context, folder, file string) (State, bool, error)
	SaveReviewerName(ctx context.Context, name string) error
	ReviewerName(ctx context.Context) (string, error)
	Cleanup(ctx context.Context, maxAge time.Duration) (int, error)
	SizeInfo(ctx context.Context) (SizeInfo, error)
}

// StorageKey derives the store key for a (folder, file) pair. The file's
// .json suffix is stripped so qa_new_ja.json and qa_new_ja share a key.
func StorageKey(folder, file string) string {
	base := strings.TrimSuffix(file, ".json")
	return "review_" + folder + "_" + base
}
