package loader_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KuramitsuLab/ModelVistaPlus/internal/loader"
	"github.com/KuramitsuLab/ModelVistaPlus/internal/storage"
)

func modelTree(t *testing.T, files map[string]string) *loader.Loader {
	t.Helper()
	base := t.TempDir()
	for name, content := range files {
		path := filepath.Join(base, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	bs, err := storage.NewFSStore(base)
	if err != nil {
		t.Fatal(err)
	}
	return loader.New(bs)
}

const validSet = `[
  {"tag": "usecase", "question": "q1", "choice": ["a", "b", "c", "d"]},
  {"tag": "usecase", "question": "q2", "choice": ["a", "b", "c", "d"], "authored_by": "gpt", "is_translated": true}
]`

func TestLoadValidSet(t *testing.T) {
	l := modelTree(t, map[string]string{"usecase001/qa_new_ja.json": validSet})
	qs, err := l.Load("usecase001", "qa_new_ja.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("len = %d", len(qs))
	}
	if qs[1].AuthoredBy != "gpt" || !qs[1].IsTranslated {
		t.Fatalf("metadata lost: %+v", qs[1])
	}
	if qs[0].Choice[0] != "a" {
		t.Fatalf("choice order must be preserved: %v", qs[0].Choice)
	}
}

func TestLoadRejectsBadSchema(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing tag", `[{"question": "q", "choice": ["a","b","c","d"]}]`},
		{"missing question", `[{"tag": "t", "choice": ["a","b","c","d"]}]`},
		{"missing choice", `[{"tag": "t", "question": "q"}]`},
		{"three choices", `[{"tag": "t", "question": "q", "choice": ["a","b","c"]}]`},
		{"five choices", `[{"tag": "t", "question": "q", "choice": ["a","b","c","d","e"]}]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := modelTree(t, map[string]string{"f/qa_new_ja.json": tc.body})
			_, err := l.Load("f", "qa_new_ja.json")
			var se *loader.SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("err = %v, want SchemaError", err)
			}
			if se.Index != 1 {
				t.Fatalf("index = %d, want 1-based position", se.Index)
			}
		})
	}
}

func TestLoadReportsOffendingPosition(t *testing.T) {
	body := `[
	  {"tag": "t", "question": "q", "choice": ["a","b","c","d"]},
	  {"tag": "t", "question": "q", "choice": ["a","b","c","d"]},
	  {"tag": "t", "question": "q", "choice": ["a"]}
	]`
	l := modelTree(t, map[string]string{"f/qa_new_ja.json": body})
	_, err := l.Load("f", "qa_new_ja.json")
	var se *loader.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v", err)
	}
	if se.Index != 3 {
		t.Fatalf("index = %d, want 3", se.Index)
	}
}

func TestLoadMissingFile(t *testing.T) {
	l := modelTree(t, nil)
	_, err := l.Load("nowhere", "qa_new_ja.json")
	var nf *loader.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestLoadRejectsUnknownFileName(t *testing.T) {
	l := modelTree(t, map[string]string{"f/other.json": validSet})
	if _, err := l.Load("f", "other.json"); err == nil {
		t.Fatal("unknown file name must be rejected")
	}
}

func TestDetectFiles(t *testing.T) {
	l := modelTree(t, map[string]string{
		"f/qa_new_ja.json":  validSet,
		"f/qa_new_ja2.json": validSet,
		"g/qa_new_ja2.json": validSet,
	})
	files, err := l.DetectFiles("f")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || files[0] != "qa_new_ja.json" || files[1] != "qa_new_ja2.json" {
		t.Fatalf("files = %v", files)
	}
	files, err = l.DetectFiles("g")
	if err != nil || len(files) != 1 || files[0] != "qa_new_ja2.json" {
		t.Fatalf("files = %v err = %v", files, err)
	}
	files, err = l.DetectFiles("empty")
	if err != nil || len(files) != 0 {
		t.Fatalf("files = %v err = %v", files, err)
	}
}

func TestIsReviewedMarker(t *testing.T) {
	l := modelTree(t, map[string]string{
		"f/qa_new_ja.json":           validSet,
		"f/qa_new_ja_approved.json":  "[]",
		"f/qa_new_ja2.json":          validSet,
	})
	reviewed, err := l.IsReviewed("f", "qa_new_ja.json")
	if err != nil || !reviewed {
		t.Fatalf("reviewed = %v err = %v, marker exists", reviewed, err)
	}
	// The marker is per source file: qa_new_ja2 has no approved sibling.
	reviewed, err = l.IsReviewed("f", "qa_new_ja2.json")
	if err != nil || reviewed {
		t.Fatalf("reviewed = %v err = %v, no marker", reviewed, err)
	}
}

func TestHasImage(t *testing.T) {
	l := modelTree(t, map[string]string{
		"f/qa_new_ja.json":          validSet,
		"f/dgpowerpoint_ja-fs8.png": "png-bytes",
		"g/qa_new_ja.json":          validSet,
	})
	ok, err := l.HasImage("f")
	if err != nil || !ok {
		t.Fatalf("hasImage(f) = %v err = %v", ok, err)
	}
	ok, err = l.HasImage("g")
	if err != nil || ok {
		t.Fatalf("hasImage(g) = %v err = %v, absence is non-fatal", ok, err)
	}
}

func TestFolders(t *testing.T) {
	l := modelTree(t, map[string]string{
		"usecase001/qa_new_ja.json": validSet,
		"activity002/qa_new_ja.json": validSet,
	})
	folders, err := l.Folders()
	if err != nil {
		t.Fatal(err)
	}
	if len(folders) != 2 || folders[0] != "activity002" || folders[1] != "usecase001" {
		t.Fatalf("folders = %v, want sorted", folders)
	}
}

func TestDerivedFileNames(t *testing.T) {
	if got := loader.ApprovedFileName("qa_new_ja.json"); got != "qa_new_ja_approved.json" {
		t.Fatalf("approved name = %q", got)
	}
	if got := loader.RejectedFileName("qa_new_ja2.json"); got != "qa_new_ja2_rejected.json" {
		t.Fatalf("rejected name = %q", got)
	}
}
