package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/KuramitsuLab/ModelVistaPlus/internal/loader"
	"github.com/KuramitsuLab/ModelVistaPlus/internal/review"

	"github.com/go-chi/chi/v5"
)

// GetReviewerHandler returns the global reviewer-name slot.
func GetReviewerHandler(store review.StateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := store.ReviewerName(r.Context())
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"reviewerName": name})
	}
}

// PutReviewerHandler updates the global reviewer-name slot.
func PutReviewerHandler(store review.StateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ReviewerName string `json:"reviewerName"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if err := store.SaveReviewerName(r.Context(), req.ReviewerName); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"reviewerName": req.ReviewerName})
	}
}

// FoldersHandler lists the model folders available for review.
func FoldersHandler(ldr *loader.Loader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		folders, err := ldr.Folders()
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if folders == nil {
			folders = []string{}
		}
		_ = json.NewEncoder(w).Encode(map[string][]string{"folders": folders})
	}
}

type fileInfo struct {
	Name     string `json:"name"`
	Reviewed bool   `json:"reviewed"`
}

// FilesHandler reports which question-set files a folder holds, whether
// each already has an approved output, and whether the reference image is
// present.
func FilesHandler(ldr *loader.Loader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		folder := chi.URLParam(r, "folder")
		names, err := ldr.DetectFiles(folder)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if len(names) == 0 {
			http.Error(w, "no question files found", 404)
			return
		}
		files := make([]fileInfo, 0, len(names))
		for _, name := range names {
			reviewed, err := ldr.IsReviewed(folder, name)
			if err != nil {
				http.Error(w, err.Error(), 500)
				return
			}
			files = append(files, fileInfo{Name: name, Reviewed: reviewed})
		}
		hasImage, err := ldr.HasImage(folder)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"folder":   folder,
			"files":    files,
			"hasImage": hasImage,
		})
	}
}

// GetFileHandler returns one validated question set together with any
// persisted review state, so a client can restore where it left off in a
// single request.
func GetFileHandler(ldr *loader.Loader, store review.StateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		folder := chi.URLParam(r, "folder")
		file := chi.URLParam(r, "file")
		questions, err := ldr.Load(folder, file)
		if err != nil {
			http.Error(w, err.Error(), loadErrorStatus(err))
			return
		}
		st, ok, err := store.LoadState(r.Context(), folder, file)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		resp := map[string]any{
			"folder":    folder,
			"file":      file,
			"questions": questions,
		}
		if ok {
			resp["state"] = st
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// GetStateHandler returns the persisted review state for a (folder, file)
// pair, 404 when none is stored.
func GetStateHandler(store review.StateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		folder := chi.URLParam(r, "folder")
		file := chi.URLParam(r, "file")
		st, ok, err := store.LoadState(r.Context(), folder, file)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if !ok {
			http.Error(w, "no review state", 404)
			return
		}
		_ = json.NewEncoder(w).Encode(st)
	}
}

// PutStateHandler persists one (folder, file) review map, overwriting any
// prior entry for the derived key.
func PutStateHandler(store review.StateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ReviewerName string           `json:"reviewerName"`
			Reviews      review.ReviewMap `json:"reviews"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		st := review.State{
			ReviewerName: req.ReviewerName,
			FolderName:   chi.URLParam(r, "folder"),
			FileName:     chi.URLParam(r, "file"),
			Reviews:      req.Reviews,
		}
		if err := store.SaveState(r.Context(), st); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		w.WriteHeader(204)
	}
}

// CleanupStateHandler deletes review states older than maxAgeDays (query
// param, default defaultMaxAgeDays) plus any state that no longer decodes.
func CleanupStateHandler(store review.StateStore, defaultMaxAgeDays int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := defaultMaxAgeDays
		if v := r.URL.Query().Get("maxAgeDays"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				http.Error(w, "maxAgeDays must be a non-negative integer", 400)
				return
			}
			days = n
		}
		deleted, err := store.Cleanup(r.Context(), time.Duration(days)*24*time.Hour)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]int{"deleted": deleted})
	}
}

// StateSizeHandler reports the store's capacity diagnostics.
func StateSizeHandler(store review.StateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := store.SizeInfo(r.Context())
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(info)
	}
}

// loadErrorStatus maps open/load failures onto HTTP statuses: absent files
// are 404, schema violations and bad names are 400, and anything else
// (store reads, unreadable content) is a server error.
func loadErrorStatus(err error) int {
	var nf *loader.NotFoundError
	var se *loader.SchemaError
	switch {
	case errors.As(err, &nf):
		return 404
	case errors.As(err, &se), errors.Is(err, loader.ErrInvalidName):
		return 400
	default:
		return 500
	}
}
