package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/KuramitsuLab/ModelVistaPlus/internal/export"
	"github.com/KuramitsuLab/ModelVistaPlus/internal/session"
	"github.com/KuramitsuLab/ModelVistaPlus/internal/storage"

	"github.com/go-chi/chi/v5"
)

// ExportHandler runs the export/merge engine for one reviewed file. The
// browser's confirm dialog crosses the API as the confirmed flag: an
// unconfirmed request returns the summary for the dialog, a confirmed one
// performs the writes.
func ExportHandler(mgr *session.Manager, eng *export.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Confirmed bool `json:"confirmed"`
		}
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "bad json", 400)
				return
			}
		}
		folder := chi.URLParam(r, "folder")
		file := chi.URLParam(r, "file")

		s, err := mgr.Session(r.Context(), folder, file)
		if err != nil {
			http.Error(w, err.Error(), loadErrorStatus(err))
			return
		}

		if ok, reasons := export.CheckExportable(s); !ok {
			w.WriteHeader(422)
			_ = json.NewEncoder(w).Encode(map[string]any{"errors": reasons})
			return
		}

		if !req.Confirmed {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"requiresConfirmation": true,
				"summary":              export.BuildSummary(s),
			})
			return
		}

		run := *eng
		run.Confirm = func(export.Summary) bool { return req.Confirmed }
		res, err := run.Export(r.Context(), s)
		if err != nil {
			var se *export.StepError
			if errors.As(err, &se) {
				w.WriteHeader(502)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error":      se.Error(),
					"step":       se.Step,
					"filename":   se.Filename,
					"savedFiles": res.SavedFiles,
				})
				return
			}
			var ne *export.NotExportableError
			if errors.As(err, &ne) {
				w.WriteHeader(422)
				_ = json.NewEncoder(w).Encode(map[string]any{"errors": ne.Reasons})
				return
			}
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(res)
	}
}

// SaveJSONHandler is the raw "store this JSON blob" endpoint: the body
// carries the pre-serialized data plus its destination. The folder must
// already exist in the model tree. data must be present but may be an
// empty string, which saves an empty file.
func SaveJSONHandler(bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FolderName string  `json:"folderName"`
			Filename   string  `json:"filename"`
			Data       *string `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.FolderName == "" || req.Filename == "" || req.Data == nil {
			http.Error(w, "folderName, filename and data required", 400)
			return
		}
		ok, err := bs.Exists(req.FolderName)
		if err != nil {
			if errors.Is(err, storage.ErrInvalidKey) {
				http.Error(w, err.Error(), 400)
				return
			}
			http.Error(w, err.Error(), 500)
			return
		}
		if !ok {
			http.Error(w, "folder not found: "+req.FolderName, 404)
			return
		}
		key := req.FolderName + "/" + req.Filename
		if _, err := bs.Put(key, strings.NewReader(*req.Data)); err != nil {
			if errors.Is(err, storage.ErrInvalidKey) {
				http.Error(w, err.Error(), 400)
				return
			}
			http.Error(w, "store error: "+err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"message": "File saved: " + key,
			"path":    key,
		})
	}
}
