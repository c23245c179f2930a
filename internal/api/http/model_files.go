package http

import (
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/KuramitsuLab/ModelVistaPlus/internal/storage"
)

// MountModelFiles serves the model tree read-only to the browser:
// question sets, reference images, and previously exported outputs.
func MountModelFiles(r chi.Router, bs storage.BlobStore) {
	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(req, "*"), "/")
		rc, err := bs.Get(key)
		if err != nil {
			http.Error(w, "not found: "+key, http.StatusNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", contentTypeFor(key))
		_, _ = io.Copy(w, rc)
	})
}

func contentTypeFor(key string) string {
	switch path.Ext(key) {
	case ".json":
		return "application/json; charset=utf-8"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
