package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/KuramitsuLab/ModelVistaPlus/internal/review"
	"github.com/KuramitsuLab/ModelVistaPlus/internal/session"

	"github.com/go-chi/chi/v5"
)

type navResponse struct {
	View      review.View `json:"view"`
	Finished  bool        `json:"finished,omitempty"`
	Remaining int         `json:"remaining,omitempty"`
	Message   string      `json:"message,omitempty"`
}

// OpenSessionHandler loads a question set, restores persisted decisions,
// and positions the session at the first question.
func OpenSessionHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		folder := chi.URLParam(r, "folder")
		file := chi.URLParam(r, "file")
		view, err := mgr.Open(r.Context(), folder, file)
		if err != nil {
			http.Error(w, err.Error(), loadErrorStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(navResponse{View: view})
	}
}

// DecideHandler records an approve/reject verdict for the session's
// current question and mirrors it into the durable store.
func DecideHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Decision review.Verdict `json:"decision"`
			Remarks  string         `json:"remarks"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.Decision != review.VerdictApproved && req.Decision != review.VerdictRejected {
			http.Error(w, "decision must be approved or rejected", 400)
			return
		}
		view, err := mgr.Decide(r.Context(), chi.URLParam(r, "folder"), chi.URLParam(r, "file"), req.Decision, req.Remarks)
		if err != nil {
			http.Error(w, err.Error(), storeErrorStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(navResponse{View: view})
	}
}

// RemarksHandler rewrites the remarks of the current, already-decided
// question.
func RemarksHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Remarks string `json:"remarks"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		view, err := mgr.SetRemarks(r.Context(), chi.URLParam(r, "folder"), chi.URLParam(r, "file"), req.Remarks)
		if err != nil {
			if errors.Is(err, review.ErrDecisionRequired) {
				http.Error(w, err.Error(), 422)
				return
			}
			http.Error(w, err.Error(), storeErrorStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(navResponse{View: view})
	}
}

// AdvanceHandler moves the session forward or backward. Finishing with
// everything reviewed reports finished; gating failures are validation
// responses, not server errors.
func AdvanceHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Delta int `json:"delta"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		view, err := mgr.Advance(r.Context(), chi.URLParam(r, "folder"), chi.URLParam(r, "file"), req.Delta)
		switch {
		case err == nil:
			_ = json.NewEncoder(w).Encode(navResponse{View: view})
		case errors.Is(err, review.ErrReviewComplete):
			_ = json.NewEncoder(w).Encode(navResponse{View: view, Finished: true, Message: "all questions reviewed"})
		default:
			var oe *review.OutstandingError
			if errors.As(err, &oe) {
				w.WriteHeader(422)
				_ = json.NewEncoder(w).Encode(navResponse{View: view, Remaining: oe.Remaining, Message: err.Error()})
				return
			}
			if errors.Is(err, review.ErrDecisionRequired) {
				http.Error(w, err.Error(), 422)
				return
			}
			http.Error(w, err.Error(), 400)
		}
	}
}

// GotoHandler jumps to a question index.
func GotoHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Index int `json:"index"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		view, err := mgr.Goto(r.Context(), chi.URLParam(r, "folder"), chi.URLParam(r, "file"), req.Index)
		if err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		_ = json.NewEncoder(w).Encode(navResponse{View: view})
	}
}

func storeErrorStatus(err error) int {
	if errors.Is(err, review.ErrStoreWrite) {
		return 500
	}
	return 400
}
