package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/KuramitsuLab/ModelVistaPlus/internal/api/http"
	"github.com/KuramitsuLab/ModelVistaPlus/internal/audit"
	"github.com/KuramitsuLab/ModelVistaPlus/internal/config"
	"github.com/KuramitsuLab/ModelVistaPlus/internal/db"
	"github.com/KuramitsuLab/ModelVistaPlus/internal/export"
	"github.com/KuramitsuLab/ModelVistaPlus/internal/loader"
	"github.com/KuramitsuLab/ModelVistaPlus/internal/review"
	"github.com/KuramitsuLab/ModelVistaPlus/internal/session"
	"github.com/KuramitsuLab/ModelVistaPlus/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := review.NewSQLStore(dbh, cfg.DBDriver)

	// --- Model tree ---
	bs, err := storage.NewFSStore(cfg.ModelBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}
	ldr := loader.New(bs)
	mgr := session.NewManager(store, ldr)

	eng := export.NewEngine(bs)
	eng.Events = audit.NewEventRepo(dbh)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Route("/api", func(ar chi.Router) {
		ar.Get("/reviewer", api.GetReviewerHandler(store))
		ar.Put("/reviewer", api.PutReviewerHandler(store))

		ar.Get("/folders", api.FoldersHandler(ldr))
		ar.Get("/folders/{folder}/files", api.FilesHandler(ldr))
		ar.Get("/folders/{folder}/files/{file}", api.GetFileHandler(ldr, store))

		ar.Get("/state/size", api.StateSizeHandler(store))
		ar.Delete("/state", api.CleanupStateHandler(store, cfg.CleanupMaxAgeDays))
		ar.Get("/state/{folder}/{file}", api.GetStateHandler(store))
		ar.Put("/state/{folder}/{file}", api.PutStateHandler(store))

		ar.Route("/session/{folder}/{file}", func(sr chi.Router) {
			sr.Post("/open", api.OpenSessionHandler(mgr))
			sr.Post("/decide", api.DecideHandler(mgr))
			sr.Post("/remarks", api.RemarksHandler(mgr))
			sr.Post("/advance", api.AdvanceHandler(mgr))
			sr.Post("/goto", api.GotoHandler(mgr))
		})

		ar.Post("/export/{folder}/{file}", api.ExportHandler(mgr, eng))
	})

	// server.py parity: raw JSON save + static model tree.
	r.Post("/save-json", api.SaveJSONHandler(bs))
	r.Route("/model", func(mr chi.Router) {
		api.MountModelFiles(mr, bs)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s, model=%s)", cfg.HTTPAddr, cfg.DBDriver, cfg.ModelBasePath)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
