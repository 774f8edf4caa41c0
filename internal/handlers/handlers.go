package handlers

import (
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/gratten/runlog/internal/mock"
	"github.com/gratten/runlog/internal/models"
	"github.com/gratten/runlog/internal/stats"
	"github.com/gratten/runlog/internal/store"
	"github.com/gratten/runlog/internal/utils"
)

//go:embed web
var webFS embed.FS

// staticFS is the embedded page with the web/ prefix stripped.
var staticFS = func() fs.FS {
	sub, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(err)
	}
	return sub
}()

// maxUploadBytes caps FIT uploads; activity files are rarely above a few MB.
const maxUploadBytes = 32 << 20

// Handler serves the JSON API and the static page.
type Handler struct {
	store        *store.Store
	gen          *mock.Generator
	logger       *zap.Logger
	opts         stats.Options
	longRunMiles float64
	now          func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the request and error logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithStatsOptions sets the trend length and recent-runs limit.
func WithStatsOptions(opts stats.Options) Option {
	return func(h *Handler) { h.opts = opts }
}

// WithLongRunMiles sets the distance at which imported runs count as long.
func WithLongRunMiles(miles float64) Option {
	return func(h *Handler) { h.longRunMiles = miles }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler builds a Handler over the run store and demo data generator.
func NewHandler(s *store.Store, gen *mock.Generator, opts ...Option) *Handler {
	h := &Handler{
		store:        s,
		gen:          gen,
		logger:       zap.NewNop(),
		opts:         stats.Options{Weeks: stats.DefaultWeeks, RecentLimit: stats.DefaultRecentLimit},
		longRunMiles: 10,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router wires every route behind the recovery and request-logging
// middleware.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(h.withLoggingAndRecovery)

	r.Get("/health", h.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/runs", h.listRuns)
		r.Post("/runs", h.createRun)
		r.Delete("/runs/{id}", h.deleteRun)
		r.Get("/stats", h.getStats)
		r.Post("/seed", h.seed)
		r.Post("/import", h.importFIT)
	})

	r.Handle("/*", http.FileServer(http.FS(staticFS)))
	return r
}

func (h *Handler) withLoggingAndRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h.logger.Error("panic recovered", zap.Any("panic", err), zap.String("path", r.URL.Path))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		h.logger.Debug("request", zap.String("method", r.Method), zap.String("path", r.URL.Path))
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := h.opts.RecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, stats.RecentRuns(h.store.Snapshot(), limit))
}

func (h *Handler) createRun(w http.ResponseWriter, r *http.Request) {
	var in models.RunInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	run, _, err := h.store.Create(r.Context(), in, h.now())
	if errors.Is(err, store.ErrInvalidRun) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed to persist new run", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save run")
		return
	}
	writeJSON(w, http.StatusCreated, run)
}

func (h *Handler) deleteRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.Remove(r.Context(), id); err != nil {
		h.logger.Error("failed to persist delete", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete run")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stats.Summarize(h.store.Snapshot(), h.now(), h.opts))
}

// seed replaces the log with generated demo runs.
func (h *Handler) seed(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.Replace(r.Context(), h.gen.Generate(h.now()))
	if err != nil {
		h.logger.Error("failed to persist demo runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save demo runs")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"runs": len(runs)})
}

func (h *Handler) importFIT(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	imported, err := utils.ParseFIT(file, h.longRunMiles)
	if err != nil {
		h.logger.Warn("FIT import rejected", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	runs := make([]models.Run, 0, len(imported))
	for _, im := range imported {
		runs = append(runs, store.NewRun(im.Input, im.Start))
	}
	if _, err := h.store.AddAll(r.Context(), runs); err != nil {
		h.logger.Error("failed to persist imported runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save imported runs")
		return
	}
	writeJSON(w, http.StatusCreated, runs)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
