package ops

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/magnetarhq/portalcore/pkg/logger"
	"github.com/magnetarhq/portalcore/pkg/outbox"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Handler serves the dead-letter inspection and requeue endpoints.
type Handler struct {
	repo outbox.DeadLetterRepository
	log  *slog.Logger
}

// NewHandler builds the operational handler over the given repository.
func NewHandler(repo outbox.DeadLetterRepository, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{repo: repo, log: log}
}

// Handle mounts the operational routes:
//
//	GET  /dead-letters              list parked jobs (limit, offset)
//	POST /dead-letters/{id}/requeue put one back on the queue
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/dead-letters", h.list)
	r.Post("/dead-letters/{id}/requeue", h.requeue)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultListLimit)
	if limit < 1 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	letters, err := h.repo.ListDeadLetters(r.Context(), limit, offset)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to list dead letters",
			logger.Component("ops"),
			logger.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list dead letters"})
		return
	}

	if letters == nil {
		letters = []outbox.DeadLetter{}
	}
	writeJSON(w, http.StatusOK, listResponse{DeadLetters: letters, Limit: limit, Offset: offset})
}

func (h *Handler) requeue(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid dead letter id"})
		return
	}

	jobID, err := h.repo.RequeueDeadLetter(r.Context(), id)
	switch {
	case errors.Is(err, outbox.ErrDeadLetterNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "dead letter not found"})
		return
	case err != nil:
		h.log.ErrorContext(r.Context(), "failed to requeue dead letter",
			logger.Component("ops"),
			logger.JobID(id),
			logger.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to requeue dead letter"})
		return
	}

	h.log.InfoContext(r.Context(), "dead letter requeued",
		logger.Component("ops"),
		logger.Event("dead_letter_requeued"),
		logger.JobID(jobID),
	)
	writeJSON(w, http.StatusAccepted, requeueResponse{JobID: jobID})
}

type listResponse struct {
	DeadLetters []outbox.DeadLetter `json:"dead_letters"`
	Limit       int                 `json:"limit"`
	Offset      int                 `json:"offset"`
}

type requeueResponse struct {
	JobID uuid.UUID `json:"job_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
