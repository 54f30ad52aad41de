package links

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/magnetarhq/portalcore/pkg/linktoken"
	"github.com/magnetarhq/portalcore/pkg/logger"
	"github.com/magnetarhq/portalcore/pkg/replay"
)

// Action performs the purpose-specific work for a redeemed link and returns
// the URL the client is redirected to afterwards.
type Action func(ctx context.Context, p linktoken.Payload) (string, error)

// Handler is the inbound redemption endpoint. It resolves the token from the
// URL, redeems it through the service, and dispatches to the action
// registered for the token's purpose.
type Handler struct {
	svc     *Service
	actions map[linktoken.Purpose]Action
	log     *slog.Logger
}

// NewHandler builds the redemption handler. Actions are fixed at
// construction time; an unregistered purpose at redemption time is a
// configuration error surfaced as a server error, never a panic.
func NewHandler(svc *Service, actions map[linktoken.Purpose]Action, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, actions: actions, log: log}
}

// Handle mounts the redemption route. Tokens appear as a single opaque path
// segment: GET /l/{token}.
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/l/{token}", h.redeem)
	return r
}

func (h *Handler) redeem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := chi.URLParam(r, "token")

	p, err := h.svc.Redeem(ctx, token)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	action, ok := h.actions[p.Purpose]
	if !ok {
		h.log.ErrorContext(ctx, "no action registered for redeemed purpose",
			logger.Component("links"),
			logger.Purpose(string(p.Purpose)),
		)
		http.Error(w, "Something went wrong. Please try again later.", http.StatusInternalServerError)
		return
	}

	dest, err := action(ctx, p)
	if err != nil {
		h.log.ErrorContext(ctx, "link action failed",
			logger.Component("links"),
			logger.Purpose(string(p.Purpose)),
			logger.Error(err),
		)
		http.Error(w, "Something went wrong. Please try again later.", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// renderError maps redemption failures to distinct user-facing messages.
// Expiry, tampering, and replay each get their own wording so support can
// tell them apart from user reports.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, linktoken.ErrExpired):
		http.Error(w, "This link has expired. Please request a new one.", http.StatusGone)
	case errors.Is(err, replay.ErrAlreadyUsed):
		http.Error(w, "This link has already been used.", http.StatusConflict)
	case errors.Is(err, replay.ErrGuardUnavailable):
		h.log.ErrorContext(r.Context(), "replay guard unavailable during redemption",
			logger.Component("links"),
			logger.Error(err),
		)
		http.Error(w, "Service temporarily unavailable. Please try again.", http.StatusServiceUnavailable)
	default:
		// Malformed tokens, bad signatures, and unknown purposes all read
		// the same to the client.
		http.Error(w, "This link is invalid.", http.StatusBadRequest)
	}
}
