package category

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/orgfinance/internal"
	"github.com/frahmantamala/orgfinance/internal/membership"
	"github.com/frahmantamala/orgfinance/internal/transport"
	"github.com/frahmantamala/orgfinance/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Search(ctx context.Context, orgID, actorID, prefix string) ([]*Category, error)
	TopCategories(ctx context.Context, orgID, actorID string, limit int) ([]*Category, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// SearchCategories suggests categories by prefix, falling back to the most
// used ones when nothing is typed yet.
func (h *Handler) SearchCategories(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orgID := chi.URLParam(r, "orgID")
	prefix := r.URL.Query().Get("q")

	if prefix == "" {
		limit := 10
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil {
				limit = parsed
			}
		}
		categories, err := h.Service.TopCategories(r.Context(), orgID, userID, limit)
		if err != nil {
			h.handleServiceError(w, err)
			return
		}
		h.WriteJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
		return
	}

	categories, err := h.Service.Search(r.Context(), orgID, userID, prefix)
	if err != nil {
		h.Logger.Error("SearchCategories: service error", "error", err, "organization_id", orgID)
		h.handleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch err {
	case ErrCategoryNotFound:
		h.WriteAppError(w, internal.NewNotFoundError("category not found", internal.ErrCodeCategoryNotFound))
	case membership.ErrNotAMember:
		h.WriteAppError(w, internal.NewForbiddenError("you are not a member of this organization", internal.ErrCodeNotAMember))
	case membership.ErrInsufficientRole:
		h.WriteAppError(w, internal.NewForbiddenError("insufficient permissions", internal.ErrCodeInsufficientRole))
	default:
		h.WriteAppError(w, internal.NewInternalError("something went wrong, please try again", err))
	}
}
