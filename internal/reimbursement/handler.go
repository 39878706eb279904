package reimbursement

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/orgfinance/internal"
	"github.com/frahmantamala/orgfinance/internal/membership"
	"github.com/frahmantamala/orgfinance/internal/transport"
	"github.com/frahmantamala/orgfinance/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"
)

type ServiceAPI interface {
	CreateRefund(ctx context.Context, orgID, actorID string, dto CreateRefundDTO) (*ReimbursementRequest, error)
	List(ctx context.Context, orgID, actorID string) ([]*ReimbursementRequest, error)
	ListForMember(ctx context.Context, orgID, actorID, memberID string) ([]*ReimbursementRequest, error)
	Outstanding(ctx context.Context, orgID, memberID string) (decimal.Decimal, error)
	DeleteRefund(ctx context.Context, orgID, refundID, actorID string) error
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

func (h *Handler) CreateRefund(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orgID := chi.URLParam(r, "orgID")

	var dto CreateRefundDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	req, err := h.Service.CreateRefund(r.Context(), orgID, userID, dto)
	if err != nil {
		h.Logger.Error("CreateRefund: service error", "error", err, "organization_id", orgID)
		h.handleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, req)
}

func (h *Handler) ListReimbursements(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orgID := chi.URLParam(r, "orgID")

	if memberID := r.URL.Query().Get("member_id"); memberID != "" {
		reqs, err := h.Service.ListForMember(r.Context(), orgID, userID, memberID)
		if err != nil {
			h.handleServiceError(w, err)
			return
		}
		h.WriteJSON(w, http.StatusOK, map[string]interface{}{"reimbursements": reqs})
		return
	}

	reqs, err := h.Service.List(r.Context(), orgID, userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"reimbursements": reqs})
}

func (h *Handler) DeleteRefund(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orgID := chi.URLParam(r, "orgID")
	refundID := chi.URLParam(r, "refundID")

	if err := h.Service.DeleteRefund(r.Context(), orgID, refundID, userID); err != nil {
		h.Logger.Error("DeleteRefund: service error", "error", err, "reimbursement_id", refundID)
		h.handleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch err {
	case ErrReimbursementNotFound:
		h.WriteAppError(w, internal.NewNotFoundError("reimbursement not found", internal.ErrCodeReimbursementNotFound))
	case ErrRefundExceedsOutstanding:
		h.WriteAppError(w, internal.NewInvariantError("refund exceeds the member's outstanding reimbursable amount", internal.ErrCodeRefundExceedsOutstanding))
	case membership.ErrNotAMember:
		h.WriteAppError(w, internal.NewForbiddenError("you are not a member of this organization", internal.ErrCodeNotAMember))
	case membership.ErrInsufficientRole:
		h.WriteAppError(w, internal.NewForbiddenError("insufficient permissions", internal.ErrCodeInsufficientRole))
	default:
		h.WriteAppError(w, internal.NewInternalError("something went wrong, please try again", err))
	}
}
