package finance

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/orgfinance/internal"
	"github.com/frahmantamala/orgfinance/internal/membership"
	"github.com/frahmantamala/orgfinance/internal/organization"
	"github.com/frahmantamala/orgfinance/internal/transaction"
	"github.com/frahmantamala/orgfinance/internal/transport"
	"github.com/frahmantamala/orgfinance/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	OrganizationStats(ctx context.Context, orgID, actorID string) (*OrganizationStats, error)
	SetMemberBaseline(ctx context.Context, orgID, actorID string, dto SetBaselineDTO) (*transaction.Transaction, error)
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

func (h *Handler) GetOrganizationStats(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orgID := chi.URLParam(r, "orgID")
	stats, err := h.Service.OrganizationStats(r.Context(), orgID, userID)
	if err != nil {
		h.Logger.Error("GetOrganizationStats: service error", "error", err, "organization_id", orgID)
		h.handleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) SetMemberBaseline(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orgID := chi.URLParam(r, "orgID")

	var dto SetBaselineDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.Service.SetMemberBaseline(r.Context(), orgID, userID, dto)
	if err != nil {
		h.Logger.Error("SetMemberBaseline: service error", "error", err,
			"organization_id", orgID, "target_user_id", dto.TargetUserID)
		h.handleServiceError(w, err)
		return
	}

	resp := map[string]interface{}{"success": true, "changed": created != nil}
	if created != nil {
		resp["adjustment"] = created
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	if allocErr, ok := err.(*AllocationError); ok {
		h.WriteAppError(w, internal.NewInvariantError(allocErr.Error(), internal.ErrCodeAllocationExceedsCash).
			WithDetails(map[string]string{
				"total_allocated": allocErr.TotalAllocated.String(),
				"cash_on_hand":    allocErr.CashOnHand.String(),
			}))
		return
	}

	switch err {
	case ErrTargetNotMember:
		h.WriteAppError(w, internal.NewValidationError("target user is not an active member of this organization", internal.ErrCodeTargetNotMember))
	case organization.ErrOrganizationNotFound:
		h.WriteAppError(w, internal.NewNotFoundError("organization not found", internal.ErrCodeOrganizationNotFound))
	case membership.ErrNotAMember:
		h.WriteAppError(w, internal.NewForbiddenError("you are not a member of this organization", internal.ErrCodeNotAMember))
	case membership.ErrInsufficientRole:
		h.WriteAppError(w, internal.NewForbiddenError("insufficient permissions", internal.ErrCodeInsufficientRole))
	case membership.ErrOwnerOnly:
		h.WriteAppError(w, internal.NewForbiddenError("only the organization owner can set baselines", internal.ErrCodeOwnerOnly))
	default:
		h.WriteAppError(w, internal.NewInternalError("something went wrong, please try again", err))
	}
}
