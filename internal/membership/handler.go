package membership

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/orgfinance/internal"
	"github.com/frahmantamala/orgfinance/internal/transport"
	"github.com/frahmantamala/orgfinance/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	ListMembers(ctx context.Context, organizationID, actorID string) ([]*MemberView, error)
	UpdateRole(ctx context.Context, organizationID, actorID string, dto UpdateRoleDTO) error
	Deactivate(ctx context.Context, organizationID, actorID string, dto TargetMemberDTO) error
	Reactivate(ctx context.Context, organizationID, actorID string, dto TargetMemberDTO) error
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

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orgID := chi.URLParam(r, "orgID")
	members, err := h.Service.ListMembers(r.Context(), orgID, userID)
	if err != nil {
		h.Logger.Error("ListMembers: service error", "error", err, "organization_id", orgID, "user_id", userID)
		h.handleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"members": members})
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orgID := chi.URLParam(r, "orgID")

	var dto UpdateRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.UpdateRole(r.Context(), orgID, userID, dto); err != nil {
		h.Logger.Error("UpdateRole: service error", "error", err,
			"organization_id", orgID, "actor_id", userID, "target_user_id", dto.TargetUserID)
		h.handleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *Handler) DeactivateMember(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orgID := chi.URLParam(r, "orgID")

	var dto TargetMemberDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.Deactivate(r.Context(), orgID, userID, dto); err != nil {
		h.Logger.Error("DeactivateMember: service error", "error", err,
			"organization_id", orgID, "actor_id", userID, "target_user_id", dto.TargetUserID)
		h.handleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *Handler) ReactivateMember(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orgID := chi.URLParam(r, "orgID")

	var dto TargetMemberDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.Reactivate(r.Context(), orgID, userID, dto); err != nil {
		h.Logger.Error("ReactivateMember: service error", "error", err,
			"organization_id", orgID, "actor_id", userID, "target_user_id", dto.TargetUserID)
		h.handleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch err {
	case ErrNotAMember:
		h.WriteAppError(w, internal.NewForbiddenError("you are not a member of this organization", internal.ErrCodeNotAMember))
	case ErrInsufficientRole:
		h.WriteAppError(w, internal.NewForbiddenError("insufficient permissions", internal.ErrCodeInsufficientRole))
	case ErrOwnerOnly:
		h.WriteAppError(w, internal.NewForbiddenError("only the organization owner can perform this action", internal.ErrCodeOwnerOnly))
	case ErrCannotTargetSelf:
		h.WriteAppError(w, internal.NewForbiddenError("you cannot perform this action on yourself", internal.ErrCodeSelfTargetForbidden))
	case ErrOwnerImmutable:
		h.WriteAppError(w, internal.NewForbiddenError("owner role can only change via ownership transfer", internal.ErrCodeOwnerImmutable))
	case ErrMemberNotFound:
		h.WriteAppError(w, internal.NewNotFoundError("member not found", internal.ErrCodeMemberNotFound))
	case ErrMemberInactive:
		h.WriteAppError(w, internal.NewValidationError("member is already inactive", internal.ErrCodeMemberInactive))
	case ErrMemberAlreadyActive:
		h.WriteAppError(w, internal.NewValidationError("member is already active", internal.ErrCodeMemberAlreadyActive))
	default:
		h.WriteAppError(w, internal.NewInternalError("something went wrong, please try again", err))
	}
}
