package organization

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
)

type ServiceAPI interface {
	Create(ctx context.Context, actorID string, dto CreateOrganizationDTO) (*Organization, error)
	Get(ctx context.Context, orgID, actorID string) (*Organization, error)
	ListMine(ctx context.Context, actorID string) ([]*Organization, error)
	Search(ctx context.Context, query string) ([]*Organization, error)
	Update(ctx context.Context, orgID, actorID string, dto UpdateOrganizationDTO) (*Organization, error)
	Delete(ctx context.Context, orgID, actorID string) error
	TransferOwnership(ctx context.Context, orgID, actorID string, dto TransferOwnershipDTO) error
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

func (h *Handler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateOrganizationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	org, err := h.Service.Create(r.Context(), userID, dto)
	if err != nil {
		h.Logger.Error("CreateOrganization: service error", "error", err, "user_id", userID)
		h.handleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, org)
}

func (h *Handler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orgID := chi.URLParam(r, "orgID")
	org, err := h.Service.Get(r.Context(), orgID, userID)
	if err != nil {
		h.Logger.Error("GetOrganization: service error", "error", err, "organization_id", orgID)
		h.handleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, org)
}

func (h *Handler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if query := r.URL.Query().Get("search"); query != "" {
		orgs, err := h.Service.Search(r.Context(), query)
		if err != nil {
			h.Logger.Error("ListOrganizations: search error", "error", err, "query", query)
			h.handleServiceError(w, err)
			return
		}
		h.WriteJSON(w, http.StatusOK, map[string]interface{}{"organizations": orgs})
		return
	}

	orgs, err := h.Service.ListMine(r.Context(), userID)
	if err != nil {
		h.Logger.Error("ListOrganizations: service error", "error", err, "user_id", userID)
		h.handleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"organizations": orgs})
}

func (h *Handler) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orgID := chi.URLParam(r, "orgID")

	var dto UpdateOrganizationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	org, err := h.Service.Update(r.Context(), orgID, userID, dto)
	if err != nil {
		h.Logger.Error("UpdateOrganization: service error", "error", err, "organization_id", orgID)
		h.handleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, org)
}

func (h *Handler) DeleteOrganization(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orgID := chi.URLParam(r, "orgID")
	if err := h.Service.Delete(r.Context(), orgID, userID); err != nil {
		h.Logger.Error("DeleteOrganization: service error", "error", err, "organization_id", orgID)
		h.handleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *Handler) TransferOwnership(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orgID := chi.URLParam(r, "orgID")

	var dto TransferOwnershipDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.TransferOwnership(r.Context(), orgID, userID, dto); err != nil {
		h.Logger.Error("TransferOwnership: service error", "error", err,
			"organization_id", orgID, "actor_id", userID, "new_owner_id", dto.NewOwnerID)
		h.handleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch err {
	case ErrOrganizationNotFound:
		h.WriteAppError(w, internal.NewNotFoundError("organization not found", internal.ErrCodeOrganizationNotFound))
	case ErrNotOwner:
		h.WriteAppError(w, internal.NewForbiddenError("only the organization owner can perform this action", internal.ErrCodeOwnerOnly))
	case ErrNewOwnerNotMember:
		h.WriteAppError(w, internal.NewValidationError("new owner must be a member of the organization", internal.ErrCodeNewOwnerNotMember))
	case ErrTransferToSelf:
		h.WriteAppError(w, internal.NewValidationError("ownership is already held by this user", internal.ErrCodeSelfTargetForbidden))
	case membership.ErrNotAMember:
		h.WriteAppError(w, internal.NewForbiddenError("you are not a member of this organization", internal.ErrCodeNotAMember))
	case membership.ErrInsufficientRole:
		h.WriteAppError(w, internal.NewForbiddenError("insufficient permissions", internal.ErrCodeInsufficientRole))
	case membership.ErrOwnerOnly:
		h.WriteAppError(w, internal.NewForbiddenError("only the organization owner can perform this action", internal.ErrCodeOwnerOnly))
	default:
		h.WriteAppError(w, internal.NewInternalError("something went wrong, please try again", err))
	}
}
