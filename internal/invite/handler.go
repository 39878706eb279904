package invite

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
	Create(ctx context.Context, orgID, actorID string, dto CreateInviteDTO) (*InviteCode, error)
	ListActive(ctx context.Context, orgID, actorID string) ([]*InviteCode, error)
	Revoke(ctx context.Context, orgID, inviteID, actorID string) error
	Join(ctx context.Context, userID string, dto JoinDTO) (*membership.Membership, error)
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

// inviteResponse adds the human-friendly dashed form of the code.
type inviteResponse struct {
	*InviteCode
	DisplayCode string `json:"display_code"`
}

func toResponse(code *InviteCode) inviteResponse {
	return inviteResponse{InviteCode: code, DisplayCode: code.DisplayCode()}
}

func (h *Handler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orgID := chi.URLParam(r, "orgID")

	var dto CreateInviteDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	code, err := h.Service.Create(r.Context(), orgID, userID, dto)
	if err != nil {
		h.Logger.Error("CreateInvite: service error", "error", err, "organization_id", orgID)
		h.handleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, toResponse(code))
}

func (h *Handler) ListInvites(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orgID := chi.URLParam(r, "orgID")
	codes, err := h.Service.ListActive(r.Context(), orgID, userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	resp := make([]inviteResponse, 0, len(codes))
	for _, code := range codes {
		resp = append(resp, toResponse(code))
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"invites": resp})
}

func (h *Handler) RevokeInvite(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orgID := chi.URLParam(r, "orgID")
	inviteID := chi.URLParam(r, "inviteID")

	if err := h.Service.Revoke(r.Context(), orgID, inviteID, userID); err != nil {
		h.Logger.Error("RevokeInvite: service error", "error", err, "invite_id", inviteID)
		h.handleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto JoinDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	joined, err := h.Service.Join(r.Context(), userID, dto)
	if err != nil {
		h.Logger.Error("Join: service error", "error", err, "user_id", userID)
		h.handleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, joined)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch err {
	case ErrInviteNotFound:
		h.WriteAppError(w, internal.NewNotFoundError("invite code not found", internal.ErrCodeInviteNotFound))
	case ErrInviteRevoked:
		h.WriteAppError(w, internal.NewValidationError("invite code has been revoked", internal.ErrCodeInviteRevoked))
	case ErrInviteExhausted:
		h.WriteAppError(w, internal.NewValidationError("invite code has no uses left", internal.ErrCodeInviteExhausted))
	case ErrInviteExpired:
		h.WriteAppError(w, internal.NewValidationError("invite code has expired", internal.ErrCodeInviteExpired))
	case ErrAlreadyMember:
		h.WriteAppError(w, internal.NewConflictError("already an active member of this organization", internal.ErrCodeAlreadyMember))
	case membership.ErrNotAMember:
		h.WriteAppError(w, internal.NewForbiddenError("you are not a member of this organization", internal.ErrCodeNotAMember))
	case membership.ErrInsufficientRole:
		h.WriteAppError(w, internal.NewForbiddenError("insufficient permissions", internal.ErrCodeInsufficientRole))
	default:
		h.WriteAppError(w, internal.NewInternalError("something went wrong, please try again", err))
	}
}
