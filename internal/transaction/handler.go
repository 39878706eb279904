package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/orgfinance/internal"
	"github.com/frahmantamala/orgfinance/internal/membership"
	"github.com/frahmantamala/orgfinance/internal/transport"
	"github.com/frahmantamala/orgfinance/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	AddIncome(ctx context.Context, orgID, actorID string, dto AddIncomeDTO) (*Transaction, error)
	AddExpense(ctx context.Context, orgID, actorID string, dto AddExpenseDTO) (*Transaction, error)
	AddInitial(ctx context.Context, orgID, actorID string, dto AddInitialDTO) (*Transaction, error)
	Update(ctx context.Context, orgID, txID, actorID string, dto UpdateTransactionDTO) (*Transaction, error)
	Delete(ctx context.Context, orgID, txID, actorID string) error
	Get(ctx context.Context, orgID, txID, actorID string) (*Transaction, error)
	List(ctx context.Context, orgID, actorID string, filters ListFilters) ([]*Transaction, string, error)
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

func (h *Handler) AddIncome(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orgID := chi.URLParam(r, "orgID")

	var dto AddIncomeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := h.Service.AddIncome(r.Context(), orgID, userID, dto)
	if err != nil {
		h.Logger.Error("AddIncome: service error", "error", err, "organization_id", orgID)
		h.handleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, tx)
}

func (h *Handler) AddExpense(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orgID := chi.URLParam(r, "orgID")

	var dto AddExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := h.Service.AddExpense(r.Context(), orgID, userID, dto)
	if err != nil {
		h.Logger.Error("AddExpense: service error", "error", err, "organization_id", orgID)
		h.handleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, tx)
}

func (h *Handler) AddInitial(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orgID := chi.URLParam(r, "orgID")

	var dto AddInitialDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := h.Service.AddInitial(r.Context(), orgID, userID, dto)
	if err != nil {
		h.Logger.Error("AddInitial: service error", "error", err, "organization_id", orgID)
		h.handleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, tx)
}

func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orgID := chi.URLParam(r, "orgID")
	txID := chi.URLParam(r, "txID")

	var dto UpdateTransactionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := h.Service.Update(r.Context(), orgID, txID, userID, dto)
	if err != nil {
		h.Logger.Error("UpdateTransaction: service error", "error", err, "transaction_id", txID)
		h.handleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tx)
}

func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orgID := chi.URLParam(r, "orgID")
	txID := chi.URLParam(r, "txID")

	if err := h.Service.Delete(r.Context(), orgID, txID, userID); err != nil {
		h.Logger.Error("DeleteTransaction: service error", "error", err, "transaction_id", txID)
		h.handleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orgID := chi.URLParam(r, "orgID")
	txID := chi.URLParam(r, "txID")

	tx, err := h.Service.Get(r.Context(), orgID, txID, userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tx)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orgID := chi.URLParam(r, "orgID")

	filters, err := parseListFilters(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, nextCursor, err := h.Service.List(r.Context(), orgID, userID, filters)
	if err != nil {
		h.Logger.Error("ListTransactions: service error", "error", err, "organization_id", orgID)
		h.handleServiceError(w, err)
		return
	}

	resp := map[string]interface{}{"transactions": txs}
	if nextCursor != "" {
		resp["next_cursor"] = nextCursor
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func parseListFilters(r *http.Request) (ListFilters, error) {
	q := r.URL.Query()
	filters := ListFilters{
		MemberID: q.Get("member_id"),
		FundedBy: q.Get("funded_by"),
		Category: q.Get("category"),
		Search:   q.Get("q"),
		Cursor:   q.Get("cursor"),
	}

	if raw := q.Get("types"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			filters.Types = append(filters.Types, Type(strings.TrimSpace(part)))
		}
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return filters, errors.New("limit must be a number")
		}
		filters.Limit = limit
	}
	if raw := q.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, errInvalidTimeFilter("from")
		}
		filters.From = from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, errInvalidTimeFilter("to")
		}
		filters.To = to
	}
	return filters, nil
}

func errInvalidTimeFilter(field string) error {
	return fmt.Errorf("%s must be an RFC3339 timestamp", field)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch err {
	case ErrTransactionNotFound:
		h.WriteAppError(w, internal.NewNotFoundError("transaction not found", internal.ErrCodeTransactionNotFound))
	case ErrInvalidType:
		h.WriteAppError(w, internal.NewValidationError("invalid transaction type", internal.ErrCodeValidationFailed))
	case ErrInitialTypeChange:
		h.WriteAppError(w, internal.NewValidationError("the type of an initial transaction cannot be changed", internal.ErrCodeInitialTypeImmutable))
	case ErrBaselineImmutable:
		h.WriteAppError(w, internal.NewValidationError("holdings adjustments are managed through the baseline endpoint", internal.ErrCodeBaselineManaged))
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
