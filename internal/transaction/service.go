package transaction

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/orgfinance/internal/core/events"
	"github.com/frahmantamala/orgfinance/internal/membership"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository defines the data access methods for ledger rows.
type Repository interface {
	Create(ctx context.Context, tx *Transaction) error
	GetByID(ctx context.Context, id string) (*Transaction, error)
	Update(ctx context.Context, tx *Transaction) error
	Delete(ctx context.Context, id string) error
	ListByOrganization(ctx context.Context, organizationID string) ([]*Transaction, error)
	List(ctx context.Context, organizationID string, filters ListFilters) ([]*Transaction, string, error)
	SumPersonalContributions(ctx context.Context, organizationID, memberID string) (decimal.Decimal, error)
}

// PermissionGate resolves roles for authorization checks.
type PermissionGate interface {
	Authorize(ctx context.Context, organizationID, userID string, required membership.Role) error
	RequireOwner(ctx context.Context, organizationID, userID string) error
}

// CategoryResolver canonicalizes free-form category names, folding typos
// into existing categories.
type CategoryResolver interface {
	Resolve(ctx context.Context, organizationID, name string) (string, error)
}

type Service struct {
	repo       Repository
	gate       PermissionGate
	categories CategoryResolver
	bus        *events.EventBus
	logger     *slog.Logger
}

func NewService(repo Repository, gate PermissionGate, categories CategoryResolver, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		gate:       gate,
		categories: categories,
		bus:        bus,
		logger:     logger,
	}
}

// resolveCategory folds the raw category through the resolver. Resolution
// failures are logged and the raw value kept, so a category hiccup never
// blocks a ledger write.
func (s *Service) resolveCategory(ctx context.Context, orgID string, raw *string) *string {
	if raw == nil || s.categories == nil {
		return raw
	}
	resolved, err := s.categories.Resolve(ctx, orgID, *raw)
	if err != nil {
		s.logger.Warn("category resolution failed", "error", err, "organization_id", orgID)
		return raw
	}
	if resolved == "" {
		return raw
	}
	return &resolved
}

// holderOrRecorder attributes a row to the named member, falling back to
// whoever is recording it.
func holderOrRecorder(memberID *string, actorID string) *string {
	if memberID != nil && *memberID != "" {
		return memberID
	}
	return &actorID
}

// AddIncome records money coming in. Admins and the owner may write to the
// ledger; plain members are read-only. Income funding is always business and
// the holder defaults to the recorder, so incoming money raises someone's
// held balance.
func (s *Service) AddIncome(ctx context.Context, orgID, actorID string, dto AddIncomeDTO) (*Transaction, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, orgID, actorID, membership.RoleAdmin); err != nil {
		return nil, err
	}

	tx := s.newTransaction(orgID, actorID, TypeIncome, FundedByBusiness, dto.Amount, holderOrRecorder(dto.MemberID, actorID), s.resolveCategory(ctx, orgID, dto.Category), dto.Description, dto.OccurredAt, false)
	if err := s.repo.Create(ctx, tx); err != nil {
		s.logger.Error("failed to record income", "error", err, "organization_id", orgID)
		return nil, err
	}

	s.publishChange(ctx, tx, "created")
	return tx, nil
}

// AddExpense records a business or personal expense. The holder defaults to
// the recorder, so a personal expense with no explicit member still credits
// the person who paid.
func (s *Service) AddExpense(ctx context.Context, orgID, actorID string, dto AddExpenseDTO) (*Transaction, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, orgID, actorID, membership.RoleAdmin); err != nil {
		return nil, err
	}

	tx := s.newTransaction(orgID, actorID, dto.TransactionType(), dto.FundedBy, dto.Amount, holderOrRecorder(dto.MemberID, actorID), s.resolveCategory(ctx, orgID, dto.Category), dto.Description, dto.OccurredAt, false)
	if err := s.repo.Create(ctx, tx); err != nil {
		s.logger.Error("failed to record expense", "error", err, "organization_id", orgID)
		return nil, err
	}

	s.publishChange(ctx, tx, "created")
	return tx, nil
}

// AddInitial seeds an opening ledger row. Owner only, because initial rows
// set the starting point every balance is computed from.
func (s *Service) AddInitial(ctx context.Context, orgID, actorID string, dto AddInitialDTO) (*Transaction, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.gate.RequireOwner(ctx, orgID, actorID); err != nil {
		return nil, err
	}

	tx := s.newTransaction(orgID, actorID, dto.Type, dto.FundedBy, dto.Amount, dto.MemberID, s.resolveCategory(ctx, orgID, dto.Category), dto.Description, dto.OccurredAt, true)
	if err := s.repo.Create(ctx, tx); err != nil {
		s.logger.Error("failed to record initial transaction", "error", err, "organization_id", orgID)
		return nil, err
	}

	s.publishChange(ctx, tx, "created")
	return tx, nil
}

// Update edits a ledger row. Initial rows may only be edited by the owner
// and keep their type for good. Holdings adjustments are managed through
// the baseline endpoint, never edited row by row.
func (s *Service) Update(ctx context.Context, orgID, txID, actorID string, dto UpdateTransactionDTO) (*Transaction, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.getForWrite(ctx, orgID, txID, actorID)
	if err != nil {
		return nil, err
	}
	if tx.Type.IsBaseline() && !tx.IsInitial {
		return nil, ErrBaselineImmutable
	}
	if tx.IsInitial && dto.Type != tx.Type {
		return nil, ErrInitialTypeChange
	}

	tx.Type = dto.Type
	tx.FundedBy = dto.FundedBy
	tx.Amount = dto.Amount
	tx.MemberID = dto.MemberID
	tx.Category = s.resolveCategory(ctx, orgID, dto.Category)
	tx.Description = dto.Description
	tx.OccurredAt = dto.OccurredAt
	tx.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, tx); err != nil {
		s.logger.Error("failed to update transaction", "error", err, "transaction_id", txID)
		return nil, err
	}

	s.publishChange(ctx, tx, "updated")
	return tx, nil
}

// Delete removes a ledger row.
func (s *Service) Delete(ctx context.Context, orgID, txID, actorID string) error {
	tx, err := s.getForWrite(ctx, orgID, txID, actorID)
	if err != nil {
		return err
	}
	if tx.Type.IsBaseline() && !tx.IsInitial {
		return ErrBaselineImmutable
	}

	if err := s.repo.Delete(ctx, txID); err != nil {
		s.logger.Error("failed to delete transaction", "error", err, "transaction_id", txID)
		return err
	}

	s.publishChange(ctx, tx, "deleted")
	return nil
}

func (s *Service) Get(ctx context.Context, orgID, txID, actorID string) (*Transaction, error) {
	if err := s.gate.Authorize(ctx, orgID, actorID, membership.RoleMember); err != nil {
		return nil, err
	}
	tx, err := s.repo.GetByID(ctx, txID)
	if err != nil {
		return nil, err
	}
	if tx.OrganizationID != orgID {
		return nil, ErrTransactionNotFound
	}
	return tx, nil
}

// List pages through an organization's ledger, newest first.
func (s *Service) List(ctx context.Context, orgID, actorID string, filters ListFilters) ([]*Transaction, string, error) {
	if err := filters.Normalize(); err != nil {
		return nil, "", err
	}
	if err := s.gate.Authorize(ctx, orgID, actorID, membership.RoleMember); err != nil {
		return nil, "", err
	}
	return s.repo.List(ctx, orgID, filters)
}

// SumPersonalContributions totals a member's out-of-pocket expenses, used to
// cap reimbursements.
func (s *Service) SumPersonalContributions(ctx context.Context, orgID, memberID string) (decimal.Decimal, error) {
	return s.repo.SumPersonalContributions(ctx, orgID, memberID)
}

// getForWrite loads a row and applies the write permission rules: admin+ for
// ordinary rows, owner only for initial rows.
func (s *Service) getForWrite(ctx context.Context, orgID, txID, actorID string) (*Transaction, error) {
	if err := s.gate.Authorize(ctx, orgID, actorID, membership.RoleAdmin); err != nil {
		return nil, err
	}

	tx, err := s.repo.GetByID(ctx, txID)
	if err != nil {
		return nil, err
	}
	if tx.OrganizationID != orgID {
		return nil, ErrTransactionNotFound
	}
	if tx.IsInitial {
		if err := s.gate.RequireOwner(ctx, orgID, actorID); err != nil {
			return nil, err
		}
	}
	return tx, nil
}

func (s *Service) newTransaction(orgID, actorID string, txType Type, fundedBy string, amount decimal.Decimal, memberID, category, description *string, occurredAt time.Time, isInitial bool) *Transaction {
	now := time.Now()
	return &Transaction{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		MemberID:       memberID,
		Type:           txType,
		FundedBy:       fundedBy,
		Amount:         amount,
		Category:       category,
		Description:    description,
		OccurredAt:     occurredAt,
		IsInitial:      isInitial,
		CreatedBy:      actorID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *Service) publishChange(ctx context.Context, tx *Transaction, action string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.NewLedgerChangedEvent(tx.OrganizationID, tx.ID, string(tx.Type), action))
}
