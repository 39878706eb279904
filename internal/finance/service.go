package finance

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/orgfinance/internal/core/events"
	"github.com/frahmantamala/orgfinance/internal/membership"
	"github.com/frahmantamala/orgfinance/internal/transaction"
	"github.com/shopspring/decimal"
)

// baselineEpsilon is the tolerance below which a baseline change is treated
// as a no-op instead of writing a dust-sized ledger row.
var baselineEpsilon = decimal.NewFromFloat(0.01)

// LedgerReader loads the full ledger for aggregation.
type LedgerReader interface {
	ListByOrganization(ctx context.Context, organizationID string) ([]*transaction.Transaction, error)
}

// MembershipReader loads membership rows for balance attribution.
type MembershipReader interface {
	ListByOrganization(ctx context.Context, organizationID string) ([]*membership.Membership, error)
	GetActive(ctx context.Context, organizationID, userID string) (*membership.Membership, error)
}

// ReimbursementReader supplies per-member paid reimbursement totals.
type ReimbursementReader interface {
	PaidByMember(ctx context.Context, organizationID string) (map[string]decimal.Decimal, error)
}

// BaselineRepository performs the locked set-baseline write. The whole
// read-validate-insert runs in one database transaction holding the
// organization row, so two concurrent calls serialize instead of racing
// past the allocation check.
type BaselineRepository interface {
	SetBaseline(ctx context.Context, organizationID, targetUserID, createdBy string, targetBaseline decimal.Decimal) (*transaction.Transaction, error)
}

// PermissionGate resolves roles for authorization checks.
type PermissionGate interface {
	Authorize(ctx context.Context, organizationID, userID string, required membership.Role) error
	RequireOwner(ctx context.Context, organizationID, userID string) error
}

type Service struct {
	ledger         LedgerReader
	members        MembershipReader
	reimbursements ReimbursementReader
	baselines      BaselineRepository
	gate           PermissionGate
	bus            *events.EventBus
	logger         *slog.Logger
}

func NewService(
	ledger LedgerReader,
	members MembershipReader,
	reimbursements ReimbursementReader,
	baselines BaselineRepository,
	gate PermissionGate,
	bus *events.EventBus,
	logger *slog.Logger,
) *Service {
	return &Service{
		ledger:         ledger,
		members:        members,
		reimbursements: reimbursements,
		baselines:      baselines,
		gate:           gate,
		bus:            bus,
		logger:         logger,
	}
}

// OrganizationStats recomputes the totals and every member balance from
// scratch. Any read failure fails the whole call; there is no partial
// result.
func (s *Service) OrganizationStats(ctx context.Context, orgID, actorID string) (*OrganizationStats, error) {
	if err := s.gate.Authorize(ctx, orgID, actorID, membership.RoleMember); err != nil {
		return nil, err
	}

	transactions, err := s.ledger.ListByOrganization(ctx, orgID)
	if err != nil {
		s.logger.Error("failed to load ledger for stats", "error", err, "organization_id", orgID)
		return nil, err
	}
	members, err := s.members.ListByOrganization(ctx, orgID)
	if err != nil {
		s.logger.Error("failed to load members for stats", "error", err, "organization_id", orgID)
		return nil, err
	}
	paid, err := s.reimbursements.PaidByMember(ctx, orgID)
	if err != nil {
		s.logger.Error("failed to load reimbursements for stats", "error", err, "organization_id", orgID)
		return nil, err
	}

	stats := ComputeStats(transactions, members, paid)
	return &stats, nil
}

// SetMemberBaseline moves a member's holdings baseline to an absolute
// target. Owner only. A change smaller than a cent is accepted without
// writing anything; otherwise the delta lands as a held_allocate or
// held_return row, and the write is rejected when the resulting total
// allocation would exceed cash on hand.
func (s *Service) SetMemberBaseline(ctx context.Context, orgID, actorID string, dto SetBaselineDTO) (*transaction.Transaction, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.gate.RequireOwner(ctx, orgID, actorID); err != nil {
		return nil, err
	}
	if _, err := s.members.GetActive(ctx, orgID, dto.TargetUserID); err != nil {
		return nil, ErrTargetNotMember
	}

	created, err := s.baselines.SetBaseline(ctx, orgID, dto.TargetUserID, actorID, dto.TargetBaseline)
	if err != nil {
		if allocErr, ok := err.(*AllocationError); ok {
			s.logger.Warn("baseline rejected, allocation exceeds cash on hand",
				"organization_id", orgID,
				"target_user_id", dto.TargetUserID,
				"total_allocated", allocErr.TotalAllocated.String(),
				"cash_on_hand", allocErr.CashOnHand.String())
		} else {
			s.logger.Error("failed to set baseline", "error", err,
				"organization_id", orgID, "target_user_id", dto.TargetUserID)
		}
		return nil, err
	}

	if created == nil {
		// Within epsilon of the current baseline; nothing written.
		return nil, nil
	}

	s.logger.Info("member baseline updated",
		"organization_id", orgID,
		"target_user_id", dto.TargetUserID,
		"target_baseline", dto.TargetBaseline.String(),
		"adjustment_type", string(created.Type),
		"adjustment_amount", created.Amount.String())

	if s.bus != nil {
		s.bus.Publish(ctx, events.NewBaselineChangedEvent(orgID, dto.TargetUserID, dto.TargetBaseline.String()))
	}
	return created, nil
}

// BaselineDecision is the pure core of the set-baseline flow, shared by the
// repository implementation and its tests. It classifies the delta and
// enforces the allocation invariant against the supplied ledger.
func BaselineDecision(
	transactions []*transaction.Transaction,
	targetUserID string,
	targetBaseline decimal.Decimal,
) (txType transaction.Type, amount decimal.Decimal, noop bool, err error) {
	current := CurrentBaseline(transactions, targetUserID)
	delta := targetBaseline.Sub(current)
	if delta.Abs().LessThan(baselineEpsilon) {
		return "", decimal.Zero, true, nil
	}

	income := decimal.Zero
	businessExpenses := decimal.Zero
	for _, tx := range transactions {
		switch tx.Type {
		case transaction.TypeIncome:
			income = income.Add(tx.Amount)
		case transaction.TypeExpenseBusiness:
			businessExpenses = businessExpenses.Add(tx.Amount)
		}
	}
	cashOnHand := income.Sub(businessExpenses)

	baselines := BaselinesByMember(transactions)
	baselines[targetUserID] = targetBaseline
	totalAllocated := decimal.Zero
	for _, b := range baselines {
		totalAllocated = totalAllocated.Add(b)
	}

	if totalAllocated.GreaterThan(cashOnHand) {
		return "", decimal.Zero, false, &AllocationError{
			TotalAllocated: totalAllocated,
			CashOnHand:     cashOnHand,
		}
	}

	if delta.IsPositive() {
		return transaction.TypeHeldAllocate, delta, false, nil
	}
	return transaction.TypeHeldReturn, delta.Abs(), false, nil
}
