package reimbursement

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/orgfinance/internal/membership"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository defines the data access methods for reimbursements.
type Repository interface {
	Create(ctx context.Context, req *ReimbursementRequest) error
	GetByID(ctx context.Context, id string) (*ReimbursementRequest, error)
	Delete(ctx context.Context, id string) error
	ListByOrganization(ctx context.Context, organizationID string) ([]*ReimbursementRequest, error)
	ListByMember(ctx context.Context, organizationID, memberID string) ([]*ReimbursementRequest, error)
	SumPaidForMember(ctx context.Context, organizationID, memberID string) (decimal.Decimal, error)
	SumPaidByMember(ctx context.Context, organizationID string) (map[string]decimal.Decimal, error)
}

// ContributionSource totals a member's out-of-pocket expenses. The
// transaction service satisfies this.
type ContributionSource interface {
	SumPersonalContributions(ctx context.Context, organizationID, memberID string) (decimal.Decimal, error)
}

// PermissionGate resolves roles for authorization checks.
type PermissionGate interface {
	Authorize(ctx context.Context, organizationID, userID string, required membership.Role) error
}

type Service struct {
	repo          Repository
	contributions ContributionSource
	gate          PermissionGate
	logger        *slog.Logger
}

func NewService(repo Repository, contributions ContributionSource, gate PermissionGate, logger *slog.Logger) *Service {
	return &Service{
		repo:          repo,
		contributions: contributions,
		gate:          gate,
		logger:        logger,
	}
}

// CreateRefund records a payout to a member, capped at what they are still
// owed. The cap is contributions minus refunds already paid, floored at
// zero, so the organization can never pay back more than was put in.
// Members record their own refunds; recording one for someone else takes
// admin rank.
func (s *Service) CreateRefund(ctx context.Context, orgID, actorID string, dto CreateRefundDTO) (*ReimbursementRequest, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if dto.MemberID == "" {
		dto.MemberID = actorID
	}
	required := membership.RoleMember
	if dto.MemberID != actorID {
		required = membership.RoleAdmin
	}
	if err := s.gate.Authorize(ctx, orgID, actorID, required); err != nil {
		return nil, err
	}

	outstanding, err := s.Outstanding(ctx, orgID, dto.MemberID)
	if err != nil {
		return nil, err
	}
	if dto.Amount.GreaterThan(outstanding) {
		s.logger.Warn("refund rejected, exceeds outstanding",
			"organization_id", orgID,
			"member_id", dto.MemberID,
			"requested", dto.Amount.String(),
			"outstanding", outstanding.String())
		return nil, ErrRefundExceedsOutstanding
	}

	req := &ReimbursementRequest{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		MemberID:       dto.MemberID,
		Amount:         dto.Amount,
		Note:           dto.Note,
		Status:         StatusPaid,
		PaidAt:         dto.PaidAt,
		CreatedBy:      actorID,
		CreatedAt:      time.Now(),
	}

	if err := s.repo.Create(ctx, req); err != nil {
		s.logger.Error("failed to create refund", "error", err, "organization_id", orgID)
		return nil, err
	}

	s.logger.Info("refund recorded",
		"organization_id", orgID,
		"member_id", dto.MemberID,
		"amount", dto.Amount.String())
	return req, nil
}

// Outstanding is what a member is still owed: contributions minus refunds
// already paid, never negative.
func (s *Service) Outstanding(ctx context.Context, orgID, memberID string) (decimal.Decimal, error) {
	contributed, err := s.contributions.SumPersonalContributions(ctx, orgID, memberID)
	if err != nil {
		return decimal.Zero, err
	}
	paid, err := s.repo.SumPaidForMember(ctx, orgID, memberID)
	if err != nil {
		return decimal.Zero, err
	}
	outstanding := contributed.Sub(paid)
	if outstanding.IsNegative() {
		return decimal.Zero, nil
	}
	return outstanding, nil
}

func (s *Service) List(ctx context.Context, orgID, actorID string) ([]*ReimbursementRequest, error) {
	if err := s.gate.Authorize(ctx, orgID, actorID, membership.RoleMember); err != nil {
		return nil, err
	}
	return s.repo.ListByOrganization(ctx, orgID)
}

func (s *Service) ListForMember(ctx context.Context, orgID, actorID, memberID string) ([]*ReimbursementRequest, error) {
	if err := s.gate.Authorize(ctx, orgID, actorID, membership.RoleMember); err != nil {
		return nil, err
	}
	return s.repo.ListByMember(ctx, orgID, memberID)
}

// DeleteRefund removes a mistakenly entered refund.
func (s *Service) DeleteRefund(ctx context.Context, orgID, refundID, actorID string) error {
	if err := s.gate.Authorize(ctx, orgID, actorID, membership.RoleAdmin); err != nil {
		return err
	}

	req, err := s.repo.GetByID(ctx, refundID)
	if err != nil {
		return err
	}
	if req.OrganizationID != orgID {
		return ErrReimbursementNotFound
	}

	if err := s.repo.Delete(ctx, refundID); err != nil {
		s.logger.Error("failed to delete refund", "error", err, "reimbursement_id", refundID)
		return err
	}
	return nil
}

// PaidByMember exposes the per-member paid totals that balance aggregation
// needs.
func (s *Service) PaidByMember(ctx context.Context, orgID string) (map[string]decimal.Decimal, error) {
	return s.repo.SumPaidByMember(ctx, orgID)
}
