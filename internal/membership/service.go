package membership

import (
	"context"
	"log/slog"
	"time"
)

// Repository defines the data access methods for memberships.
type Repository interface {
	Create(ctx context.Context, m *Membership) error
	Get(ctx context.Context, organizationID, userID string) (*Membership, error)
	GetActive(ctx context.Context, organizationID, userID string) (*Membership, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]*Membership, error)
	ListViewsByOrganization(ctx context.Context, organizationID string) ([]*MemberView, error)
	UpdateRole(ctx context.Context, organizationID, userID string, role Role) error
	SetActive(ctx context.Context, organizationID, userID string, active bool, deactivatedAt *time.Time) error
}

// Service is both the member-management service and the permission gate the
// other domain services consult before any mutation.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// RoleOf resolves the caller's role in an organization. Only active
// memberships grant a role.
func (s *Service) RoleOf(ctx context.Context, organizationID, userID string) (Role, error) {
	m, err := s.repo.GetActive(ctx, organizationID, userID)
	if err != nil {
		return "", ErrNotAMember
	}
	return m.Role, nil
}

// Authorize allows the action iff the caller's role ranks at or above
// required. Resolution happens per request, never cached.
func (s *Service) Authorize(ctx context.Context, organizationID, userID string, required Role) error {
	role, err := s.RoleOf(ctx, organizationID, userID)
	if err != nil {
		return err
	}
	if !role.AtLeast(required) {
		s.logger.Warn("authorization denied: insufficient role",
			"organization_id", organizationID,
			"user_id", userID,
			"role", role,
			"required", required)
		return ErrInsufficientRole
	}
	return nil
}

// RequireOwner is the hard owner-only check used by baseline allocation,
// ownership transfer, initial-transaction edits and organization deletion.
func (s *Service) RequireOwner(ctx context.Context, organizationID, userID string) error {
	role, err := s.RoleOf(ctx, organizationID, userID)
	if err != nil {
		return err
	}
	if role != RoleOwner {
		return ErrOwnerOnly
	}
	return nil
}

func (s *Service) ListMembers(ctx context.Context, organizationID, actorID string) ([]*MemberView, error) {
	if err := s.Authorize(ctx, organizationID, actorID, RoleMember); err != nil {
		return nil, err
	}

	members, err := s.repo.ListViewsByOrganization(ctx, organizationID)
	if err != nil {
		s.logger.Error("failed to list members", "error", err, "organization_id", organizationID)
		return nil, err
	}
	return members, nil
}

// UpdateRole changes a member's role. Callers can never change their own
// role, and the owner role never moves through this path.
func (s *Service) UpdateRole(ctx context.Context, organizationID, actorID string, dto UpdateRoleDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	if dto.TargetUserID == actorID {
		return ErrCannotTargetSelf
	}

	if err := s.Authorize(ctx, organizationID, actorID, RoleAdmin); err != nil {
		return err
	}

	target, err := s.repo.GetActive(ctx, organizationID, dto.TargetUserID)
	if err != nil {
		return ErrMemberNotFound
	}

	if target.Role == RoleOwner {
		return ErrOwnerImmutable
	}

	if err := s.repo.UpdateRole(ctx, organizationID, dto.TargetUserID, dto.NewRole); err != nil {
		s.logger.Error("failed to update member role", "error", err,
			"organization_id", organizationID,
			"target_user_id", dto.TargetUserID)
		return err
	}

	s.logger.Info("member role updated",
		"organization_id", organizationID,
		"actor_id", actorID,
		"target_user_id", dto.TargetUserID,
		"new_role", dto.NewRole)
	return nil
}

// Deactivate soft-deletes a membership. Financial history referencing the
// user is preserved; the member can be reactivated later.
func (s *Service) Deactivate(ctx context.Context, organizationID, actorID string, dto TargetMemberDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	if dto.TargetUserID == actorID {
		return ErrCannotTargetSelf
	}

	if err := s.Authorize(ctx, organizationID, actorID, RoleAdmin); err != nil {
		return err
	}

	target, err := s.repo.Get(ctx, organizationID, dto.TargetUserID)
	if err != nil {
		return ErrMemberNotFound
	}

	if target.Role == RoleOwner {
		return ErrOwnerImmutable
	}

	if !target.IsActive {
		return ErrMemberInactive
	}

	now := time.Now()
	if err := s.repo.SetActive(ctx, organizationID, dto.TargetUserID, false, &now); err != nil {
		s.logger.Error("failed to deactivate member", "error", err,
			"organization_id", organizationID,
			"target_user_id", dto.TargetUserID)
		return err
	}

	s.logger.Info("member deactivated",
		"organization_id", organizationID,
		"actor_id", actorID,
		"target_user_id", dto.TargetUserID)
	return nil
}

func (s *Service) Reactivate(ctx context.Context, organizationID, actorID string, dto TargetMemberDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	if err := s.Authorize(ctx, organizationID, actorID, RoleAdmin); err != nil {
		return err
	}

	target, err := s.repo.Get(ctx, organizationID, dto.TargetUserID)
	if err != nil {
		return ErrMemberNotFound
	}

	if target.IsActive {
		return ErrMemberAlreadyActive
	}

	if err := s.repo.SetActive(ctx, organizationID, dto.TargetUserID, true, nil); err != nil {
		s.logger.Error("failed to reactivate member", "error", err,
			"organization_id", organizationID,
			"target_user_id", dto.TargetUserID)
		return err
	}

	s.logger.Info("member reactivated",
		"organization_id", organizationID,
		"actor_id", actorID,
		"target_user_id", dto.TargetUserID)
	return nil
}
