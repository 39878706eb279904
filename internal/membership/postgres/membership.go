package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/orgfinance/internal/membership"
	"gorm.io/gorm"
)

// MembershipRepository implements the membership.Repository interface using GORM
type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) membership.Repository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) Create(ctx context.Context, m *membership.Membership) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MembershipRepository) Get(ctx context.Context, organizationID, userID string) (*membership.Membership, error) {
	var m membership.Membership
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, membership.ErrMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *MembershipRepository) GetActive(ctx context.Context, organizationID, userID string) (*membership.Membership, error) {
	var m membership.Membership
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ? AND is_active = ?", organizationID, userID, true).
		First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, membership.ErrMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *MembershipRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*membership.Membership, error) {
	var members []*membership.Membership
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

func (r *MembershipRepository) ListViewsByOrganization(ctx context.Context, organizationID string) ([]*membership.MemberView, error) {
	var views []*membership.MemberView
	err := r.db.WithContext(ctx).
		Table("organization_members").
		Select("organization_members.*, users.email, users.full_name").
		Joins("JOIN users ON users.id = organization_members.user_id").
		Where("organization_members.organization_id = ?", organizationID).
		Order("organization_members.created_at ASC").
		Scan(&views).Error
	return views, err
}

func (r *MembershipRepository) UpdateRole(ctx context.Context, organizationID, userID string, role membership.Role) error {
	return r.db.WithContext(ctx).Model(&membership.Membership{}).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		Update("role", role).Error
}

func (r *MembershipRepository) SetActive(ctx context.Context, organizationID, userID string, active bool, deactivatedAt *time.Time) error {
	return r.db.WithContext(ctx).Model(&membership.Membership{}).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		Updates(map[string]interface{}{
			"is_active":      active,
			"deactivated_at": deactivatedAt,
		}).Error
}
