package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/frahmantamala/orgfinance/internal/invite"
	"gorm.io/gorm"
)

// InviteRepository implements the invite.Repository interface using GORM
type InviteRepository struct {
	db *gorm.DB
}

func NewInviteRepository(db *gorm.DB) invite.Repository {
	return &InviteRepository{db: db}
}

func (r *InviteRepository) Create(ctx context.Context, code *invite.InviteCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *InviteRepository) GetByCode(ctx context.Context, code string) (*invite.InviteCode, error) {
	var inv invite.InviteCode
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&inv).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, invite.ErrInviteNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *InviteRepository) GetByID(ctx context.Context, id string) (*invite.InviteCode, error) {
	var inv invite.InviteCode
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&inv).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, invite.ErrInviteNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *InviteRepository) ListActiveByOrganization(ctx context.Context, organizationID string) ([]*invite.InviteCode, error) {
	var codes []*invite.InviteCode
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND is_revoked = ?", organizationID, false).
		Order("created_at DESC").
		Find(&codes).Error
	return codes, err
}

func (r *InviteRepository) Revoke(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&invite.InviteCode{}).
		Where("id = ?", id).
		Update("is_revoked", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return invite.ErrInviteNotFound
	}
	return nil
}

// ConsumeUse spends one use with a guarded update, so concurrent joins
// cannot overshoot max_uses.
func (r *InviteRepository) ConsumeUse(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&invite.InviteCode{}).
		Where("id = ? AND is_revoked = ? AND (max_uses IS NULL OR current_uses < max_uses)", id, false).
		Update("current_uses", gorm.Expr("current_uses + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return invite.ErrInviteExhausted
	}
	return nil
}

func (r *InviteRepository) IsDuplicateCodeError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
