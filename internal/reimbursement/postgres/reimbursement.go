package postgres

import (
	"context"

	"github.com/frahmantamala/orgfinance/internal/reimbursement"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReimbursementRepository implements the reimbursement.Repository interface using GORM
type ReimbursementRepository struct {
	db *gorm.DB
}

func NewReimbursementRepository(db *gorm.DB) reimbursement.Repository {
	return &ReimbursementRepository{db: db}
}

func (r *ReimbursementRepository) Create(ctx context.Context, req *reimbursement.ReimbursementRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *ReimbursementRepository) GetByID(ctx context.Context, id string) (*reimbursement.ReimbursementRequest, error) {
	var req reimbursement.ReimbursementRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, reimbursement.ErrReimbursementNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *ReimbursementRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&reimbursement.ReimbursementRequest{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return reimbursement.ErrReimbursementNotFound
	}
	return nil
}

func (r *ReimbursementRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*reimbursement.ReimbursementRequest, error) {
	var reqs []*reimbursement.ReimbursementRequest
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("paid_at DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *ReimbursementRepository) ListByMember(ctx context.Context, organizationID, memberID string) ([]*reimbursement.ReimbursementRequest, error) {
	var reqs []*reimbursement.ReimbursementRequest
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND member_id = ?", organizationID, memberID).
		Order("paid_at DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *ReimbursementRepository) SumPaidForMember(ctx context.Context, organizationID, memberID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&reimbursement.ReimbursementRequest{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("organization_id = ? AND member_id = ? AND status = ?",
			organizationID, memberID, reimbursement.StatusPaid).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *ReimbursementRepository) SumPaidByMember(ctx context.Context, organizationID string) (map[string]decimal.Decimal, error) {
	var rows []struct {
		MemberID string
		Total    decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&reimbursement.ReimbursementRequest{}).
		Select("member_id, COALESCE(SUM(amount), 0) AS total").
		Where("organization_id = ? AND status = ?", organizationID, reimbursement.StatusPaid).
		Group("member_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		totals[row.MemberID] = row.Total
	}
	return totals, nil
}
