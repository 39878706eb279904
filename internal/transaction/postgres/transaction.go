package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/frahmantamala/orgfinance/internal/transaction"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionRepository implements the transaction.Repository interface using GORM
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) transaction.Repository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *transaction.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	var tx transaction.Transaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tx).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, transaction.ErrTransactionNotFound
		}
		return nil, err
	}
	return &tx, nil
}

func (r *TransactionRepository) Update(ctx context.Context, tx *transaction.Transaction) error {
	tx.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(tx).Error
}

func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&transaction.Transaction{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return transaction.ErrTransactionNotFound
	}
	return nil
}

// ListByOrganization loads the full ledger for aggregation. Stats need every
// row, so there is no paging here.
func (r *TransactionRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*transaction.Transaction, error) {
	var txs []*transaction.Transaction
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("occurred_at ASC").
		Find(&txs).Error
	return txs, err
}

// List pages the ledger newest first, keyed on (occurred_at, id) so rows
// sharing a timestamp still page deterministically.
func (r *TransactionRepository) List(ctx context.Context, organizationID string, filters transaction.ListFilters) ([]*transaction.Transaction, string, error) {
	query := r.db.WithContext(ctx).Where("organization_id = ?", organizationID)

	if len(filters.Types) > 0 {
		query = query.Where("type IN ?", filters.Types)
	}
	if filters.MemberID != "" {
		query = query.Where("member_id = ?", filters.MemberID)
	}
	if filters.FundedBy != "" {
		query = query.Where("funded_by = ?", filters.FundedBy)
	}
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.Search != "" {
		pattern := "%" + strings.ToLower(filters.Search) + "%"
		query = query.Where("LOWER(description) LIKE ? OR LOWER(category) LIKE ?", pattern, pattern)
	}
	if !filters.From.IsZero() {
		query = query.Where("occurred_at >= ?", filters.From)
	}
	if !filters.To.IsZero() {
		query = query.Where("occurred_at <= ?", filters.To)
	}
	if filters.Cursor != "" {
		occurredAt, id, err := transaction.DecodeCursor(filters.Cursor)
		if err != nil {
			return nil, "", err
		}
		query = query.Where("(occurred_at < ?) OR (occurred_at = ? AND id < ?)", occurredAt, occurredAt, id)
	}

	var txs []*transaction.Transaction
	err := query.
		Order("occurred_at DESC, id DESC").
		Limit(filters.Limit + 1).
		Find(&txs).Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(txs) > filters.Limit {
		txs = txs[:filters.Limit]
		last := txs[len(txs)-1]
		nextCursor = transaction.EncodeCursor(last.OccurredAt, last.ID)
	}
	return txs, nextCursor, nil
}

// SumPersonalContributions totals a member's out-of-pocket expense rows.
func (r *TransactionRepository) SumPersonalContributions(ctx context.Context, organizationID, memberID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&transaction.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("organization_id = ? AND member_id = ? AND type = ? AND funded_by = ?",
			organizationID, memberID, transaction.TypeExpensePersonal, transaction.FundedByPersonal).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
