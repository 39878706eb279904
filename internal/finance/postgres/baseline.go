package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/orgfinance/internal/finance"
	"github.com/frahmantamala/orgfinance/internal/organization"
	"github.com/frahmantamala/orgfinance/internal/transaction"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BaselineRepository implements the finance.BaselineRepository interface
// using GORM
type BaselineRepository struct {
	db *gorm.DB
}

func NewBaselineRepository(db *gorm.DB) finance.BaselineRepository {
	return &BaselineRepository{db: db}
}

// SetBaseline runs the whole read-validate-insert inside one transaction,
// taking a row lock on the organization so concurrent baseline writes for
// the same organization serialize.
func (r *BaselineRepository) SetBaseline(ctx context.Context, organizationID, targetUserID, createdBy string, targetBaseline decimal.Decimal) (*transaction.Transaction, error) {
	var created *transaction.Transaction

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var org organization.Organization
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", organizationID).
			First(&org).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return organization.ErrOrganizationNotFound
			}
			return err
		}

		var ledger []*transaction.Transaction
		if err := tx.Where("organization_id = ?", organizationID).Find(&ledger).Error; err != nil {
			return err
		}

		txType, amount, noop, err := finance.BaselineDecision(ledger, targetUserID, targetBaseline)
		if err != nil {
			return err
		}
		if noop {
			return nil
		}

		now := time.Now()
		memberID := targetUserID
		created = &transaction.Transaction{
			ID:             uuid.NewString(),
			OrganizationID: organizationID,
			MemberID:       &memberID,
			Type:           txType,
			FundedBy:       transaction.FundedByBusiness,
			Amount:         amount,
			OccurredAt:     now,
			CreatedBy:      createdBy,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return tx.Create(created).Error
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
