package transaction

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Type classifies a ledger row. Income and the two expense kinds feed the
// organization totals; the two held kinds only move a member's business
// holdings baseline and never touch income or expenses.
type Type string

const (
	TypeIncome          Type = "income"
	TypeExpenseBusiness Type = "expense_business"
	TypeExpensePersonal Type = "expense_personal"
	TypeHeldAllocate    Type = "held_allocate"
	TypeHeldReturn      Type = "held_return"
)

func (t Type) Valid() bool {
	switch t {
	case TypeIncome, TypeExpenseBusiness, TypeExpensePersonal, TypeHeldAllocate, TypeHeldReturn:
		return true
	}
	return false
}

// IsBaseline reports whether the row is a holdings adjustment rather than
// real money movement.
func (t Type) IsBaseline() bool {
	return t == TypeHeldAllocate || t == TypeHeldReturn
}

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrInitialTypeChange   = errors.New("the type of an initial transaction cannot be changed")
	ErrBaselineImmutable   = errors.New("holdings adjustments cannot be edited directly")
)

// Transaction is a single ledger row. MemberID is nil for unattributed rows,
// which count toward organization totals but no member balance.
type Transaction struct {
	ID             string          `json:"id" gorm:"primaryKey"`
	OrganizationID string          `json:"organization_id" gorm:"index"`
	MemberID       *string         `json:"member_id,omitempty" gorm:"index"`
	Type           Type            `json:"type" gorm:"type:varchar(32)"`
	FundedBy       string          `json:"funded_by" gorm:"type:varchar(16)"`
	Amount         decimal.Decimal `json:"amount" gorm:"type:numeric(18,2)"`
	Category       *string         `json:"category,omitempty"`
	Description    *string         `json:"description,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at" gorm:"index"`
	IsInitial      bool            `json:"is_initial"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}
