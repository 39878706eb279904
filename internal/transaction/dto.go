package transaction

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	FundedByBusiness = "business"
	FundedByPersonal = "personal"

	defaultListLimit = 50
	maxListLimit     = 200
)

// AddIncomeDTO records money coming into the organization. Income is always
// business-funded and held by the member it is attributed to, which defaults
// to the recorder.
type AddIncomeDTO struct {
	Amount      decimal.Decimal `json:"amount"`
	MemberID    *string         `json:"member_id,omitempty"`
	Category    *string         `json:"category,omitempty"`
	Description *string         `json:"description,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

func (dto *AddIncomeDTO) Validate() error {
	if dto.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("amount must be greater than zero")
	}
	if dto.OccurredAt.IsZero() {
		return errors.New("occurred_at is required")
	}
	normalizeCategory(&dto.Category)
	return nil
}

// AddExpenseDTO records an expense. FundedBy decides whether the money came
// out of the organization's cash (business) or a member's own pocket
// (personal); the holder defaults to the recorder.
type AddExpenseDTO struct {
	Amount      decimal.Decimal `json:"amount"`
	FundedBy    string          `json:"funded_by"`
	MemberID    *string         `json:"member_id,omitempty"`
	Category    *string         `json:"category,omitempty"`
	Description *string         `json:"description,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

func (dto *AddExpenseDTO) Validate() error {
	if dto.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("amount must be greater than zero")
	}
	if dto.OccurredAt.IsZero() {
		return errors.New("occurred_at is required")
	}
	if dto.FundedBy != FundedByBusiness && dto.FundedBy != FundedByPersonal {
		return errors.New("funded_by must be business or personal")
	}
	normalizeCategory(&dto.Category)
	return nil
}

// TransactionType resolves the ledger row type for the expense.
func (dto AddExpenseDTO) TransactionType() Type {
	if dto.FundedBy == FundedByPersonal {
		return TypeExpensePersonal
	}
	return TypeExpenseBusiness
}

// AddInitialDTO seeds an organization's ledger with an opening row of any
// type. Only the owner may create these.
type AddInitialDTO struct {
	Type        Type            `json:"type"`
	FundedBy    string          `json:"funded_by,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	MemberID    *string         `json:"member_id,omitempty"`
	Category    *string         `json:"category,omitempty"`
	Description *string         `json:"description,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

func (dto *AddInitialDTO) Validate() error {
	if !dto.Type.Valid() {
		return ErrInvalidType
	}
	if dto.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("amount must be greater than zero")
	}
	if dto.OccurredAt.IsZero() {
		return errors.New("occurred_at is required")
	}
	if dto.Type.IsBaseline() && (dto.MemberID == nil || *dto.MemberID == "") {
		return errors.New("holdings adjustments must name a member")
	}
	if dto.FundedBy == "" {
		if dto.Type == TypeExpensePersonal {
			dto.FundedBy = FundedByPersonal
		} else {
			dto.FundedBy = FundedByBusiness
		}
	}
	if dto.FundedBy != FundedByBusiness && dto.FundedBy != FundedByPersonal {
		return errors.New("funded_by must be business or personal")
	}
	normalizeCategory(&dto.Category)
	return nil
}

// UpdateTransactionDTO edits an existing row. Type changes are allowed for
// ordinary rows but rejected for initial rows by the service.
type UpdateTransactionDTO struct {
	Type        Type            `json:"type"`
	FundedBy    string          `json:"funded_by,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	MemberID    *string         `json:"member_id,omitempty"`
	Category    *string         `json:"category,omitempty"`
	Description *string         `json:"description,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

func (dto *UpdateTransactionDTO) Validate() error {
	if !dto.Type.Valid() {
		return ErrInvalidType
	}
	if dto.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("amount must be greater than zero")
	}
	if dto.OccurredAt.IsZero() {
		return errors.New("occurred_at is required")
	}
	if dto.FundedBy == "" {
		if dto.Type == TypeExpensePersonal {
			dto.FundedBy = FundedByPersonal
		} else {
			dto.FundedBy = FundedByBusiness
		}
	}
	if dto.FundedBy != FundedByBusiness && dto.FundedBy != FundedByPersonal {
		return errors.New("funded_by must be business or personal")
	}
	normalizeCategory(&dto.Category)
	return nil
}

func normalizeCategory(category **string) {
	if *category == nil {
		return
	}
	trimmed := strings.TrimSpace(**category)
	if trimmed == "" {
		*category = nil
		return
	}
	*category = &trimmed
}

// ListFilters narrows and pages a ledger listing. Cursor encodes the
// occurred_at and id of the last row of the previous page.
type ListFilters struct {
	Types    []Type
	MemberID string
	FundedBy string
	Category string
	Search   string
	From     time.Time
	To       time.Time
	Limit    int
	Cursor   string
}

func (f *ListFilters) Normalize() error {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	for _, t := range f.Types {
		if !t.Valid() {
			return ErrInvalidType
		}
	}
	if f.FundedBy != "" && f.FundedBy != FundedByBusiness && f.FundedBy != FundedByPersonal {
		return errors.New("funded_by must be business or personal")
	}
	f.Search = strings.TrimSpace(f.Search)
	return nil
}

// EncodeCursor packs a row's sort key into an opaque page token.
func EncodeCursor(occurredAt time.Time, id string) string {
	raw := fmt.Sprintf("%s|%s", occurredAt.UTC().Format(time.RFC3339Nano), id)
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor unpacks a page token produced by EncodeCursor.
func DecodeCursor(cursor string) (time.Time, string, error) {
	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", errors.New("invalid cursor")
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, "", errors.New("invalid cursor")
	}
	occurredAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, "", errors.New("invalid cursor")
	}
	return occurredAt, parts[1], nil
}
