package finance

import (
	"errors"
	"fmt"
	"strings"

	"github.com/frahmantamala/orgfinance/internal/membership"
	"github.com/frahmantamala/orgfinance/internal/transaction"
	"github.com/shopspring/decimal"
)

// capitalCategory marks capital injections; matched case-insensitively.
const capitalCategory = "capital"

var ErrTargetNotMember = errors.New("target user is not a member of this organization")

// AllocationError rejects a baseline that would allocate more than the
// organization holds. It carries both sides of the comparison so the caller
// sees exactly how far over the request went.
type AllocationError struct {
	TotalAllocated decimal.Decimal
	CashOnHand     decimal.Decimal
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("total allocated %s exceeds cash on hand %s",
		e.TotalAllocated.StringFixed(2), e.CashOnHand.StringFixed(2))
}

// OrganizationTotals are the org-wide derived sums.
type OrganizationTotals struct {
	TotalIncome                  decimal.Decimal `json:"total_income"`
	TotalExpensesBusiness        decimal.Decimal `json:"total_expenses_business"`
	TotalExpensesPersonal        decimal.Decimal `json:"total_expenses_personal"`
	ExpensesCapital              decimal.Decimal `json:"expenses_capital"`
	CashOnHand                   decimal.Decimal `json:"cash_on_hand"`
	ActualExpensesWithoutCapital decimal.Decimal `json:"actual_expenses_without_capital"`
	ActualExpensesVsIncome       decimal.Decimal `json:"actual_expenses_vs_income"`
}

// MemberBalance is the per-member derived view. It is computed fresh on
// every read, never stored.
type MemberBalance struct {
	UserID                  string          `json:"user_id"`
	Role                    membership.Role `json:"role"`
	IsActive                bool            `json:"is_active"`
	BusinessHeld            decimal.Decimal `json:"business_held"`
	ContributedPersonal     decimal.Decimal `json:"contributed_personal"`
	ReimbursementsPaid      decimal.Decimal `json:"reimbursements_paid"`
	OutstandingReimbursable decimal.Decimal `json:"outstanding_reimbursable"`
}

// OrganizationStats bundles the totals with every member's balance.
type OrganizationStats struct {
	Totals  OrganizationTotals `json:"totals"`
	Members []MemberBalance    `json:"members"`
}

func isCapital(category *string) bool {
	return category != nil && strings.EqualFold(strings.TrimSpace(*category), capitalCategory)
}

// ComputeStats runs the single-pass balance aggregation. Every membership
// row gets a balance, active or not; rows attributed to no member move only
// the organization totals; held_allocate and held_return shuffle a member's
// held balance without touching income or expenses.
func ComputeStats(
	transactions []*transaction.Transaction,
	members []*membership.Membership,
	paidByMember map[string]decimal.Decimal,
) OrganizationStats {
	balances := make(map[string]*MemberBalance, len(members))
	ordered := make([]string, 0, len(members))
	for _, m := range members {
		balances[m.UserID] = &MemberBalance{
			UserID:   m.UserID,
			Role:     m.Role,
			IsActive: m.IsActive,
		}
		ordered = append(ordered, m.UserID)
	}

	memberOf := func(tx *transaction.Transaction) *MemberBalance {
		if tx.MemberID == nil {
			return nil
		}
		return balances[*tx.MemberID]
	}

	var totals OrganizationTotals
	for _, tx := range transactions {
		switch tx.Type {
		case transaction.TypeIncome:
			totals.TotalIncome = totals.TotalIncome.Add(tx.Amount)
			if b := memberOf(tx); b != nil && tx.FundedBy == transaction.FundedByBusiness {
				b.BusinessHeld = b.BusinessHeld.Add(tx.Amount)
			}
		case transaction.TypeExpenseBusiness:
			totals.TotalExpensesBusiness = totals.TotalExpensesBusiness.Add(tx.Amount)
			if b := memberOf(tx); b != nil && tx.FundedBy == transaction.FundedByBusiness {
				b.BusinessHeld = b.BusinessHeld.Sub(tx.Amount)
			}
		case transaction.TypeExpensePersonal:
			totals.TotalExpensesPersonal = totals.TotalExpensesPersonal.Add(tx.Amount)
			if b := memberOf(tx); b != nil && tx.FundedBy == transaction.FundedByPersonal {
				b.ContributedPersonal = b.ContributedPersonal.Add(tx.Amount)
			}
		case transaction.TypeHeldAllocate:
			if b := memberOf(tx); b != nil {
				b.BusinessHeld = b.BusinessHeld.Add(tx.Amount)
			}
		case transaction.TypeHeldReturn:
			if b := memberOf(tx); b != nil {
				b.BusinessHeld = b.BusinessHeld.Sub(tx.Amount)
			}
		}

		if isCapital(tx.Category) {
			totals.ExpensesCapital = totals.ExpensesCapital.Add(tx.Amount)
		}
	}

	for userID, paid := range paidByMember {
		if b := balances[userID]; b != nil {
			b.ReimbursementsPaid = paid
		}
	}
	for _, b := range balances {
		outstanding := b.ContributedPersonal.Sub(b.ReimbursementsPaid)
		if outstanding.IsNegative() {
			outstanding = decimal.Zero
		}
		b.OutstandingReimbursable = outstanding
	}

	totals.CashOnHand = totals.TotalIncome.Sub(totals.TotalExpensesBusiness)
	personalBeyondCapital := totals.TotalExpensesPersonal.Sub(totals.ExpensesCapital)
	if personalBeyondCapital.IsNegative() {
		personalBeyondCapital = decimal.Zero
	}
	totals.ActualExpensesWithoutCapital = totals.TotalExpensesBusiness.Add(personalBeyondCapital)
	totals.ActualExpensesVsIncome = totals.TotalIncome.Sub(totals.ActualExpensesWithoutCapital)

	stats := OrganizationStats{Totals: totals, Members: make([]MemberBalance, 0, len(ordered))}
	for _, userID := range ordered {
		stats.Members = append(stats.Members, *balances[userID])
	}
	return stats
}

// CurrentBaseline reduces a ledger to one member's baseline: allocations
// minus returns, ignoring everything else.
func CurrentBaseline(transactions []*transaction.Transaction, userID string) decimal.Decimal {
	baseline := decimal.Zero
	for _, tx := range transactions {
		if tx.MemberID == nil || *tx.MemberID != userID {
			continue
		}
		switch tx.Type {
		case transaction.TypeHeldAllocate:
			baseline = baseline.Add(tx.Amount)
		case transaction.TypeHeldReturn:
			baseline = baseline.Sub(tx.Amount)
		}
	}
	return baseline
}

// BaselinesByMember computes every member's baseline from the ledger.
func BaselinesByMember(transactions []*transaction.Transaction) map[string]decimal.Decimal {
	baselines := make(map[string]decimal.Decimal)
	for _, tx := range transactions {
		if tx.MemberID == nil || !tx.Type.IsBaseline() {
			continue
		}
		current := baselines[*tx.MemberID]
		if tx.Type == transaction.TypeHeldAllocate {
			baselines[*tx.MemberID] = current.Add(tx.Amount)
		} else {
			baselines[*tx.MemberID] = current.Sub(tx.Amount)
		}
	}
	return baselines
}
