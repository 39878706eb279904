package stats

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// HeroStats are the public landing-page counters. They are best-effort:
// a query failure degrades the figure to zero instead of failing the page.
type HeroStats struct {
	Organizations      int64           `json:"organizations"`
	Transactions       int64           `json:"transactions"`
	MembersContributed decimal.Decimal `json:"members_contributed"`
	CashOnHand         decimal.Decimal `json:"cash_on_hand"`
}

type Service struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewService(db *sqlx.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Hero aggregates cross-organization totals with raw SQL. These run over
// every row in the ledger, so they bypass the per-organization repositories.
func (s *Service) Hero(ctx context.Context) HeroStats {
	stats := HeroStats{
		MembersContributed: decimal.Zero,
		CashOnHand:         decimal.Zero,
	}

	if err := s.db.GetContext(ctx, &stats.Organizations,
		`SELECT COUNT(*) FROM organizations`); err != nil {
		s.logger.Warn("hero stats: organization count failed", "error", err)
	}

	if err := s.db.GetContext(ctx, &stats.Transactions,
		`SELECT COUNT(*) FROM transactions`); err != nil {
		s.logger.Warn("hero stats: transaction count failed", "error", err)
	}

	var contributed string
	err := s.db.GetContext(ctx, &contributed,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions
		 WHERE type = 'expense_personal'`)
	if err != nil {
		s.logger.Warn("hero stats: contribution sum failed", "error", err)
	} else if parsed, perr := decimal.NewFromString(contributed); perr == nil {
		stats.MembersContributed = parsed
	}

	// Returned held funds leave the business again, so the public figure
	// subtracts them alongside business expenses.
	var cash string
	err = s.db.GetContext(ctx, &cash,
		`SELECT COALESCE(SUM(CASE type
		        WHEN 'income' THEN amount
		        WHEN 'expense_business' THEN -amount
		        WHEN 'held_return' THEN -amount
		        ELSE 0 END), 0)
		 FROM transactions`)
	if err != nil {
		s.logger.Warn("hero stats: cash on hand sum failed", "error", err)
	} else if parsed, perr := decimal.NewFromString(cash); perr == nil {
		stats.CashOnHand = parsed
	}

	return stats
}
