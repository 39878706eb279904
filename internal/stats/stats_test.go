package stats_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/frahmantamala/orgfinance/internal/stats"
	"github.com/frahmantamala/orgfinance/internal/transaction"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestStatsService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "StatsService Suite")
}

var _ = Describe("StatsService", func() {
	var (
		ctx     context.Context
		gormDB  *gorm.DB
		service *stats.Service
	)

	amount := func(s string) decimal.Decimal {
		d, err := decimal.NewFromString(s)
		Expect(err).NotTo(HaveOccurred())
		return d
	}

	seedTx := func(id string, txType transaction.Type, amt string) {
		row := &transaction.Transaction{
			ID:             id,
			OrganizationID: "org-1",
			Type:           txType,
			FundedBy:       transaction.FundedByBusiness,
			Amount:         amount(amt),
			OccurredAt:     time.Now().UTC(),
			CreatedBy:      "user-1",
			CreatedAt:      time.Now(),
			UpdatedAt:      time.Now(),
		}
		Expect(gormDB.Create(row).Error).To(Succeed())
	}

	BeforeEach(func() {
		var err error
		ctx = context.Background()

		gormDB, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())
		Expect(gormDB.AutoMigrate(&transaction.Transaction{})).To(Succeed())
		Expect(gormDB.Exec(`CREATE TABLE organizations (id TEXT PRIMARY KEY, name TEXT)`).Error).To(Succeed())
		Expect(gormDB.Exec(`INSERT INTO organizations (id, name) VALUES ('org-1', 'Warung Kopi')`).Error).To(Succeed())

		sqlDB, err := gormDB.DB()
		Expect(err).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(GinkgoWriter, nil))
		service = stats.NewService(sqlx.NewDb(sqlDB, "sqlite3"), logger)
	})

	AfterEach(func() {
		sqlDB, err := gormDB.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("Hero", func() {
		It("should subtract business expenses and returned held funds from cash on hand", func() {
			seedTx("tx-income", transaction.TypeIncome, "1000")
			seedTx("tx-expense", transaction.TypeExpenseBusiness, "200")
			seedTx("tx-return", transaction.TypeHeldReturn, "100")
			seedTx("tx-allocate", transaction.TypeHeldAllocate, "300")

			hero := service.Hero(ctx)
			Expect(hero.Organizations).To(Equal(int64(1)))
			Expect(hero.Transactions).To(Equal(int64(4)))
			Expect(hero.CashOnHand.Equal(amount("700"))).To(BeTrue())
		})

		It("should sum every personal expense into members contributed", func() {
			memberID := "user-1"
			row := &transaction.Transaction{
				ID:             "tx-personal",
				OrganizationID: "org-1",
				MemberID:       &memberID,
				Type:           transaction.TypeExpensePersonal,
				FundedBy:       transaction.FundedByPersonal,
				Amount:         amount("50"),
				OccurredAt:     time.Now().UTC(),
				CreatedBy:      memberID,
				CreatedAt:      time.Now(),
				UpdatedAt:      time.Now(),
			}
			Expect(gormDB.Create(row).Error).To(Succeed())
			seedTx("tx-unattributed", transaction.TypeExpensePersonal, "25")

			hero := service.Hero(ctx)
			Expect(hero.MembersContributed.Equal(amount("75"))).To(BeTrue())
		})
	})
})
