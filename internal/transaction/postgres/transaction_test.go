package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/frahmantamala/orgfinance/internal/transaction"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestTransactionRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "TransactionRepository Suite")
}

var _ = Describe("TransactionRepository", func() {
	var (
		ctx  context.Context
		db   *gorm.DB
		repo transaction.Repository
	)

	const orgID = "org-1"

	amount := func(s string) decimal.Decimal {
		d, err := decimal.NewFromString(s)
		Expect(err).NotTo(HaveOccurred())
		return d
	}

	newTx := func(id string, txType transaction.Type, fundedBy, amt string, memberID *string, occurredAt time.Time) *transaction.Transaction {
		return &transaction.Transaction{
			ID:             id,
			OrganizationID: orgID,
			MemberID:       memberID,
			Type:           txType,
			FundedBy:       fundedBy,
			Amount:         amount(amt),
			OccurredAt:     occurredAt,
			CreatedBy:      "user-admin",
			CreatedAt:      time.Now(),
			UpdatedAt:      time.Now(),
		}
	}

	BeforeEach(func() {
		var err error
		ctx = context.Background()

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&transaction.Transaction{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewTransactionRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("Create and GetByID", func() {
		It("should round-trip a ledger row", func() {
			tx := newTx("tx-1", transaction.TypeIncome, transaction.FundedByBusiness, "1000.50", nil, time.Now().UTC())
			Expect(repo.Create(ctx, tx)).To(Succeed())

			got, err := repo.GetByID(ctx, "tx-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Type).To(Equal(transaction.TypeIncome))
			Expect(got.Amount.Equal(amount("1000.50"))).To(BeTrue())
		})

		It("should report a missing row with the domain sentinel", func() {
			_, err := repo.GetByID(ctx, "nope")
			Expect(err).To(Equal(transaction.ErrTransactionNotFound))
		})
	})

	Describe("Delete", func() {
		It("should report a missing row with the domain sentinel", func() {
			Expect(repo.Delete(ctx, "nope")).To(Equal(transaction.ErrTransactionNotFound))
		})
	})

	Describe("List", func() {
		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

		BeforeEach(func() {
			for i := 0; i < 5; i++ {
				tx := newTx(fmt.Sprintf("tx-%d", i), transaction.TypeIncome, transaction.FundedByBusiness, "10",
					nil, base.Add(time.Duration(i)*time.Hour))
				Expect(repo.Create(ctx, tx)).To(Succeed())
			}
		})

		It("should return rows newest first", func() {
			txs, cursor, err := repo.List(ctx, orgID, transaction.ListFilters{Limit: 10})
			Expect(err).NotTo(HaveOccurred())
			Expect(cursor).To(BeEmpty())
			Expect(txs).To(HaveLen(5))
			Expect(txs[0].ID).To(Equal("tx-4"))
			Expect(txs[4].ID).To(Equal("tx-0"))
		})

		It("should page with a cursor", func() {
			first, cursor, err := repo.List(ctx, orgID, transaction.ListFilters{Limit: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(first).To(HaveLen(2))
			Expect(cursor).NotTo(BeEmpty())

			second, _, err := repo.List(ctx, orgID, transaction.ListFilters{Limit: 10, Cursor: cursor})
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(HaveLen(3))
			Expect(second[0].ID).To(Equal("tx-2"))
		})

		It("should filter by type", func() {
			expense := newTx("tx-exp", transaction.TypeExpenseBusiness, transaction.FundedByBusiness, "20", nil, base)
			Expect(repo.Create(ctx, expense)).To(Succeed())

			txs, _, err := repo.List(ctx, orgID, transaction.ListFilters{
				Limit: 10,
				Types: []transaction.Type{transaction.TypeExpenseBusiness},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(txs).To(HaveLen(1))
			Expect(txs[0].ID).To(Equal("tx-exp"))
		})

		It("should filter by funding source", func() {
			personal := newTx("tx-personal", transaction.TypeExpensePersonal, transaction.FundedByPersonal, "15", nil, base)
			Expect(repo.Create(ctx, personal)).To(Succeed())

			txs, _, err := repo.List(ctx, orgID, transaction.ListFilters{
				Limit:    10,
				FundedBy: transaction.FundedByPersonal,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(txs).To(HaveLen(1))
			Expect(txs[0].ID).To(Equal("tx-personal"))
		})

		It("should match search text against description and category", func() {
			desc := "Kopi beans restock"
			cat := "Supplies"
			row := newTx("tx-desc", transaction.TypeExpenseBusiness, transaction.FundedByBusiness, "30", nil, base)
			row.Description = &desc
			row.Category = &cat
			Expect(repo.Create(ctx, row)).To(Succeed())

			byDesc, _, err := repo.List(ctx, orgID, transaction.ListFilters{Limit: 10, Search: "kopi"})
			Expect(err).NotTo(HaveOccurred())
			Expect(byDesc).To(HaveLen(1))
			Expect(byDesc[0].ID).To(Equal("tx-desc"))

			byCat, _, err := repo.List(ctx, orgID, transaction.ListFilters{Limit: 10, Search: "SUPPL"})
			Expect(err).NotTo(HaveOccurred())
			Expect(byCat).To(HaveLen(1))
			Expect(byCat[0].ID).To(Equal("tx-desc"))
		})

		It("should bound the range with from and to", func() {
			txs, _, err := repo.List(ctx, orgID, transaction.ListFilters{
				Limit: 10,
				From:  base.Add(1 * time.Hour),
				To:    base.Add(3 * time.Hour),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(txs).To(HaveLen(3))
		})

		It("should scope to the organization", func() {
			txs, _, err := repo.List(ctx, "org-other", transaction.ListFilters{Limit: 10})
			Expect(err).NotTo(HaveOccurred())
			Expect(txs).To(BeEmpty())
		})
	})

	Describe("SumPersonalContributions", func() {
		It("should total only personal-funded personal expenses of the member", func() {
			memberID := "user-member"
			otherID := "user-other"
			now := time.Now().UTC()

			Expect(repo.Create(ctx, newTx("tx-a", transaction.TypeExpensePersonal, transaction.FundedByPersonal, "50", &memberID, now))).To(Succeed())
			Expect(repo.Create(ctx, newTx("tx-b", transaction.TypeExpensePersonal, transaction.FundedByPersonal, "25", &memberID, now))).To(Succeed())
			Expect(repo.Create(ctx, newTx("tx-c", transaction.TypeExpensePersonal, transaction.FundedByPersonal, "99", &otherID, now))).To(Succeed())
			Expect(repo.Create(ctx, newTx("tx-d", transaction.TypeExpenseBusiness, transaction.FundedByBusiness, "40", &memberID, now))).To(Succeed())

			total, err := repo.SumPersonalContributions(ctx, orgID, memberID)
			Expect(err).NotTo(HaveOccurred())
			Expect(total.Equal(amount("75"))).To(BeTrue())
		})

		It("should return zero for a member with no contributions", func() {
			total, err := repo.SumPersonalContributions(ctx, orgID, "user-none")
			Expect(err).NotTo(HaveOccurred())
			Expect(total.IsZero()).To(BeTrue())
		})
	})
})
