package reimbursement_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/frahmantamala/orgfinance/internal/membership"
	"github.com/frahmantamala/orgfinance/internal/reimbursement"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

func TestReimbursementService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Reimbursement Service Suite")
}

// MockRepository implements reimbursement.Repository for testing
type MockRepository struct {
	refunds map[string]*reimbursement.ReimbursementRequest
}

func NewMockRepository() *MockRepository {
	return &MockRepository{refunds: make(map[string]*reimbursement.ReimbursementRequest)}
}

func (m *MockRepository) Create(ctx context.Context, req *reimbursement.ReimbursementRequest) error {
	m.refunds[req.ID] = req
	return nil
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*reimbursement.ReimbursementRequest, error) {
	req, ok := m.refunds[id]
	if !ok {
		return nil, reimbursement.ErrReimbursementNotFound
	}
	return req, nil
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	delete(m.refunds, id)
	return nil
}

func (m *MockRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*reimbursement.ReimbursementRequest, error) {
	var result []*reimbursement.ReimbursementRequest
	for _, req := range m.refunds {
		if req.OrganizationID == organizationID {
			result = append(result, req)
		}
	}
	return result, nil
}

func (m *MockRepository) ListByMember(ctx context.Context, organizationID, memberID string) ([]*reimbursement.ReimbursementRequest, error) {
	var result []*reimbursement.ReimbursementRequest
	for _, req := range m.refunds {
		if req.OrganizationID == organizationID && req.MemberID == memberID {
			result = append(result, req)
		}
	}
	return result, nil
}

func (m *MockRepository) SumPaidForMember(ctx context.Context, organizationID, memberID string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, req := range m.refunds {
		if req.OrganizationID == organizationID && req.MemberID == memberID && req.Status == reimbursement.StatusPaid {
			total = total.Add(req.Amount)
		}
	}
	return total, nil
}

func (m *MockRepository) SumPaidByMember(ctx context.Context, organizationID string) (map[string]decimal.Decimal, error) {
	totals := make(map[string]decimal.Decimal)
	for _, req := range m.refunds {
		if req.OrganizationID == organizationID && req.Status == reimbursement.StatusPaid {
			totals[req.MemberID] = totals[req.MemberID].Add(req.Amount)
		}
	}
	return totals, nil
}

// MockContributions implements reimbursement.ContributionSource for testing
type MockContributions struct {
	contributed map[string]decimal.Decimal
}

func (m *MockContributions) SumPersonalContributions(ctx context.Context, organizationID, memberID string) (decimal.Decimal, error) {
	return m.contributed[memberID], nil
}

// MockGate implements reimbursement.PermissionGate for testing
type MockGate struct {
	roles map[string]membership.Role
}

func (m *MockGate) Authorize(ctx context.Context, organizationID, userID string, required membership.Role) error {
	role, ok := m.roles[userID]
	if !ok {
		return membership.ErrNotAMember
	}
	if !role.AtLeast(required) {
		return membership.ErrInsufficientRole
	}
	return nil
}

var _ = Describe("ReimbursementService", func() {
	var (
		ctx           context.Context
		repo          *MockRepository
		contributions *MockContributions
		gate          *MockGate
		service       *reimbursement.Service
	)

	const (
		orgID    = "org-1"
		adminID  = "user-admin"
		memberID = "user-member"
	)

	dec := func(s string) decimal.Decimal {
		d, err := decimal.NewFromString(s)
		Expect(err).NotTo(HaveOccurred())
		return d
	}

	BeforeEach(func() {
		ctx = context.Background()
		repo = NewMockRepository()
		contributions = &MockContributions{contributed: map[string]decimal.Decimal{}}
		gate = &MockGate{roles: map[string]membership.Role{
			adminID:  membership.RoleAdmin,
			memberID: membership.RoleMember,
		}}
		logger := slog.New(slog.NewTextHandler(GinkgoWriter, nil))
		service = reimbursement.NewService(repo, contributions, gate, logger)
	})

	Describe("CreateRefund", func() {
		BeforeEach(func() {
			contributions.contributed[memberID] = dec("50")
		})

		It("should record a refund up to the outstanding amount", func() {
			req, err := service.CreateRefund(ctx, orgID, adminID, reimbursement.CreateRefundDTO{
				MemberID: memberID,
				Amount:   dec("50"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(req.Status).To(Equal(reimbursement.StatusPaid))
			Expect(req.PaidAt.IsZero()).To(BeFalse())
		})

		It("should reject a refund beyond the outstanding amount", func() {
			_, err := service.CreateRefund(ctx, orgID, adminID, reimbursement.CreateRefundDTO{
				MemberID: memberID,
				Amount:   dec("60"),
			})
			Expect(err).To(Equal(reimbursement.ErrRefundExceedsOutstanding))
		})

		It("should count earlier refunds against the cap", func() {
			_, err := service.CreateRefund(ctx, orgID, adminID, reimbursement.CreateRefundDTO{
				MemberID: memberID,
				Amount:   dec("30"),
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreateRefund(ctx, orgID, adminID, reimbursement.CreateRefundDTO{
				MemberID: memberID,
				Amount:   dec("30"),
			})
			Expect(err).To(Equal(reimbursement.ErrRefundExceedsOutstanding))
		})

		It("should let a member record their own refund", func() {
			contributions.contributed[memberID] = dec("40")

			req, err := service.CreateRefund(ctx, orgID, memberID, reimbursement.CreateRefundDTO{
				Amount: dec("10"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(req.MemberID).To(Equal(memberID))
			Expect(req.CreatedBy).To(Equal(memberID))
		})

		It("should deny a member recording a refund for someone else", func() {
			contributions.contributed[adminID] = dec("40")

			_, err := service.CreateRefund(ctx, orgID, memberID, reimbursement.CreateRefundDTO{
				MemberID: adminID,
				Amount:   dec("10"),
			})
			Expect(err).To(Equal(membership.ErrInsufficientRole))
		})

		It("should deny a non-member", func() {
			_, err := service.CreateRefund(ctx, orgID, "user-stranger", reimbursement.CreateRefundDTO{
				Amount: dec("10"),
			})
			Expect(err).To(Equal(membership.ErrNotAMember))
		})

		It("should reject a non-positive amount", func() {
			_, err := service.CreateRefund(ctx, orgID, adminID, reimbursement.CreateRefundDTO{
				MemberID: memberID,
				Amount:   dec("0"),
			})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Outstanding", func() {
		It("should floor at zero when refunds exceed contributions", func() {
			contributions.contributed[memberID] = dec("20")
			repo.refunds["r-1"] = &reimbursement.ReimbursementRequest{
				ID: "r-1", OrganizationID: orgID, MemberID: memberID,
				Amount: dec("100"), Status: reimbursement.StatusPaid,
			}

			outstanding, err := service.Outstanding(ctx, orgID, memberID)
			Expect(err).NotTo(HaveOccurred())
			Expect(outstanding.IsZero()).To(BeTrue())
		})
	})

	Describe("DeleteRefund", func() {
		It("should remove a refund from its own organization", func() {
			contributions.contributed[memberID] = dec("50")
			req, err := service.CreateRefund(ctx, orgID, adminID, reimbursement.CreateRefundDTO{
				MemberID: memberID,
				Amount:   dec("50"),
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(service.DeleteRefund(ctx, orgID, req.ID, adminID)).To(Succeed())
			Expect(repo.refunds).To(BeEmpty())
		})

		It("should hide refunds of other organizations", func() {
			repo.refunds["r-other"] = &reimbursement.ReimbursementRequest{
				ID: "r-other", OrganizationID: "org-2", MemberID: memberID,
				Amount: dec("10"), Status: reimbursement.StatusPaid,
			}

			err := service.DeleteRefund(ctx, orgID, "r-other", adminID)
			Expect(err).To(Equal(reimbursement.ErrReimbursementNotFound))
		})
	})

	Describe("PaidByMember", func() {
		It("should group paid totals per member", func() {
			repo.refunds["r-1"] = &reimbursement.ReimbursementRequest{
				ID: "r-1", OrganizationID: orgID, MemberID: memberID,
				Amount: dec("30"), Status: reimbursement.StatusPaid,
			}
			repo.refunds["r-2"] = &reimbursement.ReimbursementRequest{
				ID: "r-2", OrganizationID: orgID, MemberID: memberID,
				Amount: dec("20"), Status: reimbursement.StatusPaid,
			}

			totals, err := service.PaidByMember(ctx, orgID)
			Expect(err).NotTo(HaveOccurred())
			Expect(totals[memberID]).To(Equal(dec("50")))
		})
	})
})
