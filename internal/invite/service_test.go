package invite_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/frahmantamala/orgfinance/internal/invite"
	"github.com/frahmantamala/orgfinance/internal/membership"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestInviteService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Invite Service Suite")
}

// MockRepository implements invite.Repository for testing
type MockRepository struct {
	invites       map[string]*invite.InviteCode
	duplicateHits int
}

func NewMockRepository() *MockRepository {
	return &MockRepository{invites: make(map[string]*invite.InviteCode)}
}

var errDuplicateCode = errors.New("duplicate code")

func (m *MockRepository) Create(ctx context.Context, inv *invite.InviteCode) error {
	if m.duplicateHits > 0 {
		m.duplicateHits--
		return errDuplicateCode
	}
	for _, existing := range m.invites {
		if existing.Code == inv.Code {
			return errDuplicateCode
		}
	}
	m.invites[inv.ID] = inv
	return nil
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*invite.InviteCode, error) {
	inv, ok := m.invites[id]
	if !ok {
		return nil, invite.ErrInviteNotFound
	}
	return inv, nil
}

func (m *MockRepository) GetByCode(ctx context.Context, code string) (*invite.InviteCode, error) {
	for _, inv := range m.invites {
		if inv.Code == code {
			return inv, nil
		}
	}
	return nil, invite.ErrInviteNotFound
}

func (m *MockRepository) ListActiveByOrganization(ctx context.Context, organizationID string) ([]*invite.InviteCode, error) {
	var result []*invite.InviteCode
	for _, inv := range m.invites {
		if inv.OrganizationID == organizationID && !inv.IsRevoked {
			result = append(result, inv)
		}
	}
	return result, nil
}

func (m *MockRepository) Revoke(ctx context.Context, id string) error {
	inv, ok := m.invites[id]
	if !ok {
		return invite.ErrInviteNotFound
	}
	inv.IsRevoked = true
	return nil
}

func (m *MockRepository) ConsumeUse(ctx context.Context, id string) error {
	inv, ok := m.invites[id]
	if !ok {
		return invite.ErrInviteNotFound
	}
	if inv.IsRevoked {
		return invite.ErrInviteExhausted
	}
	if inv.MaxUses != nil && inv.CurrentUses >= *inv.MaxUses {
		return invite.ErrInviteExhausted
	}
	inv.CurrentUses++
	return nil
}

func (m *MockRepository) IsDuplicateCodeError(err error) bool {
	return errors.Is(err, errDuplicateCode)
}

// MockMembers implements invite.MembershipStore for testing
type MockMembers struct {
	memberships map[string]*membership.Membership
}

func NewMockMembers() *MockMembers {
	return &MockMembers{memberships: make(map[string]*membership.Membership)}
}

func memberKey(organizationID, userID string) string {
	return organizationID + "/" + userID
}

func (m *MockMembers) Get(ctx context.Context, organizationID, userID string) (*membership.Membership, error) {
	ms, ok := m.memberships[memberKey(organizationID, userID)]
	if !ok {
		return nil, membership.ErrMemberNotFound
	}
	return ms, nil
}

func (m *MockMembers) Create(ctx context.Context, ms *membership.Membership) error {
	m.memberships[memberKey(ms.OrganizationID, ms.UserID)] = ms
	return nil
}

func (m *MockMembers) SetActive(ctx context.Context, organizationID, userID string, active bool, deactivatedAt *time.Time) error {
	ms, ok := m.memberships[memberKey(organizationID, userID)]
	if !ok {
		return membership.ErrMemberNotFound
	}
	ms.IsActive = active
	ms.DeactivatedAt = deactivatedAt
	return nil
}

// MockGate implements invite.PermissionGate for testing
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

var _ = Describe("InviteService", func() {
	var (
		ctx     context.Context
		repo    *MockRepository
		members *MockMembers
		gate    *MockGate
		service *invite.Service
	)

	const (
		orgID    = "org-1"
		adminID  = "user-admin"
		newbieID = "user-newbie"
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = NewMockRepository()
		members = NewMockMembers()
		gate = &MockGate{roles: map[string]membership.Role{
			adminID: membership.RoleAdmin,
		}}
		logger := slog.New(slog.NewTextHandler(GinkgoWriter, nil))
		service = invite.NewService(repo, members, gate, nil, logger)
	})

	Describe("GenerateCode", func() {
		It("should produce 12 characters from the unambiguous alphabet", func() {
			code, err := invite.GenerateCode()
			Expect(err).NotTo(HaveOccurred())
			Expect(code).To(HaveLen(12))
			Expect(code).NotTo(ContainSubstring("0"))
			Expect(code).NotTo(ContainSubstring("O"))
			Expect(code).NotTo(ContainSubstring("1"))
			Expect(code).NotTo(ContainSubstring("I"))
		})
	})

	Describe("NormalizeCode", func() {
		It("should strip dashes and uppercase", func() {
			Expect(invite.NormalizeCode("abcd-efgh-jklm")).To(Equal("ABCDEFGHJKLM"))
		})
	})

	Describe("DisplayCode", func() {
		It("should group the stored code in fours", func() {
			inv := &invite.InviteCode{Code: "ABCDEFGHJKLM"}
			Expect(inv.DisplayCode()).To(Equal("ABCD-EFGH-JKLM"))
		})
	})

	Describe("Create", func() {
		It("should mint a code for admins", func() {
			inv, err := service.Create(ctx, orgID, adminID, invite.CreateInviteDTO{})
			Expect(err).NotTo(HaveOccurred())
			Expect(inv.Code).To(HaveLen(12))
			Expect(inv.OrganizationID).To(Equal(orgID))
		})

		It("should retry when the generated code collides", func() {
			repo.duplicateHits = 2

			inv, err := service.Create(ctx, orgID, adminID, invite.CreateInviteDTO{})
			Expect(err).NotTo(HaveOccurred())
			Expect(inv).NotTo(BeNil())
		})

		It("should deny non-admins", func() {
			_, err := service.Create(ctx, orgID, newbieID, invite.CreateInviteDTO{})
			Expect(err).To(Equal(membership.ErrNotAMember))
		})

		It("should reject max_uses below one", func() {
			zero := 0
			_, err := service.Create(ctx, orgID, adminID, invite.CreateInviteDTO{MaxUses: &zero})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Join", func() {
		var code string

		BeforeEach(func() {
			inv, err := service.Create(ctx, orgID, adminID, invite.CreateInviteDTO{})
			Expect(err).NotTo(HaveOccurred())
			code = inv.Code
		})

		It("should create a member-role membership for a new user", func() {
			joined, err := service.Join(ctx, newbieID, invite.JoinDTO{Code: code})
			Expect(err).NotTo(HaveOccurred())
			Expect(joined.Role).To(Equal(membership.RoleMember))
			Expect(joined.IsActive).To(BeTrue())
			Expect(joined.OrganizationID).To(Equal(orgID))
			Expect(joined.InvitedBy).NotTo(BeNil())
			Expect(*joined.InvitedBy).To(Equal(adminID))
		})

		It("should accept the dashed display form of the code", func() {
			dashed := strings.ToLower(code[:4] + "-" + code[4:8] + "-" + code[8:])

			_, err := service.Join(ctx, newbieID, invite.JoinDTO{Code: dashed})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should count the use", func() {
			_, err := service.Join(ctx, newbieID, invite.JoinDTO{Code: code})
			Expect(err).NotTo(HaveOccurred())

			inv, err := repo.GetByCode(ctx, code)
			Expect(err).NotTo(HaveOccurred())
			Expect(inv.CurrentUses).To(Equal(1))
		})

		It("should reject active members", func() {
			_, err := service.Join(ctx, newbieID, invite.JoinDTO{Code: code})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Join(ctx, newbieID, invite.JoinDTO{Code: code})
			Expect(err).To(Equal(invite.ErrAlreadyMember))
		})

		It("should reactivate a deactivated member with their old role", func() {
			now := time.Now()
			members.memberships[memberKey(orgID, newbieID)] = &membership.Membership{
				OrganizationID: orgID,
				UserID:         newbieID,
				Role:           membership.RoleAdmin,
				IsActive:       false,
				DeactivatedAt:  &now,
			}

			joined, err := service.Join(ctx, newbieID, invite.JoinDTO{Code: code})
			Expect(err).NotTo(HaveOccurred())
			Expect(joined.Role).To(Equal(membership.RoleAdmin))
			Expect(joined.IsActive).To(BeTrue())
			Expect(joined.DeactivatedAt).To(BeNil())
		})

		It("should reject a revoked code", func() {
			inv, err := repo.GetByCode(ctx, code)
			Expect(err).NotTo(HaveOccurred())
			Expect(service.Revoke(ctx, orgID, inv.ID, adminID)).To(Succeed())

			_, err = service.Join(ctx, newbieID, invite.JoinDTO{Code: code})
			Expect(err).To(Equal(invite.ErrInviteRevoked))
		})

		It("should reject an expired code", func() {
			inv, err := repo.GetByCode(ctx, code)
			Expect(err).NotTo(HaveOccurred())
			past := time.Now().Add(-time.Hour)
			inv.ExpiresAt = &past

			_, err = service.Join(ctx, newbieID, invite.JoinDTO{Code: code})
			Expect(err).To(Equal(invite.ErrInviteExpired))
		})

		It("should reject a code with no uses left", func() {
			one := 1
			inv, err := repo.GetByCode(ctx, code)
			Expect(err).NotTo(HaveOccurred())
			inv.MaxUses = &one

			_, err = service.Join(ctx, newbieID, invite.JoinDTO{Code: code})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Join(ctx, "user-latecomer", invite.JoinDTO{Code: code})
			Expect(err).To(Equal(invite.ErrInviteExhausted))
		})

		It("should reject malformed codes outright", func() {
			_, err := service.Join(ctx, newbieID, invite.JoinDTO{Code: "too-short"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ListActive", func() {
		It("should exclude revoked codes", func() {
			first, err := service.Create(ctx, orgID, adminID, invite.CreateInviteDTO{})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Create(ctx, orgID, adminID, invite.CreateInviteDTO{})
			Expect(err).NotTo(HaveOccurred())

			Expect(service.Revoke(ctx, orgID, first.ID, adminID)).To(Succeed())

			active, err := service.ListActive(ctx, orgID, adminID)
			Expect(err).NotTo(HaveOccurred())
			Expect(active).To(HaveLen(1))
		})
	})
})
