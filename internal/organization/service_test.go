package organization_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/frahmantamala/orgfinance/internal/membership"
	"github.com/frahmantamala/orgfinance/internal/organization"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestOrganizationService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Organization Service Suite")
}

// MockRepository implements organization.Repository for testing
type MockRepository struct {
	organizations map[string]*organization.Organization
	memberships   map[string]*membership.Membership
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		organizations: make(map[string]*organization.Organization),
		memberships:   make(map[string]*membership.Membership),
	}
}

func memberKey(organizationID, userID string) string {
	return organizationID + "/" + userID
}

func (m *MockRepository) Create(ctx context.Context, org *organization.Organization, owner *membership.Membership) error {
	m.organizations[org.ID] = org
	m.memberships[memberKey(owner.OrganizationID, owner.UserID)] = owner
	return nil
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*organization.Organization, error) {
	org, ok := m.organizations[id]
	if !ok {
		return nil, organization.ErrOrganizationNotFound
	}
	return org, nil
}

func (m *MockRepository) ListForUser(ctx context.Context, userID string) ([]*organization.Organization, error) {
	var result []*organization.Organization
	for _, ms := range m.memberships {
		if ms.UserID == userID && ms.IsActive {
			if org, ok := m.organizations[ms.OrganizationID]; ok {
				result = append(result, org)
			}
		}
	}
	return result, nil
}

func (m *MockRepository) SearchByName(ctx context.Context, query string, limit int) ([]*organization.Organization, error) {
	var result []*organization.Organization
	for _, org := range m.organizations {
		if strings.Contains(strings.ToLower(org.Name), strings.ToLower(query)) {
			result = append(result, org)
		}
	}
	return result, nil
}

func (m *MockRepository) Update(ctx context.Context, org *organization.Organization) error {
	m.organizations[org.ID] = org
	return nil
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	delete(m.organizations, id)
	return nil
}

func (m *MockRepository) TransferOwnership(ctx context.Context, orgID, currentOwnerID, newOwnerID string) error {
	org, ok := m.organizations[orgID]
	if !ok {
		return organization.ErrOrganizationNotFound
	}
	org.OwnerID = newOwnerID
	if ms, ok := m.memberships[memberKey(orgID, currentOwnerID)]; ok {
		ms.Role = membership.RoleAdmin
	}
	if ms, ok := m.memberships[memberKey(orgID, newOwnerID)]; ok {
		ms.Role = membership.RoleOwner
	}
	return nil
}

// MockMembers implements organization.MembershipReader for testing
type MockMembers struct {
	repo *MockRepository
}

func (m *MockMembers) GetActive(ctx context.Context, organizationID, userID string) (*membership.Membership, error) {
	ms, ok := m.repo.memberships[memberKey(organizationID, userID)]
	if !ok || !ms.IsActive {
		return nil, membership.ErrMemberNotFound
	}
	return ms, nil
}

// MockGate implements organization.PermissionGate for testing
type MockGate struct {
	repo *MockRepository
}

func (m *MockGate) Authorize(ctx context.Context, organizationID, userID string, required membership.Role) error {
	ms, ok := m.repo.memberships[memberKey(organizationID, userID)]
	if !ok || !ms.IsActive {
		return membership.ErrNotAMember
	}
	if !ms.Role.AtLeast(required) {
		return membership.ErrInsufficientRole
	}
	return nil
}

func (m *MockGate) RequireOwner(ctx context.Context, organizationID, userID string) error {
	ms, ok := m.repo.memberships[memberKey(organizationID, userID)]
	if !ok || !ms.IsActive || ms.Role != membership.RoleOwner {
		return membership.ErrOwnerOnly
	}
	return nil
}

var _ = Describe("OrganizationService", func() {
	var (
		ctx     context.Context
		repo    *MockRepository
		service *organization.Service
	)

	const (
		ownerID  = "user-owner"
		memberID = "user-member"
	)

	createOrg := func() *organization.Organization {
		org, err := service.Create(ctx, ownerID, organization.CreateOrganizationDTO{Name: "Warung Kopi"})
		Expect(err).NotTo(HaveOccurred())
		return org
	}

	addMember := func(orgID, userID string, role membership.Role) {
		repo.memberships[memberKey(orgID, userID)] = &membership.Membership{
			OrganizationID: orgID,
			UserID:         userID,
			Role:           role,
			IsActive:       true,
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		repo = NewMockRepository()
		logger := slog.New(slog.NewTextHandler(GinkgoWriter, nil))
		service = organization.NewService(repo, &MockGate{repo: repo}, &MockMembers{repo: repo}, nil, logger)
	})

	Describe("Create", func() {
		It("should make the creator the owner", func() {
			org := createOrg()
			Expect(org.OwnerID).To(Equal(ownerID))

			owner := repo.memberships[memberKey(org.ID, ownerID)]
			Expect(owner).NotTo(BeNil())
			Expect(owner.Role).To(Equal(membership.RoleOwner))
			Expect(owner.IsActive).To(BeTrue())
		})

		It("should reject names shorter than three characters", func() {
			_, err := service.Create(ctx, ownerID, organization.CreateOrganizationDTO{Name: "ab"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Get", func() {
		It("should hide organizations from non-members", func() {
			org := createOrg()
			_, err := service.Get(ctx, org.ID, "stranger")
			Expect(err).To(Equal(membership.ErrNotAMember))
		})
	})

	Describe("ListMine", func() {
		It("should list only the caller's organizations", func() {
			org := createOrg()
			addMember(org.ID, memberID, membership.RoleMember)

			mine, err := service.ListMine(ctx, memberID)
			Expect(err).NotTo(HaveOccurred())
			Expect(mine).To(HaveLen(1))
			Expect(mine[0].ID).To(Equal(org.ID))

			none, err := service.ListMine(ctx, "stranger")
			Expect(err).NotTo(HaveOccurred())
			Expect(none).To(BeEmpty())
		})
	})

	Describe("Delete", func() {
		It("should deny everyone but the owner", func() {
			org := createOrg()
			addMember(org.ID, memberID, membership.RoleAdmin)

			err := service.Delete(ctx, org.ID, memberID)
			Expect(err).To(Equal(membership.ErrOwnerOnly))
		})

		It("should remove the organization for the owner", func() {
			org := createOrg()
			Expect(service.Delete(ctx, org.ID, ownerID)).To(Succeed())
			Expect(repo.organizations).To(BeEmpty())
		})
	})

	Describe("TransferOwnership", func() {
		It("should swap the owner and demote the previous one to admin", func() {
			org := createOrg()
			addMember(org.ID, memberID, membership.RoleMember)

			err := service.TransferOwnership(ctx, org.ID, ownerID, organization.TransferOwnershipDTO{NewOwnerID: memberID})
			Expect(err).NotTo(HaveOccurred())

			Expect(repo.organizations[org.ID].OwnerID).To(Equal(memberID))
			Expect(repo.memberships[memberKey(org.ID, memberID)].Role).To(Equal(membership.RoleOwner))
			Expect(repo.memberships[memberKey(org.ID, ownerID)].Role).To(Equal(membership.RoleAdmin))
		})

		It("should deny callers who are not the owner", func() {
			org := createOrg()
			addMember(org.ID, memberID, membership.RoleMember)

			err := service.TransferOwnership(ctx, org.ID, memberID, organization.TransferOwnershipDTO{NewOwnerID: memberID})
			Expect(err).To(Equal(organization.ErrNotOwner))
		})

		It("should require the new owner to be an active member", func() {
			org := createOrg()

			err := service.TransferOwnership(ctx, org.ID, ownerID, organization.TransferOwnershipDTO{NewOwnerID: "stranger"})
			Expect(err).To(Equal(organization.ErrNewOwnerNotMember))
		})

		It("should refuse transferring ownership to the current owner", func() {
			org := createOrg()

			err := service.TransferOwnership(ctx, org.ID, ownerID, organization.TransferOwnershipDTO{NewOwnerID: ownerID})
			Expect(err).To(Equal(organization.ErrTransferToSelf))

			updated, gerr := repo.GetByID(ctx, org.ID)
			Expect(gerr).NotTo(HaveOccurred())
			Expect(updated.OwnerID).To(Equal(ownerID))
		})
	})

	Describe("Search", func() {
		It("should return nothing for an empty query", func() {
			createOrg()
			found, err := service.Search(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeEmpty())
		})

		It("should find organizations by name fragment", func() {
			createOrg()
			found, err := service.Search(ctx, "kopi")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(1))
		})
	})
})

var _ = Describe("CreateOrganizationDTO", func() {
	It("should trim surrounding whitespace", func() {
		dto := organization.CreateOrganizationDTO{Name: "  Warung Kopi  "}
		Expect(dto.Validate()).To(Succeed())
		Expect(dto.Name).To(Equal("Warung Kopi"))
	})

	It("should drop a blank description", func() {
		blank := "   "
		dto := organization.CreateOrganizationDTO{Name: "Warung Kopi", Description: &blank}
		Expect(dto.Validate()).To(Succeed())
		Expect(dto.Description).To(BeNil())
	})
})
