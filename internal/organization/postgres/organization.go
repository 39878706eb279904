package postgres

import (
	"context"

	"github.com/frahmantamala/orgfinance/internal/membership"
	"github.com/frahmantamala/orgfinance/internal/organization"
	"gorm.io/gorm"
)

// OrganizationRepository implements the organization.Repository interface using GORM
type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) organization.Repository {
	return &OrganizationRepository{db: db}
}

// Create inserts the organization and the owner membership in one
// transaction.
func (r *OrganizationRepository) Create(ctx context.Context, org *organization.Organization, owner *membership.Membership) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return err
		}
		return tx.Create(owner).Error
	})
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*organization.Organization, error) {
	var org organization.Organization
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&org).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, organization.ErrOrganizationNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (r *OrganizationRepository) ListForUser(ctx context.Context, userID string) ([]*organization.Organization, error) {
	var orgs []*organization.Organization
	err := r.db.WithContext(ctx).
		Joins("JOIN organization_members ON organization_members.organization_id = organizations.id").
		Where("organization_members.user_id = ? AND organization_members.is_active = ?", userID, true).
		Order("organizations.created_at ASC").
		Find(&orgs).Error
	return orgs, err
}

func (r *OrganizationRepository) SearchByName(ctx context.Context, query string, limit int) ([]*organization.Organization, error) {
	var orgs []*organization.Organization
	err := r.db.WithContext(ctx).
		Where("name ILIKE ?", "%"+query+"%").
		Limit(limit).
		Find(&orgs).Error
	return orgs, err
}

func (r *OrganizationRepository) Update(ctx context.Context, org *organization.Organization) error {
	return r.db.WithContext(ctx).Save(org).Error
}

func (r *OrganizationRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&organization.Organization{}).Error
}

// TransferOwnership runs the three sub-writes as one transaction: update
// organizations.owner_id, demote the old owner to admin, promote the new
// owner. A failure of any write rolls back all of them.
func (r *OrganizationRepository) TransferOwnership(ctx context.Context, orgID, currentOwnerID, newOwnerID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&organization.Organization{}).
			Where("id = ?", orgID).
			Update("owner_id", newOwnerID).Error; err != nil {
			return err
		}

		if err := tx.Model(&membership.Membership{}).
			Where("organization_id = ? AND user_id = ?", orgID, currentOwnerID).
			Update("role", membership.RoleAdmin).Error; err != nil {
			return err
		}

		return tx.Model(&membership.Membership{}).
			Where("organization_id = ? AND user_id = ?", orgID, newOwnerID).
			Update("role", membership.RoleOwner).Error
	})
}
