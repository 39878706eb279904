package organization

import (
	"errors"
	"strings"
)

// CreateOrganizationDTO is the request payload for creating an organization.
type CreateOrganizationDTO struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

func (dto *CreateOrganizationDTO) Validate() error {
	dto.Name = strings.TrimSpace(dto.Name)
	if dto.Name == "" {
		return errors.New("organization name is required")
	}
	if len(dto.Name) < 3 {
		return errors.New("organization name must be at least 3 characters")
	}
	if len(dto.Name) > 100 {
		return errors.New("organization name must be less than 100 characters")
	}
	if dto.Description != nil {
		trimmed := strings.TrimSpace(*dto.Description)
		if trimmed == "" {
			dto.Description = nil
		} else {
			dto.Description = &trimmed
		}
	}
	return nil
}

// UpdateOrganizationDTO carries name/description updates.
type UpdateOrganizationDTO struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

func (dto *UpdateOrganizationDTO) Validate() error {
	c := CreateOrganizationDTO{Name: dto.Name, Description: dto.Description}
	if err := c.Validate(); err != nil {
		return err
	}
	dto.Name = c.Name
	dto.Description = c.Description
	return nil
}

// TransferOwnershipDTO names the member receiving ownership.
type TransferOwnershipDTO struct {
	NewOwnerID string `json:"new_owner_id"`
}

func (dto TransferOwnershipDTO) Validate() error {
	if dto.NewOwnerID == "" {
		return errors.New("new_owner_id is required")
	}
	return nil
}
