package user

import (
	"errors"
	"strings"
)

// UpdateProfileDTO carries profile edits for the calling user.
type UpdateProfileDTO struct {
	FullName string `json:"full_name"`
}

func (dto *UpdateProfileDTO) Validate() error {
	dto.FullName = strings.TrimSpace(dto.FullName)
	if dto.FullName == "" {
		return errors.New("full_name is required")
	}
	if len(dto.FullName) > 100 {
		return errors.New("full_name must be less than 100 characters")
	}
	return nil
}
