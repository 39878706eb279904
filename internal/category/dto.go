package category

import "errors"

// ResolveCategoryDTO carries a free-form category name to canonicalize.
type ResolveCategoryDTO struct {
	Name string `json:"name"`
}

func (dto *ResolveCategoryDTO) Validate() error {
	if Normalize(dto.Name) == "" {
		return errors.New("category name is required")
	}
	if len(dto.Name) > 100 {
		return errors.New("category name must be less than 100 characters")
	}
	return nil
}
