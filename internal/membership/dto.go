package membership

import "errors"

// UpdateRoleDTO is the request payload for changing a member's role.
type UpdateRoleDTO struct {
	TargetUserID string `json:"target_user_id"`
	NewRole      Role   `json:"new_role"`
}

func (dto UpdateRoleDTO) Validate() error {
	if dto.TargetUserID == "" {
		return errors.New("target_user_id is required")
	}
	if !dto.NewRole.Valid() {
		return errors.New("new_role must be one of owner, admin, member")
	}
	if dto.NewRole == RoleOwner {
		return errors.New("cannot change role to owner, use transfer ownership instead")
	}
	return nil
}

// TargetMemberDTO identifies the member a deactivate/reactivate call targets.
type TargetMemberDTO struct {
	TargetUserID string `json:"target_user_id"`
}

func (dto TargetMemberDTO) Validate() error {
	if dto.TargetUserID == "" {
		return errors.New("target_user_id is required")
	}
	return nil
}
