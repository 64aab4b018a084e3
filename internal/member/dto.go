package member

// CreateGroupRequest represents the request to create a group
type CreateGroupRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// CreateMemberRequest represents the request to register a member
type CreateMemberRequest struct {
	GroupID int64   `json:"group_id" validate:"required"`
	Name    string  `json:"name" validate:"required,min=1,max=255"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
}

// UpdateMemberRequest represents the request to update a member
type UpdateMemberRequest struct {
	Name   *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Email  *string `json:"email,omitempty" validate:"omitempty,email"`
	Active *bool   `json:"active,omitempty"`
}
