package users

import "github.com/inkwell-blog/inkwell/internal/shared"

// ListUsersRequest carries pagination and search filters.
type ListUsersRequest struct {
	Page   int
	Limit  int
	Search string
}

// ListUsersResponse is the paginated listing shape.
type ListUsersResponse struct {
	Users      []User            `json:"users"`
	Pagination shared.Pagination `json:"pagination"`
}

// UpdateProfileRequest updates only the provided fields.
type UpdateProfileRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Bio  *string `json:"bio,omitempty" validate:"omitempty,max=500"`
}

// UpdatePasswordRequest replaces the stored credential.
type UpdatePasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}
