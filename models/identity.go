package models

// Roles carried by an identity assertion.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is an externally verified claim of username and role. The chat
// core trusts it for the lifetime of a connection.
type Identity struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
