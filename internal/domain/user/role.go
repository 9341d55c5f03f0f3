package user

import "fmt"

// Role is the authorization role of a user.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCustomer Role = "CUSTOMER"
)

// IsValid returns true if the role is recognized.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

func (r Role) String() string {
	return string(r)
}

// ParseRole converts a string to a Role. An empty string yields RoleCustomer.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return RoleCustomer, nil
	}
	role := Role(s)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid role: %s", s)
	}
	return role, nil
}
