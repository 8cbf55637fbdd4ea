package domain

import "time"

type Role string

const (
	RoleStudent    Role = "student"
	RoleAccountant Role = "accountant"
	RoleRegistrar  Role = "registrar"
	RoleSuperAdmin Role = "super_admin"
)

// Staff reports whether the role may act on other students' records.
func (r Role) Staff() bool {
	switch r {
	case RoleAccountant, RoleRegistrar, RoleSuperAdmin:
		return true
	}
	return false
}

// ActorToken is an API token issued by the identity system. The billing
// service only looks tokens up; it never issues or verifies credentials.
type ActorToken struct {
	ID        int64
	TokenHash string
	ActorID   string
	Role      Role
	ExpiresAt *time.Time
}
