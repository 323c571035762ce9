package enums

import "strings"

type Role string

const (
	RoleNone             Role = "NONE"
	RoleCitizen          Role = "citizen"
	RoleOfficialPending  Role = "official_pending"
	RoleOfficialVerified Role = "official_verified"
	RoleAdmin            Role = "admin"
)

func ParseRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "citizen":
		return RoleCitizen
	case "official_pending":
		return RoleOfficialPending
	case "official_verified":
		return RoleOfficialVerified
	case "admin":
		return RoleAdmin
	default:
		return RoleNone
	}
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

func (r Role) IsAuthenticated() bool {
	return r != RoleNone
}
