package wallet

import (
	"strings"

	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

// Role identifies which key within an account authorizes an operation.
// Every signing and encryption call is parameterized by exactly one role.
type Role string

// Account roles.
const (
	RolePosting Role = "posting"
	RoleActive  Role = "active"
	RoleOwner   Role = "owner"
	RoleMemo    Role = "memo"
)

// AllRoles lists every role a wallet file can hold, in probe order.
var AllRoles = []Role{RolePosting, RoleActive, RoleOwner, RoleMemo}

// ParseRole parses a role string.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RolePosting:
		return RolePosting, nil
	case RoleActive:
		return RoleActive, nil
	case RoleOwner:
		return RoleOwner, nil
	case RoleMemo:
		return RoleMemo, nil
	default:
		return "", hberr.WithDetails(hberr.ErrInvalidInput,
			map[string]string{"role": s})
	}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RolePosting, RoleActive, RoleOwner, RoleMemo:
		return true
	default:
		return false
	}
}

// String returns the role name.
func (r Role) String() string {
	return string(r)
}
