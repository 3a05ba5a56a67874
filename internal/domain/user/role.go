package user

import (
	"errors"
	"strings"
)

var ErrInvalidRole = errors.New("user: invalid role")

type Role string

const (
	RoleAdvertiser    Role = "ADVERTISER"
	RolePropertyOwner Role = "PROPERTY_OWNER"
)

var roleLabels = map[string]Role{
	"advertiser":     RoleAdvertiser,
	"property owner": RolePropertyOwner,
	"property_owner": RolePropertyOwner,
	"owner":          RolePropertyOwner,
}

// ParseRole accepts both enum values and the labels shown in the role switcher.
func ParseRole(value string) (Role, error) {
	key := strings.ToLower(strings.TrimSpace(value))
	if role, ok := roleLabels[key]; ok {
		return role, nil
	}
	return "", ErrInvalidRole
}

func (r Role) Label() string {
	switch r {
	case RoleAdvertiser:
		return "Advertiser"
	case RolePropertyOwner:
		return "Property Owner"
	default:
		return string(r)
	}
}

// Principal is the caller as asserted by the upstream proxy.
type Principal struct {
	ID   string
	Role Role
}

func (p Principal) Is(role Role) bool {
	return p.ID != "" && p.Role == role
}
