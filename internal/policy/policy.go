package policy

import (
	"errors"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

type Operation string

const (
	ReadPublic Operation = "read_public"
	Create     Operation = "create"
	UpdateOwn  Operation = "update_own"
	DeleteOwn  Operation = "delete_own"
	AdminOnly  Operation = "admin_only"
)

type Capability string

const ManageCategories Capability = "categories:manage"

// Identity is the resolved caller of a request.
type Identity struct {
	UserID  uint
	Name    string
	Email   string
	Roles   []string
	TokenID string
}

// Guard decides whether a caller may perform an operation. It holds no
// request state and never touches storage; callers load the owning user id
// first and pass nil when the resource does not exist.
type Guard struct {
	grants map[string]map[Capability]struct{}
}

// DefaultGrants is the role table used by the server.
func DefaultGrants() map[string][]Capability {
	return map[string][]Capability{
		"admin": {ManageCategories},
	}
}

func NewGuard(grants map[string][]Capability) *Guard {
	g := &Guard{grants: make(map[string]map[Capability]struct{}, len(grants))}
	for role, caps := range grants {
		set := make(map[Capability]struct{}, len(caps))
		for _, c := range caps {
			set[c] = struct{}{}
		}
		g.grants[role] = set
	}
	return g
}

// Can reports whether any of the caller's roles grants c.
func (g *Guard) Can(caller *Identity, c Capability) bool {
	if caller == nil {
		return false
	}
	for _, role := range caller.Roles {
		if _, ok := g.grants[role][c]; ok {
			return true
		}
	}
	return false
}

// Authorize returns nil, ErrUnauthenticated or ErrForbidden. Unknown
// operations are denied.
func (g *Guard) Authorize(caller *Identity, op Operation, owner *uint) error {
	switch op {
	case ReadPublic:
		return nil
	case Create:
		if caller == nil {
			return ErrUnauthenticated
		}
		return nil
	case UpdateOwn, DeleteOwn:
		if caller == nil {
			return ErrUnauthenticated
		}
		// missing resource and foreign resource look the same to the caller
		if owner == nil || *owner != caller.UserID {
			return ErrForbidden
		}
		return nil
	case AdminOnly:
		if caller == nil {
			return ErrUnauthenticated
		}
		if !g.Can(caller, ManageCategories) {
			return ErrForbidden
		}
		return nil
	default:
		return ErrForbidden
	}
}
