// Package store implementa los repositorios por tipo de entidad sobre el
// storage provider: finders tipados que arman queries por predicado.
//
// Las lecturas son best-effort (error del store → vacío + warning); las
// escrituras devuelven storage.Result. Los métodos Scan* retornan el error
// del store y los usa el delete en cascada.
package store

import (
	"time"

	"github.com/mobsites/Cosmos.Identity/internal/cache"
	"github.com/mobsites/Cosmos.Identity/internal/storage"
)

// Nombres de campo usados en las queries (coinciden con los tags JSON).
const (
	fieldUserID             = "UserId"
	fieldRoleID             = "RoleId"
	fieldClaimType          = "ClaimType"
	fieldClaimValue         = "ClaimValue"
	fieldLoginProvider      = "LoginProvider"
	fieldProviderKey        = "ProviderKey"
	fieldName               = "Name"
	fieldNormalizedName     = "NormalizedName"
	fieldNormalizedUserName = "NormalizedUserName"
	fieldNormalizedEmail    = "NormalizedEmail"
	fieldFlattenRoleIds     = "FlattenRoleIds"
	fieldFlattenClaims      = "FlattenClaims"
)

// Repositories agrupa los repositorios de identidad sobre un mismo provider.
type Repositories struct {
	Users      *Users
	Roles      *Roles
	UserClaims *UserClaims
	UserRoles  *UserRoles
	UserLogins *UserLogins
	UserTokens *UserTokens
	RoleClaims *RoleClaims
}

// Option configura los repositorios.
type Option func(*options)

type options struct {
	roleCache cache.Client
	cacheTTL  time.Duration
}

// WithRoleCache cachea el id de rol por nombre normalizado.
func WithRoleCache(c cache.Client, ttl time.Duration) Option {
	return func(o *options) {
		o.roleCache = c
		o.cacheTTL = ttl
	}
}

// New crea todos los repositorios.
func New(p storage.Provider, opts ...Option) *Repositories {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	users := NewUsers(p)
	roles := NewRoles(p, o.roleCache, o.cacheTTL)
	return &Repositories{
		Users:      users,
		Roles:      roles,
		UserClaims: NewUserClaims(p, users),
		UserRoles:  NewUserRoles(p, users, roles),
		UserLogins: NewUserLogins(p),
		UserTokens: NewUserTokens(p),
		RoleClaims: NewRoleClaims(p),
	}
}
