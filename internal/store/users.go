package store

import (
	"context"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
	"github.com/mobsites/Cosmos.Identity/internal/domain/entity"
	"github.com/mobsites/Cosmos.Identity/internal/storage"
)

// Users es el repositorio de usuarios.
type Users struct {
	*storage.Collection[entity.User, *entity.User]
}

func NewUsers(p storage.Provider) *Users {
	return &Users{Collection: storage.NewCollection[entity.User](p)}
}

// FindByName busca por NormalizedUserName. Retorna el primer resultado de la
// primera página; la unicidad no la garantiza el store.
func (r *Users) FindByName(ctx context.Context, normalizedUserName string) *entity.User {
	return r.First(ctx, docstore.Eq(fieldNormalizedUserName, normalizedUserName))
}

// FindByEmail busca por NormalizedEmail.
func (r *Users) FindByEmail(ctx context.Context, normalizedEmail string) *entity.User {
	return r.First(ctx, docstore.Eq(fieldNormalizedEmail, normalizedEmail))
}

// InRole retorna los usuarios cuyo FlattenRoleIds contiene roleID.
func (r *Users) InRole(ctx context.Context, roleID string) []*entity.User {
	return r.Find(ctx, docstore.ContainsToken(fieldFlattenRoleIds, entity.EscapeToken(roleID)))
}

// ScanInRole es InRole con propagación de errores.
func (r *Users) ScanInRole(ctx context.Context, roleID string) ([]*entity.User, error) {
	return r.Scan(ctx, docstore.ContainsToken(fieldFlattenRoleIds, entity.EscapeToken(roleID)))
}

// ForClaim recorre FlattenClaims de todos los usuarios (scan de la partición).
func (r *Users) ForClaim(ctx context.Context, claim entity.Claim) []*entity.User {
	return r.Find(ctx, docstore.ContainsToken(fieldFlattenClaims, claim.Token()))
}
