package store

import (
	"context"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
	"github.com/mobsites/Cosmos.Identity/internal/domain/entity"
	"github.com/mobsites/Cosmos.Identity/internal/storage"
)

// UserClaims es el repositorio de claims de usuario.
type UserClaims struct {
	*storage.Collection[entity.UserClaim, *entity.UserClaim]
	users *Users
}

func NewUserClaims(p storage.Provider, users *Users) *UserClaims {
	return &UserClaims{Collection: storage.NewCollection[entity.UserClaim](p), users: users}
}

func claimWhere(c entity.Claim) []docstore.Condition {
	return []docstore.Condition{docstore.Eq(fieldClaimType, c.Type), docstore.Eq(fieldClaimValue, c.Value)}
}

// ForUser retorna los claims del usuario.
func (r *UserClaims) ForUser(ctx context.Context, userID string) []*entity.UserClaim {
	return r.Find(ctx, docstore.Eq(fieldUserID, userID))
}

// ScanForUser es ForUser con propagación de errores.
func (r *UserClaims) ScanForUser(ctx context.Context, userID string) ([]*entity.UserClaim, error) {
	return r.Scan(ctx, docstore.Eq(fieldUserID, userID))
}

// Matching retorna los documentos del usuario con ese tipo y valor.
func (r *UserClaims) Matching(ctx context.Context, userID string, c entity.Claim) []*entity.UserClaim {
	return r.Find(ctx, append(claimWhere(c), docstore.Eq(fieldUserID, userID))...)
}

// ScanMatching es Matching con propagación de errores.
func (r *UserClaims) ScanMatching(ctx context.Context, userID string, c entity.Claim) ([]*entity.UserClaim, error) {
	return r.Scan(ctx, append(claimWhere(c), docstore.Eq(fieldUserID, userID))...)
}

// GetClaims retorna los claims del usuario como pares tipo/valor.
func (r *UserClaims) GetClaims(ctx context.Context, userID string) []entity.Claim {
	docs := r.ForUser(ctx, userID)
	out := make([]entity.Claim, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ToClaim())
	}
	return out
}

// GetUsers resuelve los usuarios que tienen el claim a partir de los vínculos.
// Los vínculos cuyo usuario ya no existe se omiten.
func (r *UserClaims) GetUsers(ctx context.Context, c entity.Claim) []*entity.User {
	docs := r.Find(ctx, claimWhere(c)...)
	seen := make(map[string]bool, len(docs))
	out := make([]*entity.User, 0, len(docs))
	for _, d := range docs {
		if seen[d.UserID] {
			continue
		}
		seen[d.UserID] = true
		if u := r.users.FindByID(ctx, d.UserID); u != nil {
			out = append(out, u)
		}
	}
	return out
}

// RoleClaims es el repositorio de claims de rol.
type RoleClaims struct {
	*storage.Collection[entity.RoleClaim, *entity.RoleClaim]
}

func NewRoleClaims(p storage.Provider) *RoleClaims {
	return &RoleClaims{Collection: storage.NewCollection[entity.RoleClaim](p)}
}

func (r *RoleClaims) ForRole(ctx context.Context, roleID string) []*entity.RoleClaim {
	return r.Find(ctx, docstore.Eq(fieldRoleID, roleID))
}

func (r *RoleClaims) ScanForRole(ctx context.Context, roleID string) ([]*entity.RoleClaim, error) {
	return r.Scan(ctx, docstore.Eq(fieldRoleID, roleID))
}

// Matching retorna los documentos del rol con ese tipo y valor.
func (r *RoleClaims) Matching(ctx context.Context, roleID string, c entity.Claim) []*entity.RoleClaim {
	return r.Find(ctx, append(claimWhere(c), docstore.Eq(fieldRoleID, roleID))...)
}

func (r *RoleClaims) ScanMatching(ctx context.Context, roleID string, c entity.Claim) ([]*entity.RoleClaim, error) {
	return r.Scan(ctx, append(claimWhere(c), docstore.Eq(fieldRoleID, roleID))...)
}

func (r *RoleClaims) GetClaims(ctx context.Context, roleID string) []entity.Claim {
	docs := r.ForRole(ctx, roleID)
	out := make([]entity.Claim, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ToClaim())
	}
	return out
}
