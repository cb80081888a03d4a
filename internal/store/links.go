package store

import (
	"context"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
	"github.com/mobsites/Cosmos.Identity/internal/domain/entity"
	"github.com/mobsites/Cosmos.Identity/internal/storage"
)

// UserRoles es el repositorio de vínculos usuario-rol.
type UserRoles struct {
	*storage.Collection[entity.UserRole, *entity.UserRole]
	users *Users
	roles *Roles
}

func NewUserRoles(p storage.Provider, users *Users, roles *Roles) *UserRoles {
	return &UserRoles{Collection: storage.NewCollection[entity.UserRole](p), users: users, roles: roles}
}

// Link retorna el vínculo (userID, roleID) o nil.
func (r *UserRoles) Link(ctx context.Context, userID, roleID string) *entity.UserRole {
	return r.First(ctx, docstore.Eq(fieldUserID, userID), docstore.Eq(fieldRoleID, roleID))
}

// Links retorna todos los vínculos (userID, roleID); normalmente uno solo.
func (r *UserRoles) Links(ctx context.Context, userID, roleID string) []*entity.UserRole {
	return r.Find(ctx, docstore.Eq(fieldUserID, userID), docstore.Eq(fieldRoleID, roleID))
}

// ScanLinks es Links con propagación de errores.
func (r *UserRoles) ScanLinks(ctx context.Context, userID, roleID string) ([]*entity.UserRole, error) {
	return r.Scan(ctx, docstore.Eq(fieldUserID, userID), docstore.Eq(fieldRoleID, roleID))
}

func (r *UserRoles) ForUser(ctx context.Context, userID string) []*entity.UserRole {
	return r.Find(ctx, docstore.Eq(fieldUserID, userID))
}

func (r *UserRoles) ScanForUser(ctx context.Context, userID string) ([]*entity.UserRole, error) {
	return r.Scan(ctx, docstore.Eq(fieldUserID, userID))
}

func (r *UserRoles) ForRole(ctx context.Context, roleID string) []*entity.UserRole {
	return r.Find(ctx, docstore.Eq(fieldRoleID, roleID))
}

func (r *UserRoles) ScanForRole(ctx context.Context, roleID string) ([]*entity.UserRole, error) {
	return r.Scan(ctx, docstore.Eq(fieldRoleID, roleID))
}

// GetRoleNames resuelve los nombres de los roles vinculados al usuario.
func (r *UserRoles) GetRoleNames(ctx context.Context, userID string) []string {
	links := r.ForUser(ctx, userID)
	out := make([]string, 0, len(links))
	for _, l := range links {
		if role := r.roles.FindByID(ctx, l.RoleID); role != nil {
			out = append(out, role.Name)
		}
	}
	return out
}

// GetUsers resuelve los usuarios vinculados al rol.
func (r *UserRoles) GetUsers(ctx context.Context, roleID string) []*entity.User {
	links := r.ForRole(ctx, roleID)
	out := make([]*entity.User, 0, len(links))
	for _, l := range links {
		if u := r.users.FindByID(ctx, l.UserID); u != nil {
			out = append(out, u)
		}
	}
	return out
}

// UserLogins es el repositorio de logins externos.
type UserLogins struct {
	*storage.Collection[entity.UserLogin, *entity.UserLogin]
}

func NewUserLogins(p storage.Provider) *UserLogins {
	return &UserLogins{Collection: storage.NewCollection[entity.UserLogin](p)}
}

// ByProvider busca el login por (provider, key) sin importar el usuario.
func (r *UserLogins) ByProvider(ctx context.Context, loginProvider, providerKey string) *entity.UserLogin {
	return r.First(ctx, docstore.Eq(fieldLoginProvider, loginProvider), docstore.Eq(fieldProviderKey, providerKey))
}

// ForUserProvider busca el login (provider, key) del usuario.
func (r *UserLogins) ForUserProvider(ctx context.Context, userID, loginProvider, providerKey string) *entity.UserLogin {
	return r.First(ctx,
		docstore.Eq(fieldUserID, userID),
		docstore.Eq(fieldLoginProvider, loginProvider),
		docstore.Eq(fieldProviderKey, providerKey))
}

func (r *UserLogins) ForUser(ctx context.Context, userID string) []*entity.UserLogin {
	return r.Find(ctx, docstore.Eq(fieldUserID, userID))
}

func (r *UserLogins) ScanForUser(ctx context.Context, userID string) ([]*entity.UserLogin, error) {
	return r.Scan(ctx, docstore.Eq(fieldUserID, userID))
}

func (r *UserLogins) GetLogins(ctx context.Context, userID string) []entity.LoginInfo {
	docs := r.ForUser(ctx, userID)
	out := make([]entity.LoginInfo, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ToLoginInfo())
	}
	return out
}

// UserTokens es el repositorio de tokens de usuario.
type UserTokens struct {
	*storage.Collection[entity.UserToken, *entity.UserToken]
}

func NewUserTokens(p storage.Provider) *UserTokens {
	return &UserTokens{Collection: storage.NewCollection[entity.UserToken](p)}
}

// Token busca el token (userID, loginProvider, name) o nil.
func (r *UserTokens) Token(ctx context.Context, userID, loginProvider, name string) *entity.UserToken {
	return r.First(ctx,
		docstore.Eq(fieldUserID, userID),
		docstore.Eq(fieldLoginProvider, loginProvider),
		docstore.Eq(fieldName, name))
}

func (r *UserTokens) ForUser(ctx context.Context, userID string) []*entity.UserToken {
	return r.Find(ctx, docstore.Eq(fieldUserID, userID))
}

func (r *UserTokens) ScanForUser(ctx context.Context, userID string) ([]*entity.UserToken, error) {
	return r.Scan(ctx, docstore.Eq(fieldUserID, userID))
}
