package identity

import (
	"context"
	"net/http"

	"github.com/mobsites/Cosmos.Identity/internal/domain/entity"
)

// AddLogin vincula un login externo al usuario.
func (s *UserStore) AddLogin(ctx context.Context, u *entity.User, info entity.LoginInfo) error {
	if u == nil {
		return argNil("user")
	}
	if info.LoginProvider == "" {
		return argEmpty("loginProvider")
	}
	if info.ProviderKey == "" {
		return argEmpty("providerKey")
	}
	return s.repos.UserLogins.Create(ctx, entity.NewUserLogin(u.ID, info)).Err()
}

// RemoveLogin borra el login (provider, key) del usuario. Si no existe no
// hace nada.
func (s *UserStore) RemoveLogin(ctx context.Context, u *entity.User, loginProvider, providerKey string) error {
	if u == nil {
		return argNil("user")
	}
	if loginProvider == "" {
		return argEmpty("loginProvider")
	}
	if providerKey == "" {
		return argEmpty("providerKey")
	}
	login := s.repos.UserLogins.ForUserProvider(ctx, u.ID, loginProvider, providerKey)
	if login == nil {
		return nil
	}
	if res := s.repos.UserLogins.Delete(ctx, login); !res.Succeeded && res.StatusCode != http.StatusNotFound {
		return res.Err()
	}
	return nil
}

// GetLogins retorna los logins externos del usuario.
func (s *UserStore) GetLogins(ctx context.Context, u *entity.User) ([]entity.LoginInfo, error) {
	if u == nil {
		return nil, argNil("user")
	}
	return s.repos.UserLogins.GetLogins(ctx, u.ID), nil
}

// FindByLogin resuelve el usuario dueño del login (provider, key).
func (s *UserStore) FindByLogin(ctx context.Context, loginProvider, providerKey string) (*entity.User, error) {
	if loginProvider == "" {
		return nil, argEmpty("loginProvider")
	}
	if providerKey == "" {
		return nil, argEmpty("providerKey")
	}
	login := s.repos.UserLogins.ByProvider(ctx, loginProvider, providerKey)
	if login == nil {
		return nil, nil
	}
	return s.repos.Users.FindByID(ctx, login.UserID), nil
}
