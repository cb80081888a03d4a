package identity

import (
	"context"

	"go.uber.org/zap"

	"github.com/mobsites/Cosmos.Identity/internal/domain/entity"
	"github.com/mobsites/Cosmos.Identity/internal/observability/logger"
	"github.com/mobsites/Cosmos.Identity/internal/storage"
	"github.com/mobsites/Cosmos.Identity/internal/store"
)

const componentUsers = "identity.users"

// UserStore es el store de usuarios: CRUD, roles, claims, logins y tokens.
type UserStore struct {
	repos *store.Repositories
	cfg   Config
	log   *zap.Logger
	rmw   *userMutator
}

// NewUserStore crea el store de usuarios sobre repos.
func NewUserStore(repos *store.Repositories, opts ...Option) *UserStore {
	s := newSettings("identity", opts)
	return &UserStore{
		repos: repos,
		cfg:   s.cfg,
		log:   s.log.With(logger.Component(componentUsers)),
		rmw:   &userMutator{users: repos.Users, cfg: s.cfg},
	}
}

// Create persiste un usuario nuevo.
func (s *UserStore) Create(ctx context.Context, u *entity.User) (storage.Result, error) {
	if u == nil {
		return storage.Result{}, argNil("user")
	}
	if u.ConcurrencyStamp == "" {
		u.ConcurrencyStamp = entity.NewID()
	}
	return s.repos.Users.Create(ctx, u), nil
}

// Update reemplaza el documento con un ConcurrencyStamp nuevo. Si u trae
// _etag, un cambio concurrente hace fallar el update con 412.
func (s *UserStore) Update(ctx context.Context, u *entity.User) (storage.Result, error) {
	if u == nil {
		return storage.Result{}, argNil("user")
	}
	prev := u.ConcurrencyStamp
	u.ConcurrencyStamp = entity.NewID()
	res := s.repos.Users.Update(ctx, u)
	if !res.Succeeded {
		u.ConcurrencyStamp = prev
	}
	return res, nil
}

// Delete borra el usuario y, si tuvo éxito, sus roles, claims, logins y
// tokens. La cascada no se revierte: si algún vínculo no pudo borrarse se
// retorna el Result del usuario junto con un error ErrCascadeIncomplete.
func (s *UserStore) Delete(ctx context.Context, u *entity.User) (storage.Result, error) {
	if u == nil {
		return storage.Result{}, argNil("user")
	}
	res := s.repos.Users.Delete(ctx, u)
	if !res.Succeeded {
		return res, nil
	}
	log := s.log.With(logger.Op("Delete"), logger.UserID(u.ID))
	c := newCascade(cascadeDelete, u.ID, s.cfg.CascadeAttempts, log)

	roles, err := s.repos.UserRoles.ScanForUser(ctx, u.ID)
	deleteEach(ctx, c, stepUserRoles, roles, err, s.repos.UserRoles.Delete)

	claims, err := s.repos.UserClaims.ScanForUser(ctx, u.ID)
	deleteEach(ctx, c, stepUserClaims, claims, err, s.repos.UserClaims.Delete)

	logins, err := s.repos.UserLogins.ScanForUser(ctx, u.ID)
	deleteEach(ctx, c, stepUserLogins, logins, err, s.repos.UserLogins.Delete)

	tokens, err := s.repos.UserTokens.ScanForUser(ctx, u.ID)
	deleteEach(ctx, c, stepUserTokens, tokens, err, s.repos.UserTokens.Delete)

	return res, c.err()
}

// FindByID retorna nil si no existe o el store falla.
func (s *UserStore) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if id == "" {
		return nil, argEmpty("userId")
	}
	return s.repos.Users.FindByID(ctx, id), nil
}

// FindByName busca por nombre de usuario normalizado.
func (s *UserStore) FindByName(ctx context.Context, normalizedUserName string) (*entity.User, error) {
	if normalizedUserName == "" {
		return nil, argEmpty("normalizedUserName")
	}
	return s.repos.Users.FindByName(ctx, normalizedUserName), nil
}

// FindByEmail busca por email normalizado.
func (s *UserStore) FindByEmail(ctx context.Context, normalizedEmail string) (*entity.User, error) {
	if normalizedEmail == "" {
		return nil, argEmpty("normalizedEmail")
	}
	return s.repos.Users.FindByEmail(ctx, normalizedEmail), nil
}

// Users retorna todos los usuarios.
func (s *UserStore) Users(ctx context.Context) []*entity.User {
	return s.repos.Users.All(ctx)
}
