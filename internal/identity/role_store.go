package identity

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
	"github.com/mobsites/Cosmos.Identity/internal/domain/entity"
	"github.com/mobsites/Cosmos.Identity/internal/observability/logger"
	"github.com/mobsites/Cosmos.Identity/internal/storage"
	"github.com/mobsites/Cosmos.Identity/internal/store"
)

const componentRoles = "identity.roles"

// RoleStore es el store de roles y sus claims.
type RoleStore struct {
	repos *store.Repositories
	cfg   Config
	log   *zap.Logger
	rmw   *userMutator
}

// NewRoleStore crea el store de roles sobre repos.
func NewRoleStore(repos *store.Repositories, opts ...Option) *RoleStore {
	s := newSettings("identity", opts)
	return &RoleStore{
		repos: repos,
		cfg:   s.cfg,
		log:   s.log.With(logger.Component(componentRoles)),
		rmw:   &userMutator{users: repos.Users, cfg: s.cfg},
	}
}

func (s *RoleStore) Create(ctx context.Context, r *entity.Role) (storage.Result, error) {
	if r == nil {
		return storage.Result{}, argNil("role")
	}
	if r.ConcurrencyStamp == "" {
		r.ConcurrencyStamp = entity.NewID()
	}
	return s.repos.Roles.Create(ctx, r), nil
}

// Update reemplaza el rol. Si cambió el nombre, lo propaga a
// FlattenRoleNames de los usuarios del rol; si algún usuario no pudo
// actualizarse se retorna ErrCascadeIncomplete junto al Result exitoso.
// Si no se puede leer el rol previo no se escribe nada.
func (s *RoleStore) Update(ctx context.Context, r *entity.Role) (storage.Result, error) {
	if r == nil {
		return storage.Result{}, argNil("role")
	}
	prev, err := s.repos.Roles.Get(ctx, r.ID)
	if err != nil {
		return storage.Failed(docstore.StatusCodeOf(err), "%v", err), nil
	}

	stamp := r.ConcurrencyStamp
	r.ConcurrencyStamp = entity.NewID()
	res := s.repos.Roles.Update(ctx, r)
	if !res.Succeeded {
		r.ConcurrencyStamp = stamp
		return res, nil
	}
	if prev == nil || prev.Name == r.Name {
		return res, nil
	}
	s.repos.Roles.Forget(ctx, prev.NormalizedName)

	log := s.log.With(logger.Op("Update"), logger.RoleID(r.ID))
	c := newCascade(cascadeRename, r.ID, s.cfg.CascadeAttempts, log)
	members, err := s.repos.Users.ScanInRole(ctx, r.ID)
	if err != nil {
		c.fail(stepMembers, 1, err)
		return res, c.err()
	}
	var (
		failed  int
		lastErr error
	)
	for _, u := range members {
		err := s.rmw.mutate(ctx, "rename_role", u, func(x *entity.User) bool {
			if !entity.HasToken(x.FlattenRoleNames, entity.EscapeToken(prev.Name)) {
				return false
			}
			x.RenameRole(prev.Name, r.Name)
			return true
		})
		if err != nil {
			failed++
			lastErr = err
		}
	}
	if failed > 0 {
		c.fail(stepMembers, failed, lastErr)
	}
	return res, c.err()
}

// Delete borra el rol y, si tuvo éxito, sus claims, los vínculos
// usuario-rol y el rol de los campos aplanados de sus usuarios.
func (s *RoleStore) Delete(ctx context.Context, r *entity.Role) (storage.Result, error) {
	if r == nil {
		return storage.Result{}, argNil("role")
	}
	res := s.repos.Roles.Delete(ctx, r)
	if !res.Succeeded {
		return res, nil
	}
	log := s.log.With(logger.Op("Delete"), logger.RoleID(r.ID))
	c := newCascade(cascadeDelete, r.ID, s.cfg.CascadeAttempts, log)

	claims, err := s.repos.RoleClaims.ScanForRole(ctx, r.ID)
	deleteEach(ctx, c, stepRoleClaims, claims, err, s.repos.RoleClaims.Delete)

	links, err := s.repos.UserRoles.ScanForRole(ctx, r.ID)
	deleteEach(ctx, c, stepUserRoles, links, err, s.repos.UserRoles.Delete)

	members, err := s.repos.Users.ScanInRole(ctx, r.ID)
	deleteEach(ctx, c, stepMembers, members, err, func(ctx context.Context, u *entity.User) storage.Result {
		err := s.rmw.mutate(ctx, "delete_role", u, func(x *entity.User) bool {
			x.RemoveRole(r)
			return true
		})
		if err != nil {
			return storage.Failed(docstore.StatusCodeOf(err), "%v", err)
		}
		return storage.Success(http.StatusOK)
	})
	return res, c.err()
}

func (s *RoleStore) FindByID(ctx context.Context, id string) (*entity.Role, error) {
	if id == "" {
		return nil, argEmpty("roleId")
	}
	return s.repos.Roles.FindByID(ctx, id), nil
}

// FindByName busca por nombre normalizado (con cache si está configurado).
func (s *RoleStore) FindByName(ctx context.Context, normalizedName string) (*entity.Role, error) {
	if normalizedName == "" {
		return nil, argEmpty("normalizedRoleName")
	}
	return s.repos.Roles.FindByName(ctx, normalizedName), nil
}

// Roles retorna todos los roles.
func (s *RoleStore) Roles(ctx context.Context) []*entity.Role {
	return s.repos.Roles.All(ctx)
}

func (s *RoleStore) GetClaims(ctx context.Context, r *entity.Role) ([]entity.Claim, error) {
	if r == nil {
		return nil, argNil("role")
	}
	return s.repos.RoleClaims.GetClaims(ctx, r.ID), nil
}

func (s *RoleStore) AddClaim(ctx context.Context, r *entity.Role, c entity.Claim) error {
	if r == nil {
		return argNil("role")
	}
	if err := checkClaim(c); err != nil {
		return err
	}
	return s.repos.RoleClaims.Create(ctx, entity.NewRoleClaim(r.ID, c)).Err()
}

// RemoveClaim borra todos los RoleClaim del rol iguales a c.
func (s *RoleStore) RemoveClaim(ctx context.Context, r *entity.Role, c entity.Claim) error {
	if r == nil {
		return argNil("role")
	}
	if err := checkClaim(c); err != nil {
		return err
	}
	docs, err := s.repos.RoleClaims.ScanMatching(ctx, r.ID, c)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if res := s.repos.RoleClaims.Delete(ctx, doc); !res.Succeeded && res.StatusCode != http.StatusNotFound {
			return res.Err()
		}
	}
	return nil
}
