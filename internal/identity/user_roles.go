package identity

import (
	"context"
	"net/http"

	"github.com/mobsites/Cosmos.Identity/internal/domain/entity"
	"github.com/mobsites/Cosmos.Identity/internal/observability/logger"
)

// AddToRole vincula el usuario al rol y persiste los campos aplanados.
// Retorna ErrRoleNotFound si el rol no existe. Si el vínculo ya existía
// solo se re-deriva el aplanado.
func (s *UserStore) AddToRole(ctx context.Context, u *entity.User, normalizedRoleName string) error {
	if u == nil {
		return argNil("user")
	}
	if normalizedRoleName == "" {
		return argEmpty("normalizedRoleName")
	}
	role, err := s.repos.Roles.LookupByName(ctx, normalizedRoleName)
	if err != nil {
		return err
	}
	if role == nil {
		return roleNotFound(normalizedRoleName)
	}
	links, err := s.repos.UserRoles.ScanLinks(ctx, u.ID, role.ID)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		if res := s.repos.UserRoles.Create(ctx, entity.NewUserRole(u.ID, role.ID)); !res.Succeeded {
			s.log.Warn("user role not created",
				logger.Op("AddToRole"), logger.UserID(u.ID), logger.RoleID(role.ID), logger.Status(res.StatusCode))
			return res.Err()
		}
	}
	return s.rmw.mutate(ctx, "add_to_role", u, func(x *entity.User) bool {
		if x.HasRoleID(role.ID) && entity.HasToken(x.FlattenRoleNames, entity.EscapeToken(role.Name)) {
			return false
		}
		x.AddRole(role)
		return true
	})
}

// RemoveFromRole borra los vínculos usuario-rol y quita el rol (token
// exacto) de los campos aplanados. Un rol inexistente no es error. Si no se
// pueden leer o borrar los vínculos el aplanado queda intacto.
func (s *UserStore) RemoveFromRole(ctx context.Context, u *entity.User, normalizedRoleName string) error {
	if u == nil {
		return argNil("user")
	}
	if normalizedRoleName == "" {
		return argEmpty("normalizedRoleName")
	}
	role, err := s.repos.Roles.LookupByName(ctx, normalizedRoleName)
	if err != nil || role == nil {
		return err
	}
	links, err := s.repos.UserRoles.ScanLinks(ctx, u.ID, role.ID)
	if err != nil {
		return err
	}
	for _, link := range links {
		if res := s.repos.UserRoles.Delete(ctx, link); !res.Succeeded && res.StatusCode != http.StatusNotFound {
			return res.Err()
		}
	}
	return s.rmw.mutate(ctx, "remove_from_role", u, func(x *entity.User) bool {
		if !x.HasRoleID(role.ID) && !entity.HasToken(x.FlattenRoleNames, entity.EscapeToken(role.Name)) {
			return false
		}
		x.RemoveRole(role)
		return true
	})
}

// GetRoles retorna los nombres de rol del usuario (desde FlattenRoleNames).
func (s *UserStore) GetRoles(ctx context.Context, u *entity.User) ([]string, error) {
	if u == nil {
		return nil, argNil("user")
	}
	return u.RoleNames(), nil
}

// IsInRole reporta si el usuario tiene el rol.
func (s *UserStore) IsInRole(ctx context.Context, u *entity.User, normalizedRoleName string) (bool, error) {
	if u == nil {
		return false, argNil("user")
	}
	if normalizedRoleName == "" {
		return false, argEmpty("normalizedRoleName")
	}
	role := s.repos.Roles.FindByName(ctx, normalizedRoleName)
	if role == nil {
		return false, nil
	}
	return u.HasRoleID(role.ID), nil
}

// GetUsersInRole resuelve los usuarios del rol por FlattenRoleIds.
func (s *UserStore) GetUsersInRole(ctx context.Context, normalizedRoleName string) ([]*entity.User, error) {
	if normalizedRoleName == "" {
		return nil, argEmpty("normalizedRoleName")
	}
	role := s.repos.Roles.FindByName(ctx, normalizedRoleName)
	if role == nil {
		return []*entity.User{}, nil
	}
	return s.repos.Users.InRole(ctx, role.ID), nil
}
