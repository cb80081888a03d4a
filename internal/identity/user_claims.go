package identity

import (
	"context"
	"errors"
	"net/http"

	"github.com/mobsites/Cosmos.Identity/internal/domain/entity"
	"github.com/mobsites/Cosmos.Identity/internal/observability/logger"
)

func checkClaim(c entity.Claim) error {
	if c.Type == "" {
		return argEmpty("claim.Type")
	}
	return nil
}

// GetClaims retorna los claims del usuario desde sus documentos UserClaim.
func (s *UserStore) GetClaims(ctx context.Context, u *entity.User) ([]entity.Claim, error) {
	if u == nil {
		return nil, argNil("user")
	}
	return s.repos.UserClaims.GetClaims(ctx, u.ID), nil
}

// AddClaims crea un UserClaim por claim y agrega los creados a
// FlattenClaims. Si alguna creación falla, los anteriores quedan persistidos
// y reflejados en el aplanado.
func (s *UserStore) AddClaims(ctx context.Context, u *entity.User, claims []entity.Claim) error {
	if u == nil {
		return argNil("user")
	}
	if claims == nil {
		return argNil("claims")
	}
	for _, c := range claims {
		if err := checkClaim(c); err != nil {
			return err
		}
	}

	var (
		added []entity.Claim
		werr  error
	)
	for _, c := range claims {
		res := s.repos.UserClaims.Create(ctx, entity.NewUserClaim(u.ID, c))
		if !res.Succeeded {
			s.log.Warn("user claim not created", logger.Op("AddClaims"), logger.UserID(u.ID), logger.Status(res.StatusCode))
			werr = res.Err()
			break
		}
		added = append(added, c)
	}
	if len(added) == 0 {
		return werr
	}
	err := s.rmw.mutate(ctx, "add_claims", u, func(x *entity.User) bool {
		before := x.FlattenClaims
		for _, c := range added {
			x.AddClaim(c)
		}
		return x.FlattenClaims != before
	})
	return errors.Join(werr, err)
}

// ReplaceClaim cambia cada UserClaim (tipo y valor) igual a claim por
// newClaim y actualiza FlattenClaims por token exacto. Un error al leer los
// UserClaim se retorna sin tocar nada.
func (s *UserStore) ReplaceClaim(ctx context.Context, u *entity.User, claim, newClaim entity.Claim) error {
	if u == nil {
		return argNil("user")
	}
	if err := checkClaim(claim); err != nil {
		return err
	}
	if err := checkClaim(newClaim); err != nil {
		return err
	}

	docs, err := s.repos.UserClaims.ScanMatching(ctx, u.ID, claim)
	if err != nil {
		return err
	}
	var (
		replaced, failed int
		werr             error
	)
	for _, doc := range docs {
		doc.SetClaim(newClaim)
		res := s.repos.UserClaims.Update(ctx, doc)
		if !res.Succeeded {
			failed++
			werr = res.Err()
			continue
		}
		replaced++
	}
	if replaced == 0 {
		return werr
	}
	err = s.rmw.mutate(ctx, "replace_claim", u, func(x *entity.User) bool {
		before := x.FlattenClaims
		if failed == 0 {
			x.RemoveClaim(claim)
		}
		x.AddClaim(newClaim)
		return x.FlattenClaims != before
	})
	return errors.Join(werr, err)
}

// RemoveClaims borra los UserClaim iguales a cada claim y quita los tokens
// de FlattenClaims. Un claim cuya lectura o borrado falló conserva su token.
func (s *UserStore) RemoveClaims(ctx context.Context, u *entity.User, claims []entity.Claim) error {
	if u == nil {
		return argNil("user")
	}
	if claims == nil {
		return argNil("claims")
	}

	var (
		removed []entity.Claim
		werr    error
	)
	for _, c := range claims {
		docs, err := s.repos.UserClaims.ScanMatching(ctx, u.ID, c)
		if err != nil {
			s.log.Warn("user claims not read", logger.Op("RemoveClaims"), logger.UserID(u.ID), logger.Err(err))
			werr = err
			continue
		}
		ok := true
		for _, doc := range docs {
			if res := s.repos.UserClaims.Delete(ctx, doc); !res.Succeeded && res.StatusCode != http.StatusNotFound {
				ok = false
				werr = res.Err()
			}
		}
		if ok {
			removed = append(removed, c)
		}
	}
	if len(removed) == 0 {
		return werr
	}
	err := s.rmw.mutate(ctx, "remove_claims", u, func(x *entity.User) bool {
		before := x.FlattenClaims
		for _, c := range removed {
			x.RemoveClaim(c)
		}
		return x.FlattenClaims != before
	})
	return errors.Join(werr, err)
}

// GetUsersForClaim recorre FlattenClaims de todos los usuarios.
func (s *UserStore) GetUsersForClaim(ctx context.Context, claim entity.Claim) ([]*entity.User, error) {
	if err := checkClaim(claim); err != nil {
		return nil, err
	}
	return s.repos.Users.ForClaim(ctx, claim), nil
}
