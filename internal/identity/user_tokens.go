package identity

import (
	"context"
	"net/http"
	"strings"

	"github.com/mobsites/Cosmos.Identity/internal/domain/entity"
)

// Tokens internos del store (authenticator y códigos de recuperación).
const (
	internalLoginProvider  = "[AspNetUserStore]"
	authenticatorKeyToken  = "AuthenticatorKey"
	recoveryCodesToken     = "RecoveryCodes"
	recoveryCodesSeparator = ";"
)

// SetToken crea o actualiza el token (provider, name) del usuario.
func (s *UserStore) SetToken(ctx context.Context, u *entity.User, loginProvider, name, value string) error {
	if u == nil {
		return argNil("user")
	}
	if loginProvider == "" {
		return argEmpty("loginProvider")
	}
	if name == "" {
		return argEmpty("name")
	}
	if tok := s.repos.UserTokens.Token(ctx, u.ID, loginProvider, name); tok != nil {
		tok.Value = value
		return s.repos.UserTokens.Update(ctx, tok).Err()
	}
	return s.repos.UserTokens.Create(ctx, entity.NewUserToken(u.ID, loginProvider, name, value)).Err()
}

// RemoveToken borra el token si existe.
func (s *UserStore) RemoveToken(ctx context.Context, u *entity.User, loginProvider, name string) error {
	if u == nil {
		return argNil("user")
	}
	if loginProvider == "" {
		return argEmpty("loginProvider")
	}
	if name == "" {
		return argEmpty("name")
	}
	tok := s.repos.UserTokens.Token(ctx, u.ID, loginProvider, name)
	if tok == nil {
		return nil
	}
	if res := s.repos.UserTokens.Delete(ctx, tok); !res.Succeeded && res.StatusCode != http.StatusNotFound {
		return res.Err()
	}
	return nil
}

// GetToken retorna el valor del token, o "" si no existe.
func (s *UserStore) GetToken(ctx context.Context, u *entity.User, loginProvider, name string) (string, error) {
	if u == nil {
		return "", argNil("user")
	}
	if loginProvider == "" {
		return "", argEmpty("loginProvider")
	}
	if name == "" {
		return "", argEmpty("name")
	}
	tok := s.repos.UserTokens.Token(ctx, u.ID, loginProvider, name)
	if tok == nil {
		return "", nil
	}
	return tok.Value, nil
}

// SetAuthenticatorKey guarda la clave del autenticador como token interno.
func (s *UserStore) SetAuthenticatorKey(ctx context.Context, u *entity.User, key string) error {
	return s.SetToken(ctx, u, internalLoginProvider, authenticatorKeyToken, key)
}

func (s *UserStore) GetAuthenticatorKey(ctx context.Context, u *entity.User) (string, error) {
	return s.GetToken(ctx, u, internalLoginProvider, authenticatorKeyToken)
}

// ReplaceCodes reemplaza los códigos de recuperación vigentes.
func (s *UserStore) ReplaceCodes(ctx context.Context, u *entity.User, codes []string) error {
	return s.SetToken(ctx, u, internalLoginProvider, recoveryCodesToken, strings.Join(codes, recoveryCodesSeparator))
}

// RedeemCode consume un código de recuperación. Retorna false si no es válido.
func (s *UserStore) RedeemCode(ctx context.Context, u *entity.User, code string) (bool, error) {
	if code == "" {
		return false, argEmpty("code")
	}
	codes, err := s.codes(ctx, u)
	if err != nil {
		return false, err
	}
	for i, c := range codes {
		if c != code {
			continue
		}
		rest := append(codes[:i:i], codes[i+1:]...)
		if err := s.ReplaceCodes(ctx, u, rest); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// CountCodes retorna cuántos códigos de recuperación quedan.
func (s *UserStore) CountCodes(ctx context.Context, u *entity.User) (int, error) {
	codes, err := s.codes(ctx, u)
	return len(codes), err
}

func (s *UserStore) codes(ctx context.Context, u *entity.User) ([]string, error) {
	raw, err := s.GetToken(ctx, u, internalLoginProvider, recoveryCodesToken)
	if err != nil || raw == "" {
		return nil, err
	}
	var out []string
	for _, c := range strings.Split(raw, recoveryCodesSeparator) {
		if c != "" {
			out = append(out, c)
		}
	}
	return out, nil
}
