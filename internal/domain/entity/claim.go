package entity

import "strings"

// ClaimSeparator separa tipo y valor dentro de un token de claim.
const ClaimSeparator = "|"

// Claim es un par tipo/valor.
type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Token retorna la representación aplanada "tipo|valor" (escapada).
func (c Claim) Token() string {
	return EscapeToken(c.Type) + ClaimSeparator + EscapeToken(c.Value)
}

// ParseClaimToken es el inverso de Claim.Token.
func ParseClaimToken(t string) (Claim, bool) {
	typ, val, ok := strings.Cut(t, ClaimSeparator)
	if !ok {
		return Claim{}, false
	}
	return Claim{Type: UnescapeToken(typ), Value: UnescapeToken(val)}, true
}

// UserClaim vincula un claim a un usuario.
type UserClaim struct {
	Document

	UserID     string `json:"UserId"`
	ClaimType  string `json:"ClaimType"`
	ClaimValue string `json:"ClaimValue"`
}

func (*UserClaim) PartitionKey() string { return KindUserClaim }

// NewUserClaim crea el vínculo con un id GUID nuevo.
func NewUserClaim(userID string, c Claim) *UserClaim {
	return &UserClaim{Document: Document{ID: NewID()}, UserID: userID, ClaimType: c.Type, ClaimValue: c.Value}
}

// ToClaim convierte el documento a Claim.
func (uc *UserClaim) ToClaim() Claim { return Claim{Type: uc.ClaimType, Value: uc.ClaimValue} }

// SetClaim reemplaza tipo y valor.
func (uc *UserClaim) SetClaim(c Claim) {
	uc.ClaimType = c.Type
	uc.ClaimValue = c.Value
}

// RoleClaim vincula un claim a un rol.
type RoleClaim struct {
	Document

	RoleID     string `json:"RoleId"`
	ClaimType  string `json:"ClaimType"`
	ClaimValue string `json:"ClaimValue"`
}

func (*RoleClaim) PartitionKey() string { return KindRoleClaim }

// NewRoleClaim crea el vínculo con un id GUID nuevo.
func NewRoleClaim(roleID string, c Claim) *RoleClaim {
	return &RoleClaim{Document: Document{ID: NewID()}, RoleID: roleID, ClaimType: c.Type, ClaimValue: c.Value}
}

// ToClaim convierte el documento a Claim.
func (rc *RoleClaim) ToClaim() Claim { return Claim{Type: rc.ClaimType, Value: rc.ClaimValue} }
