package entity

import "time"

// User es el documento de usuario.
//
// FlattenRoleNames, FlattenRoleIds y FlattenClaims son índices inversos
// embebidos (listas "a,b,c,") que reemplazan los joins contra UserRole y
// UserClaim. Deben mantenerse consistentes en cada alta o baja de vínculo.
type User struct {
	Document

	UserName             string     `json:"UserName"`
	NormalizedUserName   string     `json:"NormalizedUserName"`
	Email                string     `json:"Email,omitempty"`
	NormalizedEmail      string     `json:"NormalizedEmail,omitempty"`
	EmailConfirmed       bool       `json:"EmailConfirmed"`
	PasswordHash         string     `json:"PasswordHash,omitempty"`
	SecurityStamp        string     `json:"SecurityStamp,omitempty"`
	ConcurrencyStamp     string     `json:"ConcurrencyStamp,omitempty"`
	PhoneNumber          string     `json:"PhoneNumber,omitempty"`
	PhoneNumberConfirmed bool       `json:"PhoneNumberConfirmed"`
	TwoFactorEnabled     bool       `json:"TwoFactorEnabled"`
	LockoutEnd           *time.Time `json:"LockoutEnd,omitempty"`
	LockoutEnabled       bool       `json:"LockoutEnabled"`
	AccessFailedCount    int        `json:"AccessFailedCount"`

	FlattenRoleNames string `json:"FlattenRoleNames,omitempty"`
	FlattenRoleIds   string `json:"FlattenRoleIds,omitempty"`
	FlattenClaims    string `json:"FlattenClaims,omitempty"`
}

func (*User) PartitionKey() string { return KindUser }

// NewUser crea un usuario con id y stamps nuevos.
func NewUser(userName string) *User {
	return &User{
		Document:           Document{ID: NewID()},
		UserName:           userName,
		NormalizedUserName: Normalize(userName),
		SecurityStamp:      NewID(),
		ConcurrencyStamp:   NewID(),
	}
}

// AddRole agrega el rol a las listas aplanadas. Idempotente.
func (u *User) AddRole(r *Role) {
	u.FlattenRoleNames = AppendToken(u.FlattenRoleNames, EscapeToken(r.Name))
	u.FlattenRoleIds = AppendToken(u.FlattenRoleIds, EscapeToken(r.ID))
}

// RemoveRole quita el rol de las listas aplanadas (token exacto).
func (u *User) RemoveRole(r *Role) {
	u.FlattenRoleNames = RemoveToken(u.FlattenRoleNames, EscapeToken(r.Name))
	u.FlattenRoleIds = RemoveToken(u.FlattenRoleIds, EscapeToken(r.ID))
}

// RenameRole reemplaza el nombre de un rol en FlattenRoleNames.
func (u *User) RenameRole(oldName, newName string) {
	if !HasToken(u.FlattenRoleNames, EscapeToken(oldName)) {
		return
	}
	u.FlattenRoleNames = RemoveToken(u.FlattenRoleNames, EscapeToken(oldName))
	u.FlattenRoleNames = AppendToken(u.FlattenRoleNames, EscapeToken(newName))
}

// RoleNames retorna los nombres de rol aplanados.
func (u *User) RoleNames() []string {
	tokens := SplitTokens(u.FlattenRoleNames)
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, UnescapeToken(t))
	}
	return out
}

// HasRoleID reporta si el id de rol está en FlattenRoleIds.
func (u *User) HasRoleID(roleID string) bool {
	return HasToken(u.FlattenRoleIds, EscapeToken(roleID))
}

// AddClaim agrega el claim a FlattenClaims. Idempotente.
func (u *User) AddClaim(c Claim) {
	u.FlattenClaims = AppendToken(u.FlattenClaims, c.Token())
}

// RemoveClaim quita el claim de FlattenClaims (token exacto).
func (u *User) RemoveClaim(c Claim) {
	u.FlattenClaims = RemoveToken(u.FlattenClaims, c.Token())
}

// FlattenedClaims decodifica FlattenClaims.
func (u *User) FlattenedClaims() []Claim {
	tokens := SplitTokens(u.FlattenClaims)
	out := make([]Claim, 0, len(tokens))
	for _, t := range tokens {
		if c, ok := ParseClaimToken(t); ok {
			out = append(out, c)
		}
	}
	return out
}
