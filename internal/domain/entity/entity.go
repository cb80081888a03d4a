// Package entity define los documentos de identidad persistidos en el store:
// User, Role y las entidades vínculo (claims, logins, roles y tokens de usuario).
//
// Cada tipo expone su discriminador de partición con PartitionKey(); el valor
// es fijo por tipo, así el path de escritura y el de consulta lo resuelven igual.
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Discriminadores de partición (nombre del tipo).
const (
	KindUser      = "IdentityUser"
	KindRole      = "IdentityRole"
	KindUserClaim = "IdentityUserClaim"
	KindRoleClaim = "IdentityRoleClaim"
	KindUserLogin = "IdentityUserLogin"
	KindUserRole  = "IdentityUserRole"
	KindUserToken = "IdentityUserToken"
)

// Kinds lista todos los discriminadores conocidos.
var Kinds = []string{KindUser, KindRole, KindUserClaim, KindRoleClaim, KindUserLogin, KindUserRole, KindUserToken}

// Entity es lo que el storage provider sabe persistir.
type Entity interface {
	// EntityID retorna el id del documento (campo "id").
	EntityID() string

	// PartitionKey retorna el discriminador de partición del tipo.
	// "" significa "sin partición".
	PartitionKey() string
}

// Versioned lo implementan las entidades que llevan _etag.
type Versioned interface {
	Version() string
}

// Document son los campos comunes a todos los documentos.
type Document struct {
	ID string `json:"id"`

	// TTL en segundos; nil usa el default del container.
	TTL *int `json:"ttl,omitempty"`

	// Propiedades de sistema que completa el store.
	ETag      string `json:"_etag,omitempty"`
	Timestamp int64  `json:"_ts,omitempty"`
}

func (d *Document) EntityID() string { return d.ID }

func (d *Document) Version() string { return d.ETag }

// EnsureID asigna un id GUID si el documento no tiene uno.
func (d *Document) EnsureID() string {
	if d.ID == "" {
		d.ID = NewID()
	}
	return d.ID
}

// ModifiedAt retorna el _ts como time.Time (cero si nunca se persistió).
func (d *Document) ModifiedAt() time.Time {
	if d.Timestamp == 0 {
		return time.Time{}
	}
	return time.Unix(d.Timestamp, 0).UTC()
}

// NewID genera un id GUID.
func NewID() string { return uuid.NewString() }

// Normalize aplica la normalización de lookup (mayúsculas invariantes).
func Normalize(s string) string { return strings.ToUpper(s) }
