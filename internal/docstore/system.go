package docstore

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Propiedades de sistema que el store agrega a cada documento.
const (
	FieldID        = "id"
	FieldETag      = "_etag"
	FieldTimestamp = "_ts"
	FieldTTL       = "ttl"
)

// Prepared es un documento validado y sellado, listo para persistir.
type Prepared struct {
	ID   string
	ETag string
	Body []byte
	Doc  map[string]any
}

// Stamp son los valores de sistema de un write. Se generan una sola vez por
// operación para que réplicas que re-aplican el write obtengan el mismo resultado.
type Stamp struct {
	ETag string `json:"etag"`
	Unix int64  `json:"ts"`
}

// NewStamp genera un stamp con etag nuevo y hora actual.
func NewStamp() Stamp {
	return Stamp{ETag: NewETag(), Unix: time.Now().Unix()}
}

// Prepare valida id y partition key y sella _etag/_ts.
// Todos los adapters pasan por acá antes de escribir.
func Prepare(doc []byte, props ContainerProperties, pk PartitionKey, st Stamp) (*Prepared, error) {
	m, err := Decode(doc)
	if err != nil {
		return nil, err
	}
	id, ok := m[FieldID].(string)
	if !ok || id == "" {
		return nil, BadRequest("document is missing the %q property", FieldID)
	}
	if err := CheckPartition(m, props.PartitionKeyPath, pk); err != nil {
		return nil, err
	}
	m[FieldETag] = st.ETag
	m[FieldTimestamp] = st.Unix
	body, err := json.Marshal(m)
	if err != nil {
		return nil, BadRequest("encode document: %v", err)
	}
	return &Prepared{ID: id, ETag: st.ETag, Body: body, Doc: m}, nil
}

// NewETag genera un etag opaco entrecomillado.
func NewETag() string {
	return `"` + uuid.NewString() + `"`
}

// ETagOf retorna el _etag almacenado en un documento decodificado.
func ETagOf(doc map[string]any) string {
	s, _ := doc[FieldETag].(string)
	return s
}

// ExpiresAt retorna el instante unix en que el documento expira; false si no expira.
// ttl: -1 nunca expira, >0 segundos desde _ts, ausente usa el default del
// container (0 = sin expiración).
func ExpiresAt(doc map[string]any, defaultTTL int) (int64, bool) {
	ttl := defaultTTL
	if v, ok := doc[FieldTTL]; ok && v != nil {
		if f, ok := v.(float64); ok {
			ttl = int(f)
		}
	}
	if ttl <= 0 {
		return 0, false
	}
	var ts int64
	switch v := doc[FieldTimestamp].(type) {
	case float64:
		ts = int64(v)
	case int64:
		ts = v
	case json.Number:
		ts, _ = v.Int64()
	}
	return ts + int64(ttl), true
}

// Expired reporta si el documento ya expiró en now.
func Expired(doc map[string]any, defaultTTL int, now time.Time) bool {
	at, ok := ExpiresAt(doc, defaultTTL)
	return ok && now.Unix() >= at
}
