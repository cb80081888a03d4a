package docstore

import (
	"encoding/json"
	"strings"
)

// PartitionKey es el valor que enruta un documento dentro de un container.
// El valor cero es None: documentos sin discriminador de partición.
type PartitionKey struct {
	value string
}

// None es el centinela "sin partición".
var None = PartitionKey{}

// NewPartitionKey envuelve un discriminador. Un string vacío produce None.
func NewPartitionKey(v string) PartitionKey {
	return PartitionKey{value: v}
}

// IsNone reporta si es el centinela sin partición.
func (pk PartitionKey) IsNone() bool { return pk.value == "" }

// Value retorna el discriminador ("" para None).
func (pk PartitionKey) Value() string { return pk.value }

func (pk PartitionKey) String() string {
	if pk.IsNone() {
		return "<none>"
	}
	return pk.value
}

// NormalizePartitionKeyPath aplica el default y asegura el "/" inicial.
func NormalizePartitionKeyPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return DefaultPartitionKeyPath
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func pathSegments(path string) []string {
	return strings.Split(strings.TrimPrefix(NormalizePartitionKeyPath(path), "/"), "/")
}

// Lookup retorna el valor del campo en path dentro de un documento decodificado.
func Lookup(doc map[string]any, path string) (any, bool) {
	var cur any = doc
	for _, seg := range pathSegments(path) {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// PartitionKeyOf extrae la partition key de un documento decodificado.
// Campo ausente, null o "" equivalen a None.
func PartitionKeyOf(doc map[string]any, path string) (PartitionKey, error) {
	v, ok := Lookup(doc, path)
	if !ok || v == nil {
		return None, nil
	}
	s, ok := v.(string)
	if !ok {
		return None, BadRequest("partition key at %s must be a string", path)
	}
	return NewPartitionKey(s), nil
}

// SetPartitionKey escribe (o elimina, si pk es None) la partition key en el
// path indicado de un documento JSON.
func SetPartitionKey(doc []byte, path string, pk PartitionKey) ([]byte, error) {
	m, err := Decode(doc)
	if err != nil {
		return nil, err
	}
	segs := pathSegments(path)
	cur := m
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			if pk.IsNone() {
				return json.Marshal(m)
			}
			next = map[string]any{}
			cur[seg] = next
		}
		cur = next
	}
	last := segs[len(segs)-1]
	if pk.IsNone() {
		delete(cur, last)
	} else {
		cur[last] = pk.Value()
	}
	return json.Marshal(m)
}

// CheckPartition valida que la partition key del documento coincida con la
// del request, igual que un store real rechaza el write con 400.
func CheckPartition(doc map[string]any, path string, pk PartitionKey) error {
	got, err := PartitionKeyOf(doc, path)
	if err != nil {
		return err
	}
	if got != pk {
		return BadRequest("partition key %q extracted from document doesn't match %q", got.Value(), pk.Value())
	}
	return nil
}

// Decode decodifica un documento JSON a map. Retorna 400 si no es un objeto.
func Decode(doc []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, BadRequest("invalid document: %v", err)
	}
	if m == nil {
		return nil, BadRequest("document must be a JSON object")
	}
	return m, nil
}
