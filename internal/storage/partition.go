package storage

import (
	"reflect"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
	"github.com/mobsites/Cosmos.Identity/internal/domain/entity"
)

// ResolvePartitionKey es la única función que traduce el discriminador de una
// entidad a partition key. La usan escrituras, lecturas puntuales y queries:
// una query con otra partition key devuelve cero filas sin error.
func ResolvePartitionKey(e entity.Entity) docstore.PartitionKey {
	if isNil(e) {
		return docstore.None
	}
	pk := e.PartitionKey()
	if pk == "" {
		return docstore.None
	}
	return docstore.NewPartitionKey(pk)
}

// kindOf retorna el tipo lógico de la entidad para ruteo y métricas.
// Entidades sin discriminador usan el nombre del tipo Go.
func kindOf(e entity.Entity) string {
	if isNil(e) {
		return "<nil>"
	}
	if k := e.PartitionKey(); k != "" {
		return k
	}
	t := reflect.TypeOf(e)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// isNil detecta también punteros tipados nil dentro de la interfaz.
func isNil(e entity.Entity) bool {
	if e == nil {
		return true
	}
	v := reflect.ValueOf(e)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
