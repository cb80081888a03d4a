// Package docstore define el contrato del document store particionado sobre
// el que se persisten las entidades de identidad.
//
// El store se trata como una caja negra que ofrece:
//   - create/read/replace/delete de un documento por (id, partition key)
//   - queries por predicado, acotadas a una partición y paginadas
//
// Los documentos viajan como JSON crudo. Cada container declara el path
// (ej: "/PartitionKey") del campo que contiene la partition key del documento.
//
// Las implementaciones concretas viven en internal/docstore/adapters/ y se
// registran con RegisterAdapter desde su init().
package docstore

import (
	"context"
	"encoding/json"
)

// DefaultPartitionKeyPath es el path usado cuando la configuración no define uno.
const DefaultPartitionKeyPath = "/PartitionKey"

// Client es la conexión a un document store.
type Client interface {
	// CreateDatabaseIfNotExists crea la base si no existe. Idempotente.
	CreateDatabaseIfNotExists(ctx context.Context, id string) (Database, error)

	// Database retorna una base existente o ErrNotFound (404).
	Database(ctx context.Context, id string) (Database, error)

	Ping(ctx context.Context) error
	Close() error
}

// Database agrupa containers.
type Database interface {
	ID() string

	// CreateContainerIfNotExists crea el container si no existe. Idempotente:
	// si ya existe se retornan sus propiedades originales.
	CreateContainerIfNotExists(ctx context.Context, props ContainerProperties) (Container, error)

	// Container retorna un container existente o ErrNotFound (404).
	Container(ctx context.Context, id string) (Container, error)
}

// ContainerProperties describe un container.
type ContainerProperties struct {
	ID               string `json:"id" yaml:"id"`
	PartitionKeyPath string `json:"partitionKeyPath" yaml:"partition_key_path"`
	// DefaultTTL en segundos. 0 = sin expiración por defecto.
	DefaultTTL int `json:"defaultTtl,omitempty" yaml:"default_ttl,omitempty"`
}

// Container es la unidad de particionado y consulta.
type Container interface {
	ID() string
	Properties() ContainerProperties

	CreateItem(ctx context.Context, pk PartitionKey, doc []byte) (*ItemResponse, error)
	ReadItem(ctx context.Context, id string, pk PartitionKey) (*ItemResponse, error)
	ReplaceItem(ctx context.Context, id string, pk PartitionKey, doc []byte, opts *ItemOptions) (*ItemResponse, error)
	DeleteItem(ctx context.Context, id string, pk PartitionKey) (*ItemResponse, error)

	// Query ejecuta un predicado dentro de una partición. Una partición sin
	// documentos (o una partition key equivocada) produce cero resultados.
	Query(ctx context.Context, pk PartitionKey, q Query) Pager
}

// ItemOptions opciones de escritura.
type ItemOptions struct {
	// IfMatch: si no está vacío, el replace falla con 412 cuando el _etag
	// almacenado es distinto.
	IfMatch string
}

// ItemResponse es la respuesta de una operación puntual.
type ItemResponse struct {
	StatusCode int
	ETag       string
	// Body es el documento almacenado (con propiedades de sistema). Vacío en delete.
	Body json.RawMessage
}

// Pager recorre los resultados de una query página por página.
type Pager interface {
	HasMoreResults() bool
	ReadNext(ctx context.Context) (Page, error)
}

// Page es una página de resultados.
type Page struct {
	Items             []json.RawMessage
	ContinuationToken string
}
