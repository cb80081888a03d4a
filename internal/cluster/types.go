// Package cluster replica el motor de documentos en memoria a través de Raft.
// Los writes se proponen como Command en el log; cada réplica los aplica sobre
// su propio memory.Engine con el mismo Stamp, así el estado es idéntico.
package cluster

import (
	"encoding/json"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
)

// CommandType define el catálogo de operaciones replicadas.
type CommandType string

const (
	CmdCreateDatabase  CommandType = "create_database"
	CmdCreateContainer CommandType = "create_container"
	CmdCreateItem      CommandType = "create_item"
	CmdReplaceItem     CommandType = "replace_item"
	CmdDeleteItem      CommandType = "delete_item"
)

// Command es una operación a replicar por Raft.
// Lleva todo lo no determinístico (etag, timestamp) ya resuelto por quien propone.
type Command struct {
	Type         CommandType                   `json:"type"`
	Database     string                        `json:"db"`
	Container    string                        `json:"container,omitempty"`
	Props        *docstore.ContainerProperties `json:"props,omitempty"`
	ID           string                        `json:"id,omitempty"`
	PartitionKey string                        `json:"pk,omitempty"`
	Doc          json.RawMessage               `json:"doc,omitempty"`
	IfMatch      string                        `json:"ifMatch,omitempty"`
	Stamp        docstore.Stamp                `json:"stamp"`
}

// ApplyResult es lo que el FSM devuelve por cada Command aplicado.
type ApplyResult struct {
	Response *docstore.ItemResponse
	Props    docstore.ContainerProperties
	Created  bool
	Err      error
}
