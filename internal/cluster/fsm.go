package cluster

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hashicorp/raft"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
	"github.com/mobsites/Cosmos.Identity/internal/docstore/adapters/memory"
)

// FSM implementa raft.FSM sobre un memory.Engine.
// Es determinístico: NO genera IDs ni etags, NO usa time.Now().
type FSM struct {
	engine *memory.Engine
}

// NewFSM crea el FSM sobre engine.
func NewFSM(engine *memory.Engine) *FSM {
	return &FSM{engine: engine}
}

// Engine expone el motor para lecturas locales.
func (f *FSM) Engine() *memory.Engine { return f.engine }

// Apply deserializa el Command y lo ejecuta. Retorna siempre *ApplyResult.
func (f *FSM) Apply(l *raft.Log) interface{} {
	if l == nil || len(l.Data) == 0 {
		return &ApplyResult{}
	}
	var c Command
	if err := json.Unmarshal(l.Data, &c); err != nil {
		return &ApplyResult{Err: fmt.Errorf("cluster: decode command: %w", err)}
	}
	return f.Execute(c)
}

// Execute aplica un Command sobre el motor.
func (f *FSM) Execute(c Command) *ApplyResult {
	pk := docstore.NewPartitionKey(c.PartitionKey)
	switch c.Type {
	case CmdCreateDatabase:
		return &ApplyResult{Created: f.engine.CreateDatabase(c.Database)}
	case CmdCreateContainer:
		if c.Props == nil {
			return &ApplyResult{Err: docstore.BadRequest("container properties are required")}
		}
		props, err := f.engine.CreateContainer(c.Database, *c.Props)
		return &ApplyResult{Props: props, Err: err}
	case CmdCreateItem:
		resp, err := f.engine.Create(c.Database, c.Container, pk, c.Doc, c.Stamp)
		return &ApplyResult{Response: resp, Err: err}
	case CmdReplaceItem:
		resp, err := f.engine.Replace(c.Database, c.Container, c.ID, pk, c.Doc, c.IfMatch, c.Stamp)
		return &ApplyResult{Response: resp, Err: err}
	case CmdDeleteItem:
		resp, err := f.engine.Delete(c.Database, c.Container, c.ID, pk, c.Stamp)
		return &ApplyResult{Response: resp, Err: err}
	}
	return &ApplyResult{Err: docstore.BadRequest("unknown command %q", c.Type)}
}

// Snapshot captura el estado completo del motor.
func (f *FSM) Snapshot() (raft.FSMSnapshot, error) {
	data, err := f.engine.Snapshot()
	if err != nil {
		return nil, err
	}
	return &engineSnapshot{data: data}, nil
}

// Restore reemplaza el estado con un snapshot gzip.
func (f *FSM) Restore(rc io.ReadCloser) error {
	defer rc.Close()
	gz, err := gzip.NewReader(rc)
	if err != nil {
		return fmt.Errorf("cluster: open snapshot: %w", err)
	}
	defer gz.Close()
	data, err := io.ReadAll(gz)
	if err != nil {
		return fmt.Errorf("cluster: read snapshot: %w", err)
	}
	return f.engine.Restore(data)
}

// engineSnapshot implementa raft.FSMSnapshot.
type engineSnapshot struct {
	data []byte
}

func (s *engineSnapshot) Persist(sink raft.SnapshotSink) error {
	gz := gzip.NewWriter(sink)
	if _, err := gz.Write(s.data); err != nil {
		_ = sink.Cancel()
		return err
	}
	if err := gz.Close(); err != nil {
		_ = sink.Cancel()
		return err
	}
	return sink.Close()
}

func (s *engineSnapshot) Release() {}
