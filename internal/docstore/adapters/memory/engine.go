package memory

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
)

// Engine es el motor en memoria: bases → containers → particiones → documentos.
// Es seguro para uso concurrente. Lo reutiliza el adapter raft como máquina de
// estados, por eso todos los writes reciben el Stamp desde afuera y deciden
// la expiración con su hora, no con el reloj local.
type Engine struct {
	mu  sync.RWMutex
	dbs map[string]map[string]*collection
	now func() time.Time
}

type collection struct {
	props docstore.ContainerProperties
	parts map[string]map[string]*item // partition value -> id -> item
}

type item struct {
	body json.RawMessage
	doc  map[string]any
}

// NewEngine crea un motor vacío.
func NewEngine() *Engine {
	return &Engine{dbs: make(map[string]map[string]*collection), now: time.Now}
}

// CreateDatabase crea la base si no existe. Retorna true si fue creada.
func (e *Engine) CreateDatabase(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.dbs[id]; ok {
		return false
	}
	e.dbs[id] = make(map[string]*collection)
	return true
}

// HasDatabase reporta si la base existe.
func (e *Engine) HasDatabase(id string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.dbs[id]
	return ok
}

// CreateContainer crea el container si no existe y retorna las propiedades vigentes.
func (e *Engine) CreateContainer(db string, props docstore.ContainerProperties) (docstore.ContainerProperties, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cs, ok := e.dbs[db]
	if !ok {
		return docstore.ContainerProperties{}, docstore.NotFound("database %q not found", db)
	}
	if c, ok := cs[props.ID]; ok {
		return c.props, nil
	}
	props.PartitionKeyPath = docstore.NormalizePartitionKeyPath(props.PartitionKeyPath)
	cs[props.ID] = &collection{props: props, parts: make(map[string]map[string]*item)}
	return props, nil
}

// ContainerProperties retorna las propiedades de un container existente.
func (e *Engine) ContainerProperties(db, id string) (docstore.ContainerProperties, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, err := e.collection(db, id)
	if err != nil {
		return docstore.ContainerProperties{}, err
	}
	return c.props, nil
}

// collection requiere e.mu tomado.
func (e *Engine) collection(db, id string) (*collection, error) {
	cs, ok := e.dbs[db]
	if !ok {
		return nil, docstore.NotFound("database %q not found", db)
	}
	c, ok := cs[id]
	if !ok {
		return nil, docstore.NotFound("container %q not found", id)
	}
	return c, nil
}

// at retorna la hora del stamp, o el reloj local si el stamp no la trae.
func (e *Engine) at(st docstore.Stamp) time.Time {
	if st.Unix == 0 {
		return e.now()
	}
	return time.Unix(st.Unix, 0)
}

// live retorna el item si existe y no expiró a la hora now. Requiere e.mu tomado.
func (e *Engine) live(c *collection, pk docstore.PartitionKey, id string, now time.Time) (*item, bool) {
	it, ok := c.parts[pk.Value()][id]
	if !ok {
		return nil, false
	}
	if docstore.Expired(it.doc, c.props.DefaultTTL, now) {
		return nil, false
	}
	return it, true
}

// Create inserta un documento nuevo. 409 si el id ya existe en la partición.
func (e *Engine) Create(db, container string, pk docstore.PartitionKey, doc []byte, st docstore.Stamp) (*docstore.ItemResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.collection(db, container)
	if err != nil {
		return nil, err
	}
	p, err := docstore.Prepare(doc, c.props, pk, st)
	if err != nil {
		return nil, err
	}
	if _, exists := e.live(c, pk, p.ID, e.at(st)); exists {
		return nil, docstore.Conflict("entity with id %q already exists", p.ID)
	}
	part, ok := c.parts[pk.Value()]
	if !ok {
		part = make(map[string]*item)
		c.parts[pk.Value()] = part
	}
	part[p.ID] = &item{body: p.Body, doc: p.Doc}
	return &docstore.ItemResponse{StatusCode: 201, ETag: p.ETag, Body: p.Body}, nil
}

// Read lee un documento por id y partición.
func (e *Engine) Read(db, container, id string, pk docstore.PartitionKey) (*docstore.ItemResponse, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, err := e.collection(db, container)
	if err != nil {
		return nil, err
	}
	it, ok := e.live(c, pk, id, e.now())
	if !ok {
		return nil, docstore.NotFound("entity with id %q does not exist", id)
	}
	return &docstore.ItemResponse{StatusCode: 200, ETag: docstore.ETagOf(it.doc), Body: it.body}, nil
}

// Replace reemplaza el documento completo. Con ifMatch != "" exige que el
// _etag almacenado coincida (412 si no).
func (e *Engine) Replace(db, container, id string, pk docstore.PartitionKey, doc []byte, ifMatch string, st docstore.Stamp) (*docstore.ItemResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.collection(db, container)
	if err != nil {
		return nil, err
	}
	p, err := docstore.Prepare(doc, c.props, pk, st)
	if err != nil {
		return nil, err
	}
	if p.ID != id {
		return nil, docstore.BadRequest("document id %q doesn't match %q", p.ID, id)
	}
	cur, ok := e.live(c, pk, id, e.at(st))
	if !ok {
		return nil, docstore.NotFound("entity with id %q does not exist", id)
	}
	if ifMatch != "" && docstore.ETagOf(cur.doc) != ifMatch {
		return nil, docstore.PreconditionFailed("etag mismatch for %q", id)
	}
	c.parts[pk.Value()][id] = &item{body: p.Body, doc: p.Doc}
	return &docstore.ItemResponse{StatusCode: 200, ETag: p.ETag, Body: p.Body}, nil
}

// Delete elimina un documento. Solo se usa la hora de st.
func (e *Engine) Delete(db, container, id string, pk docstore.PartitionKey, st docstore.Stamp) (*docstore.ItemResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.collection(db, container)
	if err != nil {
		return nil, err
	}
	if _, ok := e.live(c, pk, id, e.at(st)); !ok {
		return nil, docstore.NotFound("entity with id %q does not exist", id)
	}
	part := c.parts[pk.Value()]
	delete(part, id)
	if len(part) == 0 {
		delete(c.parts, pk.Value())
	}
	return &docstore.ItemResponse{StatusCode: 204}, nil
}

// Query evalúa q dentro de una partición. Los resultados salen ordenados por id.
func (e *Engine) Query(db, container string, pk docstore.PartitionKey, q docstore.Query) ([]json.RawMessage, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, err := e.collection(db, container)
	if err != nil {
		return nil, err
	}
	part := c.parts[pk.Value()]
	ids := make([]string, 0, len(part))
	for id := range part {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	now := e.now()
	var out []json.RawMessage
	for _, id := range ids {
		it := part[id]
		if docstore.Expired(it.doc, c.props.DefaultTTL, now) {
			continue
		}
		if q.Match(it.doc) {
			out = append(out, it.body)
		}
	}
	return out, nil
}

// ─── Snapshot ───

type snapshot struct {
	Databases map[string]map[string]snapshotContainer `json:"databases"`
}

type snapshotContainer struct {
	Properties docstore.ContainerProperties          `json:"properties"`
	Items      map[string]map[string]json.RawMessage `json:"items"`
}

// Snapshot serializa todo el estado a JSON.
func (e *Engine) Snapshot() ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s := snapshot{Databases: make(map[string]map[string]snapshotContainer, len(e.dbs))}
	for db, cs := range e.dbs {
		out := make(map[string]snapshotContainer, len(cs))
		for id, c := range cs {
			sc := snapshotContainer{Properties: c.props, Items: make(map[string]map[string]json.RawMessage, len(c.parts))}
			for pk, part := range c.parts {
				items := make(map[string]json.RawMessage, len(part))
				for docID, it := range part {
					items[docID] = it.body
				}
				sc.Items[pk] = items
			}
			out[id] = sc
		}
		s.Databases[db] = out
	}
	return json.Marshal(s)
}

// Restore reemplaza el estado completo con un snapshot.
func (e *Engine) Restore(data []byte) error {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("memory: decode snapshot: %w", err)
	}
	dbs := make(map[string]map[string]*collection, len(s.Databases))
	for db, cs := range s.Databases {
		out := make(map[string]*collection, len(cs))
		for id, sc := range cs {
			c := &collection{props: sc.Properties, parts: make(map[string]map[string]*item, len(sc.Items))}
			for pk, items := range sc.Items {
				part := make(map[string]*item, len(items))
				for docID, body := range items {
					doc, err := docstore.Decode(body)
					if err != nil {
						return fmt.Errorf("memory: decode %s/%s/%s: %w", db, id, docID, err)
					}
					part[docID] = &item{body: body, doc: doc}
				}
				c.parts[pk] = part
			}
			out[id] = c
		}
		dbs[db] = out
	}
	e.mu.Lock()
	e.dbs = dbs
	e.mu.Unlock()
	return nil
}
