package docstore

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
)

// Op operador de una condición.
type Op string

const (
	// OpEq compara igualdad exacta de strings.
	OpEq Op = "eq"
	// OpContains busca un substring.
	OpContains Op = "contains"
	// OpContainsToken busca un elemento exacto de una lista separada por comas.
	OpContainsToken Op = "contains_token"
)

// TokenSeparator separa los elementos de las listas aplanadas.
const TokenSeparator = ","

// DefaultPageSize es el tamaño de página cuando la query no define uno.
const DefaultPageSize = 100

// Condition es un predicado simple sobre un campo de primer nivel.
type Condition struct {
	Field string
	Op    Op
	Value string
}

// Eq construye una condición de igualdad.
func Eq(field, value string) Condition { return Condition{Field: field, Op: OpEq, Value: value} }

// Contains construye una condición de substring.
func Contains(field, value string) Condition {
	return Condition{Field: field, Op: OpContains, Value: value}
}

// ContainsToken construye una condición de pertenencia exacta a una lista.
func ContainsToken(field, value string) Condition {
	return Condition{Field: field, Op: OpContainsToken, Value: value}
}

// Query es un predicado conjuntivo (AND de condiciones) más paginado.
type Query struct {
	Where    []Condition
	PageSize int
	// Continuation retoma una query desde una página previa.
	Continuation string
}

// Match evalúa las condiciones contra un documento decodificado.
// Un campo ausente o no-string nunca matchea.
func (q Query) Match(doc map[string]any) bool {
	for _, c := range q.Where {
		v, ok := doc[c.Field].(string)
		if !ok {
			return false
		}
		switch c.Op {
		case OpEq:
			if v != c.Value {
				return false
			}
		case OpContains:
			if !strings.Contains(v, c.Value) {
				return false
			}
		case OpContainsToken:
			if !HasToken(v, c.Value) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Size retorna el tamaño de página efectivo.
func (q Query) Size() int {
	if q.PageSize <= 0 {
		return DefaultPageSize
	}
	return q.PageSize
}

// HasToken reporta si list (formato "a,b,c,") contiene token exacto.
func HasToken(list, token string) bool {
	if token == "" {
		return false
	}
	for _, t := range strings.Split(list, TokenSeparator) {
		if t == token {
			return true
		}
	}
	return false
}

// SlicePager pagina un resultado ya materializado. Lo usan los adapters que
// evalúan el predicado en proceso (memory, fs, raft).
type SlicePager struct {
	items []json.RawMessage
	size  int
	pos   int
	err   error
}

// NewSlicePager crea un pager sobre items, comenzando en la continuación dada.
func NewSlicePager(items []json.RawMessage, q Query) *SlicePager {
	p := &SlicePager{items: items, size: q.Size()}
	if q.Continuation != "" {
		n, err := strconv.Atoi(q.Continuation)
		if err != nil || n < 0 {
			p.err = BadRequest("invalid continuation token %q", q.Continuation)
		} else {
			p.pos = n
		}
	}
	return p
}

// ErrorPager retorna un pager que falla en la primera lectura.
func ErrorPager(err error) *SlicePager {
	return &SlicePager{err: err}
}

func (p *SlicePager) HasMoreResults() bool {
	return p.err != nil || p.pos < len(p.items)
}

func (p *SlicePager) ReadNext(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	if p.err != nil {
		err := p.err
		p.err = nil
		p.pos = len(p.items)
		return Page{}, err
	}
	end := p.pos + p.size
	if end > len(p.items) {
		end = len(p.items)
	}
	page := Page{Items: p.items[p.pos:end]}
	p.pos = end
	if p.pos < len(p.items) {
		page.ContinuationToken = strconv.Itoa(p.pos)
	}
	return page, nil
}

// Drain lee todas las páginas de un pager.
func Drain(ctx context.Context, p Pager) ([]json.RawMessage, error) {
	var out []json.RawMessage
	for p.HasMoreResults() {
		page, err := p.ReadNext(ctx)
		if err != nil {
			return out, err
		}
		out = append(out, page.Items...)
	}
	return out, nil
}
