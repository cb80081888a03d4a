package storage

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
	"github.com/mobsites/Cosmos.Identity/internal/domain/repository"
)

// Strategy es la forma de distribuir los tipos de entidad en containers.
type Strategy string

const (
	// StrategyShared usa un único container; los tipos se separan por partition key.
	StrategyShared Strategy = "shared"
	// StrategyPerKind usa un container por tipo de entidad.
	StrategyPerKind Strategy = "per-kind"
)

// ParseStrategy valida el nombre de estrategia ("" = shared).
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(StrategyShared):
		return StrategyShared, nil
	case string(StrategyPerKind), "per_kind", "perkind":
		return StrategyPerKind, nil
	}
	return "", fmt.Errorf("storage: unknown strategy %q", s)
}

// PerKindContainerID es el id por defecto del container de un tipo.
func PerKindContainerID(base, kind string) string {
	return base + "-" + kind
}

// ContainerRouter decide en qué container vive cada tipo de entidad.
type ContainerRouter interface {
	ContainerFor(kind string) (docstore.Container, error)
	Containers() []docstore.Container
	Strategy() Strategy
}

type sharedRouter struct {
	c docstore.Container
}

// SharedContainer rutea todos los tipos al mismo container.
func SharedContainer(c docstore.Container) ContainerRouter {
	return &sharedRouter{c: c}
}

func (r *sharedRouter) ContainerFor(string) (docstore.Container, error) { return r.c, nil }
func (r *sharedRouter) Containers() []docstore.Container                { return []docstore.Container{r.c} }
func (r *sharedRouter) Strategy() Strategy                              { return StrategyShared }

type perKindRouter struct {
	byKind map[string]docstore.Container
}

// PerKindContainers rutea cada tipo a su container. Un tipo sin container
// configurado es un error de composición (ErrNoDatabase).
func PerKindContainers(byKind map[string]docstore.Container) ContainerRouter {
	m := make(map[string]docstore.Container, len(byKind))
	for k, c := range byKind {
		m[k] = c
	}
	return &perKindRouter{byKind: m}
}

func (r *perKindRouter) ContainerFor(kind string) (docstore.Container, error) {
	c, ok := r.byKind[kind]
	if !ok {
		return nil, &docstore.StatusError{
			StatusCode: http.StatusInternalServerError,
			Message:    fmt.Sprintf("no container configured for %s", kind),
			Err:        repository.ErrNoDatabase,
		}
	}
	return c, nil
}

func (r *perKindRouter) Containers() []docstore.Container {
	kinds := make([]string, 0, len(r.byKind))
	for k := range r.byKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	out := make([]docstore.Container, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, r.byKind[k])
	}
	return out
}

func (r *perKindRouter) Strategy() Strategy { return StrategyPerKind }
