package identity

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/mobsites/Cosmos.Identity/internal/domain/entity"
	"github.com/mobsites/Cosmos.Identity/internal/metrics"
	"github.com/mobsites/Cosmos.Identity/internal/observability/logger"
	"github.com/mobsites/Cosmos.Identity/internal/storage"
)

// Pasos del delete en cascada.
const (
	stepUserRoles  = "user_roles"
	stepUserClaims = "user_claims"
	stepUserLogins = "user_logins"
	stepUserTokens = "user_tokens"
	stepRoleClaims = "role_claims"
	stepMembers    = "role_members"
)

var cascadeOrder = []string{stepUserRoles, stepUserClaims, stepUserLogins, stepUserTokens, stepRoleClaims, stepMembers}

// Operaciones que disparan una cascada.
const (
	cascadeDelete = "delete"
	cascadeRename = "rename"
)

// cascade acumula el resultado de los pasos. Un paso que falla no corta los
// siguientes; no hay rollback de la escritura principal.
type cascade struct {
	op       string
	owner    string
	attempts int
	log      *zap.Logger
	failed   map[string]int
	last     error
}

func newCascade(op, owner string, attempts int, log *zap.Logger) *cascade {
	if attempts < 1 {
		attempts = 1
	}
	return &cascade{op: op, owner: owner, attempts: attempts, log: log, failed: map[string]int{}}
}

// fail registra n documentos no borrados en step.
func (c *cascade) fail(step string, n int, err error) {
	c.failed[step] += n
	c.last = err
	metrics.CascadeFailures.WithLabelValues(step).Add(float64(n))
	c.log.Warn("cascade step incomplete", logger.Step(step), logger.Count(n), logger.Err(err))
}

// err retorna *CascadeError si quedó algún documento sin borrar.
func (c *cascade) err() error {
	if len(c.failed) == 0 {
		return nil
	}
	return &CascadeError{Op: c.op, Owner: c.owner, Failed: c.failed, Last: c.last}
}

// deleteEach borra docs reintentando cada uno hasta c.attempts veces.
// Un 404 cuenta como ya borrado.
func deleteEach[T entity.Entity](ctx context.Context, c *cascade, step string, docs []T, listErr error, del func(context.Context, T) storage.Result) {
	if listErr != nil {
		c.fail(step, 1, listErr)
		return
	}
	failed := 0
	var last error
	for _, d := range docs {
		ok := false
		for attempt := 1; attempt <= c.attempts; attempt++ {
			res := del(ctx, d)
			if res.Succeeded || res.StatusCode == http.StatusNotFound {
				ok = true
				break
			}
			last = res.Err()
			c.log.Debug("cascade delete failed",
				logger.Step(step), logger.EntityID(d.EntityID()),
				logger.Attempt(attempt), logger.Status(res.StatusCode))
			if ctx.Err() != nil {
				break
			}
		}
		if !ok {
			failed++
		}
	}
	if failed > 0 {
		c.fail(step, failed, last)
	}
}
