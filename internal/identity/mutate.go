package identity

import (
	"context"
	"net/http"
	"time"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
	"github.com/mobsites/Cosmos.Identity/internal/domain/entity"
	"github.com/mobsites/Cosmos.Identity/internal/metrics"
	"github.com/mobsites/Cosmos.Identity/internal/observability/logger"
	"github.com/mobsites/Cosmos.Identity/internal/store"
)

// userMutator aplica read-modify-write sobre documentos de usuario.
type userMutator struct {
	users *store.Users
	cfg   Config
}

// mutate aplica fn sobre el usuario y lo persiste con If-Match. fn retorna
// false si no hubo cambios (no se escribe). Ante 412 relee el documento,
// reaplica fn y reintenta hasta cfg.MaxRetries veces. Cada intento escribe
// un ConcurrencyStamp nuevo. Al terminar, *u queda con el estado persistido.
//
// Si u nunca fue leído del store (sin _etag) el primer intento parte del
// documento actual para no pisar escrituras ajenas.
func (m *userMutator) mutate(ctx context.Context, op string, u *entity.User, fn func(*entity.User) bool) error {
	cur := u
	if u.ETag == "" {
		fresh, err := m.reload(ctx, u.ID)
		if err != nil {
			return err
		}
		cur = fresh
	}
	for attempt := 0; ; attempt++ {
		next := *cur
		if !fn(&next) {
			*u = next
			return nil
		}
		next.ConcurrencyStamp = entity.NewID()
		res := m.users.Update(ctx, &next)
		if res.Succeeded {
			*u = next
			return nil
		}
		if res.StatusCode != http.StatusPreconditionFailed || attempt >= m.cfg.MaxRetries {
			return res.Err()
		}

		metrics.ConcurrencyRetries.WithLabelValues(op).Inc()
		logger.From(ctx).Debug("user changed concurrently, retrying",
			logger.Op(op), logger.UserID(u.ID), logger.Attempt(attempt+1))
		if err := sleep(ctx, m.cfg.Backoff*time.Duration(attempt+1)); err != nil {
			return err
		}
		fresh, err := m.reload(ctx, u.ID)
		if err != nil {
			return err
		}
		cur = fresh
	}
}

func (m *userMutator) reload(ctx context.Context, id string) (*entity.User, error) {
	fresh, err := m.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		return nil, docstore.NotFound("user %q does not exist", id)
	}
	return fresh, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
