// Package identity implementa los stores que consume el framework de
// autenticación: UserStore y RoleStore sobre los repositorios de store.
//
// Las violaciones de contrato (argumento nil o vacío) retornan un error que
// envuelve ErrInvalidArgument. Las fallas del store en escrituras simples
// quedan en storage.Result; las operaciones de varios pasos retornan el
// *docstore.StatusError del paso que falló. Las lecturas son best-effort.
//
// Toda mutación de los campos aplanados del usuario se persiste acá mismo
// con read-modify-write: If-Match sobre _etag y, ante 412, se relee el
// usuario, se reaplica el cambio y se reintenta.
package identity

import (
	"time"

	"go.uber.org/zap"

	"github.com/mobsites/Cosmos.Identity/internal/observability/logger"
)

// Config son los parámetros de reintento de los stores.
type Config struct {
	// MaxRetries es la cantidad de reintentos ante 412 en read-modify-write.
	MaxRetries int
	// Backoff es la espera base entre reintentos (lineal).
	Backoff time.Duration
	// CascadeAttempts es la cantidad de intentos por documento en un delete en cascada.
	CascadeAttempts int
}

// DefaultConfig retorna los valores por defecto.
func DefaultConfig() Config {
	return Config{MaxRetries: 5, Backoff: 20 * time.Millisecond, CascadeAttempts: 2}
}

// Option configura un store.
type Option func(*settings)

type settings struct {
	cfg Config
	log *zap.Logger
}

// WithConfig reemplaza la configuración de reintentos. Los valores en cero
// toman el default.
func WithConfig(c Config) Option {
	return func(s *settings) {
		d := DefaultConfig()
		if c.MaxRetries < 0 {
			c.MaxRetries = 0
		} else if c.MaxRetries == 0 {
			c.MaxRetries = d.MaxRetries
		}
		if c.Backoff <= 0 {
			c.Backoff = d.Backoff
		}
		if c.CascadeAttempts <= 0 {
			c.CascadeAttempts = d.CascadeAttempts
		}
		s.cfg = c
	}
}

// WithLogger reemplaza el logger base.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

func newSettings(name string, opts []Option) settings {
	s := settings{cfg: DefaultConfig(), log: logger.Named(name)}
	for _, o := range opts {
		o(&s)
	}
	return s
}
