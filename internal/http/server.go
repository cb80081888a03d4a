package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mobsites/Cosmos.Identity/internal/observability/logger"
)

// Start sirve handler en addr hasta que ctx termine; luego hace shutdown
// ordenado con hasta 10s de gracia.
func Start(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	log := logger.From(ctx).With(logger.Component("http"))
	log.Info("listening", logger.String("addr", addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
