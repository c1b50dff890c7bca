package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/mvelasco/clipvault/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// serve runs the HTTP server on ln until ctx is canceled, then drains
// in-flight requests before returning.
func serve(ctx context.Context, server *http.Server, ln net.Listener, logg *logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		err := server.Serve(ln)
		if err == http.ErrServerClosed {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if logg != nil {
		logg.Info(context.Background(), "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
