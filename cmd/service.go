package cmd

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/isometry/clerk-user-sync/internal/config"
	"github.com/isometry/clerk-user-sync/internal/runtime"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func cmdService() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "service",
		Aliases: []string{"s", "serve", "standalone", "server"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger = logger.With("mode", config.ModeService)
			logger.Info("Spawning...")

			hdl, cleanup, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			logger.Debug("Creating runtime...")
			rtm := runtime.NewRuntime(hdl,
				runtime.WithMaxBodyBytes(config.Service.MaxBodyBytes),
				runtime.WithLogger(logger.With("component", "runtime")))

			s := &http.Server{
				Handler:      newRouter(rtm, config.Service.Path),
				Addr:         net.JoinHostPort(config.Service.Addr, config.Service.Port),
				WriteTimeout: config.Service.Timeout,
				ReadTimeout:  config.Service.Timeout,
				IdleTimeout:  config.Service.Timeout,
			}

			logger.Info("Serving...", "address", s.Addr, "path", config.Service.Path, "timeout", config.Service.Timeout.String())
			return serve(cmd.Context(), s)
		},
	}

	bindEnvMap(cmd, svcEnvMapString)
	bindEnvMap(cmd, svcEnvMapDuration)

	return cmd
}

func newRouter(webhook http.Handler, path string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle(path, webhook)
	return r
}

// serve runs s until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, s *http.Server) error {
	if ctx == nil {
		ctx = context.Background()
	}
	errCh := make(chan error, 1)
	go func() {
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}
