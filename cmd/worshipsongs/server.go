package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"worshipsongs/internal/app/setlists"
	"worshipsongs/internal/app/songs"
	"worshipsongs/internal/auth"
	"worshipsongs/internal/config"
	"worshipsongs/internal/http/middleware"
	"worshipsongs/internal/httpapi"
	"worshipsongs/internal/logging"
	"worshipsongs/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the JSON API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		backend, closeBackend, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeBackend()

		if migrateFirst, _ := cmd.Flags().GetBool("migrate"); migrateFirst {
			if pg, ok := backend.(*store.Store); ok {
				if err := store.MigrateUp(pg.DB()); err != nil {
					return err
				}
			}
		}
		if seed, _ := cmd.Flags().GetBool("seed"); seed {
			if err := bootstrapDemoData(ctx, backend); err != nil {
				return err
			}
		}

		return runServer(ctx, cfg, newHTTPHandler(cfg, logger, backend))
	},
}

func newHTTPHandler(cfg *config.Config, logger *logging.Logger, data backend) http.Handler {
	var authenticator httpapi.Authenticator
	if cfg.Auth.Enabled() {
		authenticator = auth.New(cfg.Auth.JWTSecret, cfg.Auth.PasswordHash, cfg.Auth.TokenTTL)
		log.Info().Dur("token_ttl", cfg.Auth.TokenTTL).Msg("write endpoints require a bearer token")
	} else {
		log.Warn().Msg("JWT_SECRET not set, write endpoints are open")
	}

	api := httpapi.New(songs.New(data), setlists.New(data), authenticator).WithReadiness(data)

	var handler http.Handler = api.Routes()
	handler = middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst)(handler)
	handler = middleware.CORS(cfg.CORS.AllowedOrigins)(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.Recovery()(handler)
	return handler
}

// runServer serves until ctx is cancelled, then drains in-flight requests.
func runServer(ctx context.Context, cfg *config.Config, handler http.Handler) error {
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Str("storage", cfg.Storage).Msg("API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
