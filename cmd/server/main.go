package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/Typerace/internal/adapters/http"
	"github.com/dkeye/Typerace/internal/adapters/race"
	"github.com/dkeye/Typerace/internal/app"
	"github.com/dkeye/Typerace/internal/app/commentator"
	"github.com/dkeye/Typerace/internal/auth"
	"github.com/dkeye/Typerace/internal/config"
	"github.com/dkeye/Typerace/internal/core"
	"github.com/dkeye/Typerace/internal/tracks"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	trackRepo := tracks.NewRepository(cfg.TracksPath)
	userRepo := auth.NewUserRepository(cfg.UsersPath)
	authSvc := auth.NewService(cfg.Secret, userRepo)

	ctl := race.NewController(cfg, authSvc)
	registry := app.NewRegistry(
		trackRepo,
		ctl.GroupFor,
		core.Options{Countdown: cfg.Countdown, RestartCountdown: cfg.RestartCountdown},
		func(room *core.Room, group core.Group) core.Attachment {
			return commentator.New(group, room, 0)
		},
	)
	ctl.Registry = registry

	r := router.SetupRouter(ctx, cfg, authSvc, registry, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Typerace server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
