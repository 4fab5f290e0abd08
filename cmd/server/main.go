package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"

	"github.com/jengzang/livetrack-backend-go/internal/api"
	"github.com/jengzang/livetrack-backend-go/internal/config"
	"github.com/jengzang/livetrack-backend-go/internal/database"
	"github.com/jengzang/livetrack-backend-go/internal/handler"
	"github.com/jengzang/livetrack-backend-go/internal/live"
	"github.com/jengzang/livetrack-backend-go/internal/logging"
	"github.com/jengzang/livetrack-backend-go/internal/poller"
	"github.com/jengzang/livetrack-backend-go/internal/repository"
	"github.com/jengzang/livetrack-backend-go/internal/service"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "YAML config file (default: $CONFIG_PATH or ./config.yaml)")
	port := pflag.StringP("port", "p", "", "listen address, overrides server.port")
	pflag.Parse()

	if err := run(*configPath, *port); err != nil {
		fmt.Fprintln(os.Stderr, "livetrack:", err)
		os.Exit(1)
	}
}

func run(configPath, port string) error {
	// 加载配置
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if port != "" {
		cfg.Server.Port = port
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Caller: cfg.Log.Caller,
	})
	gin.SetMode(cfg.Server.Mode)

	// 初始化数据库
	db, err := database.Open(database.Config{Path: cfg.Database.Path})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	eventRepo := repository.NewEventRepository(db)
	competitorRepo := repository.NewCompetitorRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	registry := live.NewRegistry()

	eventService := service.NewEventService(eventRepo, competitorRepo)
	trackService := service.NewTrackService(eventRepo, competitorRepo, positionRepo, registry, service.TrackOptions{
		LiveWindow:  cfg.Live.Window,
		SpeedWindow: cfg.Live.SpeedWindow,
	})

	// 初始化路由
	router, stopRouter := api.SetupRouter(cfg, api.Handlers{
		Events: handler.NewEventHandler(eventService, trackService),
		Tracks: handler.NewTrackHandler(trackService),
	})
	defer stopRouter()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pollDone := make(chan struct{})
	if cfg.Upstream.URL != "" {
		p := poller.New(poller.Config{
			URL:      cfg.Upstream.URL,
			EventID:  cfg.Upstream.EventID,
			Interval: cfg.Upstream.PollInterval,
			Timeout:  cfg.Upstream.Timeout,
		}, registry)
		go func() {
			defer close(pollDone)
			_ = p.Run(ctx)
		}()
	} else {
		close(pollDone)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		stop()
		<-pollDone
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	logging.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
	<-pollDone
	return nil
}
