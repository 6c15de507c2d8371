package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"

	"github.com/wordbound/wordbound-server/internal"
	"github.com/wordbound/wordbound-server/internal/config"
	"github.com/wordbound/wordbound-server/internal/hub"
	"github.com/wordbound/wordbound-server/internal/server"
	"github.com/wordbound/wordbound-server/internal/state"
	"github.com/wordbound/wordbound-server/internal/storage"
	"github.com/wordbound/wordbound-server/internal/words"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file, reading environment directly")
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "wordbound",
	})
	cfg := config.Load()

	var archiver state.Archiver
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		archive, err := storage.NewPostgresArchive(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			logger.Fatal("postgres connect failed", "err", err)
		}
		defer archive.Close()

		ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		err = archive.EnsureSchema(ctx)
		cancel()
		if err != nil {
			logger.Fatal("postgres schema failed", "err", err)
		}
		archiver = archive
		logger.Info("postgres archive enabled")
	} else {
		logger.Info("no DATABASE_URL, running in-memory only")
	}

	wsHub := hub.New(logger)
	emitter := hub.NewBridge(wsHub)

	users := state.NewRegistry(emitter, archiver, logger)
	lobbies := state.NewLobbies(cfg.MaxPlayersPerLobby, emitter, logger)
	queue := state.NewQueue(cfg.QueueEntryTTL, lobbies, emitter, logger)
	engine := state.NewEngine(
		state.EngineConfig{MaxRoundsPerPlayer: cfg.MaxRoundsPerPlayer, GemBonus: cfg.GemBonus},
		words.LengthScorer{},
		users, lobbies, emitter, archiver, logger,
	)
	sessions := state.NewSessions(emitter, logger)
	records := state.NewRecords(emitter, logger)

	sched, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("scheduler init failed", "err", err)
	}
	if _, err := sched.NewJob(
		gocron.DurationJob(cfg.SweepInterval),
		gocron.NewTask(func() {
			queue.Sweep()
			sessions.CloseStale(cfg.SessionTTL)
		}),
	); err != nil {
		logger.Fatal("sweep job failed", "err", err)
	}
	sched.Start()
	defer func() { _ = sched.Shutdown() }()

	srv := server.New(server.Deps{
		Users:    users,
		Lobbies:  lobbies,
		Queue:    queue,
		Engine:   engine,
		Sessions: sessions,
		Records:  records,
		Hub:      wsHub,
		Logger:   logger,
	})

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.RegisterRoutes(),
	}

	go func() {
		logger.Info("listening", "port", cfg.Port, "serverId", internal.DefaultServerID)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
}
