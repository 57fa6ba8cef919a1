package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"contest-voting/internal/cache/rediscache"
	"contest-voting/internal/config"
	"contest-voting/internal/domain/contestant"
	"contest-voting/internal/domain/user"
	"contest-voting/internal/domain/vote"
	"contest-voting/internal/events"
	api "contest-voting/internal/http"
	"contest-voting/internal/metrics"
	"contest-voting/internal/platform/database"
	jwtpkg "contest-voting/internal/platform/jwt"
	"contest-voting/internal/platform/redisclient"
	"contest-voting/internal/repository/postgres"
	"contest-voting/internal/stream"
	"contest-voting/internal/worker"

	_ "contest-voting/docs"
)

// @title           Contest Voting API
// @version         1.0
// @description     Contest voting with an authoritative ledger, derived Redis counters and live SSE updates
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.NewPostgres(cfg.DB_DSN)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	defer db.Close()

	rdb, err := redisclient.New(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis connect error: %v", err)
	}
	defer rdb.Close()

	userRepo := postgres.NewUserRepo(db)
	contestantRepo := postgres.NewContestantRepo(db)
	ledger := postgres.NewVoteLedger(db)
	cache := rediscache.NewVoteCache(rdb)
	bus := events.NewRedisBus(rdb)

	userSvc := user.NewService(userRepo)
	rosterSvc := contestant.NewService(contestantRepo)
	voteSvc := vote.NewService(ledger, cache, rosterSvc, bus, logger)

	jwtMgr := jwtpkg.NewManager(cfg.JWTSecret, "")
	relay := stream.NewRelay(bus, 0, cfg.StreamKeepalive)
	rebuildWorker := worker.NewRebuildWorker(voteSvc, cfg.RebuildInterval, logger)

	metrics.Register()
	api.SetLogger(logger)
	router := api.NewRouter(userSvc, rosterSvc, voteSvc, jwtMgr, relay, db)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go rebuildWorker.Run(ctx)

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	<-stop
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server shutdown error: %v", err)
	}

	logger.Info("server stopped")
}
