package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/zeroup-initiative/partner-backend/internal/app"
	"github.com/zeroup-initiative/partner-backend/internal/cache"
	"github.com/zeroup-initiative/partner-backend/internal/config"
	"github.com/zeroup-initiative/partner-backend/internal/db"
	"github.com/zeroup-initiative/partner-backend/internal/jobs"
	appmw "github.com/zeroup-initiative/partner-backend/internal/middleware"
	"github.com/zeroup-initiative/partner-backend/internal/proof"
	"github.com/zeroup-initiative/partner-backend/internal/server"
	"github.com/zeroup-initiative/partner-backend/internal/service"
)

var (
	gitSHA    = "dev"
	buildTime = ""
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.NewRedis(ctx, cfg)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	if rdb == nil {
		log.Printf("REDIS_ADDR not set; locks, leaderboard and fan-out stay in process")
	} else {
		defer rdb.Close()
	}

	var signer proof.Signer = proof.Passthrough{}
	if cfg.ProofBucket != "" {
		gcs, err := proof.NewGCSSigner(ctx, cfg.ProofBucket, cfg.ProofURLTTL, cfg.CredentialsFile)
		if err != nil {
			log.Fatalf("proof signer: %v", err)
		}
		defer gcs.Close()
		signer = gcs
	}

	authMw, err := appmw.NewAuthMiddleware(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to init firebase auth: %v", err)
	}
	var deleter service.AuthUserDeleter
	if client := authMw.Client(); client != nil {
		deleter = client
	}

	a := app.New(app.Options{
		Redis:       rdb,
		Signer:      signer,
		AuthDeleter: deleter,
		Location:    cfg.Location(),
	})
	if a.Fanout != nil {
		go func() {
			if err := a.Fanout.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("notify fan-out stopped: %v", err)
			}
		}()
	}
	srv := server.New(cfg, a, authMw, gitSHA, buildTime)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Printf("starting server on %s", addr)
		errCh <- srv.Start(addr)
	}()

	go func() {
		conn, err := db.Connect(ctx, cfg)
		if err != nil {
			log.Printf("db connect error: %v", err)
			return
		}
		if err := db.Migrate(conn); err != nil {
			log.Printf("auto migrate error: %v", err)
			return
		}
		srv.SetDB(conn)
		log.Printf("database ready")

		if !cfg.JobsEnabled {
			return
		}
		sched, err := jobs.Start(ctx, jobs.Config{
			RiskReconcileInterval:      cfg.RiskReconcileInterval,
			LeaderboardRebuildInterval: cfg.LeaderboardRebuildInterval,
		}, a.Risk, a.Leaderboard)
		if err != nil {
			log.Printf("jobs: %v", err)
			return
		}
		<-ctx.Done()
		if err := sched.Shutdown(); err != nil {
			log.Printf("jobs shutdown: %v", err)
		}
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server stopped: %v", err)
		}
	case <-ctx.Done():
		log.Printf("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}
}
