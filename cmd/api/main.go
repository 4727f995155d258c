package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/plantcare/plantcare-api/internal/config"
	"github.com/plantcare/plantcare-api/internal/handler"
	"github.com/plantcare/plantcare-api/internal/inference"
	"github.com/plantcare/plantcare-api/internal/middleware"
	"github.com/plantcare/plantcare-api/internal/repository"
	"github.com/plantcare/plantcare-api/internal/revocation"
	"github.com/plantcare/plantcare-api/internal/router"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()

	bg, stop := context.WithCancel(context.Background())
	defer stop()

	db, err := repository.NewDB(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		slog.Error("database connection failed", "driver", cfg.DBDriver, "error", err)
		if !cfg.IsTest() {
			os.Exit(1)
		}
		slog.Warn("data routes will answer 503 until restarted with a database")
	} else {
		defer db.Close()
		if err := repository.Migrate(bg, db, cfg.DBDriver); err != nil {
			slog.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
		slog.Info("database ready", "driver", cfg.DBDriver)
	}

	var denylist revocation.Denylist
	if cfg.RedisURL != "" {
		rd, err := revocation.NewRedis(bg, cfg.RedisURL)
		if err != nil {
			slog.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		defer rd.Close()
		denylist = rd
	} else {
		mem := revocation.NewMemory()
		go mem.Run(bg, time.Minute)
		denylist = mem
	}

	limiter := middleware.NewLimiter(5, 10)
	go limiter.Run(bg)

	if err := os.MkdirAll(cfg.UploadDir, 0o750); err != nil {
		slog.Error("upload directory unavailable", "dir", cfg.UploadDir, "error", err)
		os.Exit(1)
	}

	h := router.New(router.Options{
		DB:                db,
		Inference:         inference.New(cfg.PredictURL, cfg.HeatmapURL, cfg.InferenceTimeout),
		Denylist:          denylist,
		AuthLimiter:       limiter,
		JWTSecret:         cfg.JWTSecret,
		SignupTokenExpiry: cfg.SignupTokenExpiry,
		SigninTokenExpiry: cfg.SigninTokenExpiry,
		CORSOrigin:        cfg.CORSOrigin,
		Uploads:           handler.UploadOptions{Dir: cfg.UploadDir, MaxBytes: cfg.MaxUploadBytes},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
