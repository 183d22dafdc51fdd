package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"apcsp-quiz/internal/app"
	"apcsp-quiz/internal/config"
	"apcsp-quiz/internal/handlers"
	"apcsp-quiz/internal/logger"
	"apcsp-quiz/internal/middleware"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoDB.Timeout)
	a, err := app.New(ctx, cfg, log)
	cancel()
	if err != nil {
		log.Fatal("Failed to initialize service", "error", err)
	}
	defer a.Close()

	if cfg.Quiz.InitPoolsOnStartup {
		go func() {
			created := 0
			for _, r := range a.Pools.InitializePools(context.Background()) {
				created += r.Created
			}
			log.Info("Quiz pools initialized", "created", created)
		}()
	}

	router := handlers.NewRouter(&handlers.Handlers{
		Quiz:     handlers.NewQuizHandler(a.Generator, a.Lifecycle),
		Question: handlers.NewQuestionHandler(a.Bank, a.Pipeline),
		Admin:    handlers.NewAdminHandler(a.Lifecycle, a.Pools),
	}, middleware.NewAuth(&cfg.Auth), cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("Starting server", "addr", srv.Addr, "backend", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Error starting server", "error", err)
		}
	}()

	<-shutdownChan
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down HTTP server", "error", err)
	}
	log.Info("Server shutdown complete")
}
