// Command quizmaint runs the periodic quiz maintenance jobs once.
//
//	quizmaint archive     archive quizzes unused for ARCHIVE_AFTER
//	quizmaint cleanup     delete expired quizzes
//	quizmaint abandoned   list quizzes with stale in-progress attempts
//	quizmaint pools       top up the default quiz pools
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"apcsp-quiz/internal/app"
	"apcsp-quiz/internal/config"
	"apcsp-quiz/internal/logger"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: quizmaint archive|cleanup|abandoned|pools")
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize", "error", err)
	}
	defer a.Close()

	if err := run(ctx, a, flag.Arg(0)); err != nil {
		log.Error("Maintenance job failed", "job", flag.Arg(0), "error", err)
		a.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, job string) error {
	switch job {
	case "archive":
		n, err := a.Lifecycle.ArchiveOldQuizzes(ctx)
		if err != nil {
			return err
		}
		a.Log.Info("Archived quizzes", "count", n)
	case "cleanup":
		n, err := a.Lifecycle.CleanupExpiredQuizzes(ctx)
		if err != nil {
			return err
		}
		a.Log.Info("Deleted expired quizzes", "count", n)
	case "abandoned":
		quizzes, err := a.Lifecycle.GetAbandonedQuizzes(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(quizzes)
	case "pools":
		for _, r := range a.Pools.InitializePools(ctx) {
			a.Log.Info("Pool", "category", r.Category, "subcategory", r.Subcategory, "created", r.Created, "error", r.Error)
		}
	default:
		return fmt.Errorf("unknown job %q", job)
	}
	return nil
}
