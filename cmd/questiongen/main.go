// Command questiongen fills the question bank in sequential batches.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"apcsp-quiz/internal/app"
	"apcsp-quiz/internal/config"
	"apcsp-quiz/internal/logger"
	"apcsp-quiz/internal/questiongen"
)

func main() {
	var (
		batches    = flag.Int("batches", 1, "number of batches to run")
		size       = flag.Int("size", 50, "questions per batch")
		topic      = flag.String("topic", "", "optional topic hint for every question")
		maxRetries = flag.Int("max-retries", questiongen.DefaultMaxRetries, "attempts per question")
		minScore   = flag.Float64("min-score", questiongen.DefaultMinValidationScore, "minimum validation score")
		delay      = flag.Duration("delay", 0, "pause between batches (default GENERATION_DELAY)")
	)
	flag.Parse()

	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *delay == 0 {
		*delay = cfg.Quiz.GenerationDelay
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize", "error", err)
	}
	defer a.Close()
	if a.Pipeline == nil {
		log.Fatal("Question generation needs OPENAI_API_KEY")
	}

	var saved, dropped int
	for i := 1; i <= *batches; i++ {
		req := questiongen.BatchRequest{
			TotalQuestions:     *size,
			Topic:              *topic,
			MaxRetries:         maxRetries,
			MinValidationScore: minScore,
		}
		result, err := a.Pipeline.GenerateBatchQuestions(ctx, req)
		if err != nil {
			log.Error("Batch failed", "batch", i, "error", err)
			break
		}
		saved += result.TotalSaved
		dropped += result.TotalDropped
		log.Info("Batch finished", "batch", i, "saved", result.TotalSaved, "dropped", result.TotalDropped)

		if i < *batches {
			select {
			case <-ctx.Done():
			case <-time.After(*delay):
			}
		}
		if ctx.Err() != nil {
			log.Warn("Interrupted", "completedBatches", i)
			break
		}
	}
	log.Info("Generation finished", "saved", saved, "dropped", dropped)
}
