package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/centsible/backend/internal/models"
	"github.com/centsible/backend/internal/recurrence"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load .env for local development, env vars take precedence
	_ = godotenv.Load()

	// Log format can be explicitly set.
	// If it is not set, it defaults to JSON.
	logFormat, ok := os.LookupEnv("LOG_FORMAT")
	output := io.Writer(os.Stdout)
	if ok && logFormat == "human" {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && os.Getenv("LOG_LEVEL") != "" {
		zerolog.SetGlobalLevel(level)
	}
	log.Logger = log.Output(output).With().Timestamp().Logger()

	dbPath, ok := os.LookupEnv("DB_PATH")
	if !ok {
		// Create data directory
		dataDir := filepath.Join(".", "data")
		err := os.MkdirAll(dataDir, os.ModePerm)
		if err != nil {
			log.Fatal().Msg(err.Error())
		}
		dbPath = filepath.Join(dataDir, "backend.db")
	}

	// Connect to the database and migrate all models
	err := models.Connect(dbPath)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	scheduler := recurrence.NewScheduler(models.DB, log.Logger)

	generationInterval := intervalFromEnv("GENERATION_INTERVAL", time.Minute)
	reminderInterval := intervalFromEnv("REMINDER_INTERVAL", time.Hour)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Stringer("generationInterval", generationInterval).
		Stringer("reminderInterval", reminderInterval).
		Str("db", dbPath).
		Msg("starting recurrence worker")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runEvery(ctx, generationInterval, func(now time.Time) {
			if err := scheduler.RunGenerationCycle(ctx, now); err != nil {
				log.Error().Err(err).Msg("generation cycle failed")
			}
		})
	})

	g.Go(func() error {
		return runEvery(ctx, reminderInterval, func(now time.Time) {
			if err := scheduler.ProcessReminders(ctx, now); err != nil {
				log.Error().Err(err).Msg("reminder sweep failed")
			}
		})
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Msg(err.Error())
	}

	log.Info().Msg("recurrence worker stopped")
}

// runEvery invokes fn immediately and then on every tick until the context
// is cancelled.
func runEvery(ctx context.Context, interval time.Duration, fn func(now time.Time)) error {
	fn(time.Now().In(time.UTC))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			fn(now.In(time.UTC))
		}
	}
}

func intervalFromEnv(name string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(name)
	if !ok {
		return fallback
	}

	interval, err := time.ParseDuration(value)
	if err != nil || interval <= 0 {
		log.Warn().Str("variable", name).Str("value", value).Msg("invalid interval, using default")
		return fallback
	}

	return interval
}
