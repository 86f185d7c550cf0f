// Package main generates the shared daily meal plan. It is intended to
// run once a day from cron or a scheduler, not as a long-lived service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dspaces1/whatEatBE/internal/application/planner"
	"github.com/dspaces1/whatEatBE/internal/infrastructure/ai/openai"
	"github.com/dspaces1/whatEatBE/internal/infrastructure/config"
	postgresrepo "github.com/dspaces1/whatEatBE/internal/infrastructure/persistence/postgres"
	"github.com/dspaces1/whatEatBE/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	var (
		configPath = flag.String("config", "", "configuration file path")
		dateArg    = flag.String("date", "", "plan date as YYYY-MM-DD (defaults to today UTC)")
		timeout    = flag.Duration("timeout", 5*time.Minute, "overall generation timeout")
	)
	flag.Parse()

	if err := run(*configPath, *dateArg, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "planner: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, dateArg string, timeout time.Duration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		Development: cfg.App.Debug,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	date := time.Now().UTC()
	if dateArg != "" {
		date, err = time.Parse("2006-01-02", dateArg)
		if err != nil {
			return fmt.Errorf("invalid -date %q, want YYYY-MM-DD", dateArg)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pool, err := postgresrepo.NewPool(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	svc := planner.NewService(
		postgresrepo.NewMealPlanRepository(pool, log),
		postgresrepo.NewRecipeRepository(pool, log),
		openai.NewClient(cfg.AI, log),
		cfg.Planner.MealTypes,
		cfg.Planner.InterCallDelay,
		log,
	)

	plan, err := svc.GenerateForDate(ctx, date)
	if err != nil {
		return fmt.Errorf("generate plan: %w", err)
	}

	log.Info("Meal plan ready",
		zap.String("plan_id", plan.ID().String()),
		zap.Time("date", plan.Date()),
		zap.Int("entries", len(plan.Entries())),
	)
	return nil
}
