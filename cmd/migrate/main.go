// Package main applies database schema migrations.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/dspaces1/whatEatBE/internal/infrastructure/config"
	"github.com/dspaces1/whatEatBE/internal/infrastructure/persistence/migrations"
	"github.com/dspaces1/whatEatBE/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var configPath = flag.String("config", "", "configuration file path")
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	if err := run(*configPath, command, flag.Arg(1)); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, command, arg string) error {
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

	if command == "seed" {
		return seed(cfg, log)
	}

	db, err := sql.Open("pgx", cfg.GetDSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	migrator, err := migrations.New(db, log)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer migrator.Close()

	switch command {
	case "up":
		return migrator.Up()
	case "down":
		return migrator.Down()
	case "version":
		version, dirty, err := migrator.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version=%d dirty=%v\n", version, dirty)
		return nil
	case "force":
		version, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("force requires a numeric version, got %q", arg)
		}
		return migrator.Force(version)
	case "steps":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("steps requires a numeric argument, got %q", arg)
		}
		return migrator.Steps(n)
	default:
		return fmt.Errorf("unknown command %q (want up, down, version, force, steps, seed)", command)
	}
}
