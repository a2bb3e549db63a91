package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	"github.com/lpgledger/backend/internal/infrastructure/config"
	"github.com/lpgledger/backend/internal/infrastructure/logger"
	"github.com/lpgledger/backend/internal/infrastructure/migration"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

func main() {
	var (
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "", "Path to migrations directory (default: ./migrations)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	cmd, err := migration.ParseCommand(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if migrationsPath == "" {
		migrationsPath = findMigrationsPath()
	}

	switch cmd.Verb {
	case migration.VerbCreate:
		mf, err := migration.CreateMigration(migrationsPath, cmd.Name)
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		fmt.Printf("Created %s\nCreated %s\n", mf.UpPath, mf.DownPath)
		return
	case migration.VerbList:
		files, err := migration.ListMigrations(migrationsPath)
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		for _, f := range files {
			fmt.Printf("%06d  %s\n", f.Version, f.Name)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to connect to database",
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.DBName),
			zap.Error(err),
		)
	}

	m, err := migration.New(db, migrationsPath, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()

	out, err := migration.Execute(m, cmd)
	if err != nil {
		log.Fatal("Migration failed", zap.String("command", string(cmd.Verb)), zap.Error(err))
	}
	if out != "" {
		fmt.Println(out)
	}
}

func findMigrationsPath() string {
	if _, err := os.Stat(defaultMigrationsPath); err == nil {
		return defaultMigrationsPath
	}
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), "..", "..", defaultMigrationsPath)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return defaultMigrationsPath
}

func printUsage() {
	fmt.Fprint(os.Stderr, `LPG ledger database migration tool

Usage:
  migrate [flags] <command> [args]

Commands:
  up              Apply all pending migrations
  down            Roll back all migrations
  steps N         Apply N migrations (negative N rolls back)
  goto V          Migrate to version V
  version         Print the current migration version
  force V         Set version V without running migrations (clears a dirty state)
  create NAME     Create a new up/down migration pair
  list            List migration files

Flags:
  -path string       Path to migrations directory (default: ./migrations)
  -log-level string  Log level (default: info)

Environment:
  LPG_DATABASE_HOST, LPG_DATABASE_PORT, LPG_DATABASE_USER,
  LPG_DATABASE_PASSWORD, LPG_DATABASE_DBNAME, LPG_DATABASE_SSLMODE
`)
}
