package main

// Manage database migrations:
//   go run ./cmd/migrate up
//   go run ./cmd/migrate down
//   go run ./cmd/migrate status

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"jobtracker/internal/shared/config"
	"jobtracker/internal/shared/storage/db"
)

func main() {
	app := &cli.Command{
		Name:  "migrate",
		Usage: "Manage the job tracker database schema",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Postgres connection string",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply all pending migrations",
				Action: withDB(db.RunMigrations),
			},
			{
				Name:   "down",
				Usage:  "Roll back the most recent migration",
				Action: withDB(db.RollbackMigration),
			},
			{
				Name:   "status",
				Usage:  "Print the state of every migration",
				Action: withDB(db.MigrationStatus),
			},
		},
		DefaultCommand: "up",
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Printf("migrate: %v", err)
		os.Exit(1)
	}
}

func withDB(fn func(context.Context, *sql.DB) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		url := cmd.String("database-url")
		if url == "" {
			url = config.Load().DatabaseURL
		}
		opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
		sqlDB, err := db.Connect(ctx, url, opts)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer sqlDB.Close()

		if err := fn(ctx, sqlDB); err != nil {
			return fmt.Errorf("%s: %w", cmd.Name, err)
		}
		return nil
	}
}
