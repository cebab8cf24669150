package cli

import (
	"database/sql"
	"fmt"

	"github.com/fatih/color"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"

	"github.com/johnquangdev/handoff-assistant/internal/infrastructure/database"
	"github.com/johnquangdev/handoff-assistant/pkg/config"
)

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "migrations directory (default DB_MIGRATIONS_DIR)")

	cmd.AddCommand(migrateStepCmd("up", "Apply pending migrations", migrate.Up, 0, &dir))
	cmd.AddCommand(migrateStepCmd("down", "Roll back migrations", migrate.Down, 1, &dir))
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List applied migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSQL(func(sqlDB *sql.DB, _ *config.Config) error {
				ids, err := database.MigrationStatus(sqlDB)
				if err != nil {
					return err
				}
				if len(ids) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
					return nil
				}
				for _, id := range ids {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", color.New(color.FgGreen).Sprint("✓"), id)
				}
				return nil
			})
		},
	})
	return cmd
}

func migrateStepCmd(use, short string, direction migrate.MigrationDirection, defaultSteps int, dir *string) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSQL(func(sqlDB *sql.DB, cfg *config.Config) error {
				path := *dir
				if path == "" {
					path = cfg.Database.MigrationsDir
				}
				n, err := database.Migrate(sqlDB, path, direction, steps)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d migration(s)\n", color.New(color.FgGreen).Sprint("OK"), use, n)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&steps, "steps", "n", defaultSteps, "maximum number of migrations to run (0 = all)")
	return cmd
}

func withSQL(fn func(*sql.DB, *config.Config) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		return err
	}
	defer database.CloseDB(db)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return fn(sqlDB, cfg)
}
