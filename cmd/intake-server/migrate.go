package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/ehr/intake/internal/config"
	"github.com/ehr/intake/internal/platform/db"
	"github.com/ehr/intake/migrations"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withMigrator(dir, func(ctx context.Context, m *db.Migrator) error {
				count, err := m.Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (defaults to the embedded set)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withMigrator(dir, func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				printStatus(cmd.OutOrStdout(), statuses)
				return nil
			})
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (defaults to the embedded set)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func migrationFiles(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}

func withMigrator(dir string, fn func(context.Context, *db.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.UsesDatabase() {
		return fmt.Errorf("migrations require SUBMIT_BACKEND=%s", config.BackendPostgres)
	}
	logger := newLogger(cfg.Env, cfg.LogLevel)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:             cfg.DatabaseURL,
		MaxConns:        2,
		ApplicationName: "intake-migrate",
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, db.NewMigrator(pool, migrationFiles(dir), logger))
}

func printStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}
