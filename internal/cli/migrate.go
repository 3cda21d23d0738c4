package cli

import (
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"

	"github.com/johnquangdev/interview-analyzer/internal/infrastructure/database"
	"github.com/johnquangdev/interview-analyzer/pkg/config"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the embedded SQL migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction, err := parseDirection(args)
			if err != nil {
				return err
			}
			max, _ := cmd.Flags().GetInt("max")
			if direction == migrate.Down && max == 0 {
				max = 1
			}

			cfg := config.FromEnv()
			db, err := database.NewPostgresDB(cfg)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer database.CloseDB(db)

			n, err := database.RunMigrations(db, direction, max)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Applied %d migration(s) %s\n", n, directionName(direction))
			return nil
		},
	}

	// 0 means all pending migrations when going up; down defaults to one step
	cmd.Flags().Int("max", 0, "Maximum number of migrations to apply")
	return cmd
}

func parseDirection(args []string) (migrate.MigrationDirection, error) {
	if len(args) == 0 {
		return migrate.Up, nil
	}
	switch args[0] {
	case "up":
		return migrate.Up, nil
	case "down":
		return migrate.Down, nil
	}
	return migrate.Up, fmt.Errorf("unknown direction %q, expected up or down", args[0])
}

func directionName(d migrate.MigrationDirection) string {
	if d == migrate.Down {
		return "down"
	}
	return "up"
}
