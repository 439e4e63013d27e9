package cmd

import (
	"log/slog"

	"github.com/jjudge-oj/usersvc/internal/db"
	"github.com/jjudge-oj/usersvc/internal/services"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the sample users",
	Long: `Applies migrations and inserts the sample accounts. Accounts whose
email already exists are skipped, so the command can be run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		dbConn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		if err := db.MigrateUp(cfg.Database); err != nil {
			return err
		}

		userService, err := newStoreUserService(dbConn)
		if err != nil {
			return err
		}

		added, err := userService.Seed(ctx, services.DefaultSeedUsers)
		if err != nil {
			return err
		}
		slog.Info("seed complete", "added", added, "skipped", len(services.DefaultSeedUsers)-added)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
