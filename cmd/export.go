package cmd

import (
	"fmt"
	"log/slog"

	"github.com/jjudge-oj/usersvc/internal/db"
	"github.com/jjudge-oj/usersvc/internal/services"
	"github.com/jjudge-oj/usersvc/internal/storage"
	"github.com/spf13/cobra"
)

var exportKey string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Upload a JSON snapshot of all users to object storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		objects, err := storage.NewFromConfig(ctx, cfg.Storage)
		if err != nil {
			return err
		}

		dbConn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		userService, err := newStoreUserService(dbConn)
		if err != nil {
			return err
		}

		result, err := services.NewExportService(userService, objects).Export(ctx, exportKey)
		if err != nil {
			return err
		}
		slog.Info("export complete", "bucket", result.Bucket, "key", result.Key, "users", result.Count)
		fmt.Fprintf(cmd.OutOrStdout(), "%s/%s\n", result.Bucket, result.Key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportKey, "key", "", "object key (default exports/users-<timestamp>-<uuid>.json)")
}
