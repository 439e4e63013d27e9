package cmd

import (
	"database/sql"
	"os"

	"github.com/jjudge-oj/usersvc/config"
	"github.com/jjudge-oj/usersvc/internal/logger"
	"github.com/jjudge-oj/usersvc/internal/services"
	"github.com/jjudge-oj/usersvc/internal/store"
	"github.com/spf13/cobra"
)

var cfg config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "usersvc",
	Short: "User management API with JWT authentication",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.LoadConfig()
		logger.Setup(cfg.LogLevel)
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newStoreUserService builds a user service for offline commands. It hashes
// passwords but cannot issue tokens, so JWT_SECRET is not needed.
func newStoreUserService(dbConn *sql.DB) (*services.UserService, error) {
	hasher, err := services.NewPasswordHasher(cfg.Auth.PasswordHash, cfg.Auth.PBKDF2Iterations)
	if err != nil {
		return nil, err
	}
	return services.NewUserService(store.NewUserRepository(dbConn), hasher, nil), nil
}
