package cmd

import (
	"fmt"
	"os"

	"resync/internal/app"
	"resync/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Share a directory with resync clients",
	Long: `Serve the regular files of a directory. Every connection gets its own
session; sessions share nothing but the directory itself.

Use --source-directory to choose the shared directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateServer(); err != nil {
			return fmt.Errorf("invalid server configuration: %w", err)
		}

		ctx, cancel := createContext()
		defer cancel()

		return app.NewServerApp(cfg, os.Stdout).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	defaults := config.NewDefaultConfig()

	serveCmd.Flags().StringP("source-directory", "d", defaults.Server.SharedDir, "directory to share")
	serveCmd.Flags().IntP("port", "p", defaults.Server.Port, "port to listen on")
	serveCmd.Flags().String("address", defaults.Server.Address, "address to bind (all interfaces when empty)")
	serveCmd.Flags().Int("max-connections", defaults.Server.MaxConnections, "concurrent sessions allowed (0 for no limit)")
	serveCmd.Flags().Duration("io-timeout", defaults.Server.IOTimeout, "per-read/write socket timeout (0 for none)")

	viper.BindPFlag("server.shared_dir", serveCmd.Flags().Lookup("source-directory"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.address", serveCmd.Flags().Lookup("address"))
	viper.BindPFlag("server.max_connections", serveCmd.Flags().Lookup("max-connections"))
	viper.BindPFlag("server.io_timeout", serveCmd.Flags().Lookup("io-timeout"))
}
