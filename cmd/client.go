package cmd

import (
	"context"
	"fmt"
	"os"

	"resync/internal/app"
	"resync/internal/config"
	"resync/internal/ui"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// clientCmd represents the client command
var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Connect to a resync server",
	Long: `Connect to a resync server. Without a subcommand an interactive menu
offers download, upload, listing and exit.

Downloads land in --destination-directory and uploads are read from it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClient(func(a *app.ClientApp, ctx context.Context) error {
			return a.Run(ctx)
		})
	},
}

var clientListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the server's file list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClient(func(a *app.ClientApp, ctx context.Context) error {
			return a.RunList(ctx)
		})
	},
}

var clientDownloadCmd = &cobra.Command{
	Use:   "download NAME",
	Short: "Download or resume one file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClient(func(a *app.ClientApp, ctx context.Context) error {
			return a.RunDownload(ctx, args[0])
		})
	},
}

var clientUploadCmd = &cobra.Command{
	Use:   "upload NAME",
	Short: "Upload one file, replacing the server's copy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClient(func(a *app.ClientApp, ctx context.Context) error {
			return a.RunUpload(ctx, args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(clientCmd)
	clientCmd.AddCommand(clientListCmd, clientDownloadCmd, clientUploadCmd)
	defaults := config.NewDefaultConfig()

	flags := clientCmd.PersistentFlags()
	flags.StringP("host", "H", defaults.Client.Host, "server host")
	flags.IntP("port", "p", defaults.Client.Port, "server port")
	flags.String("destination-directory", defaults.Client.DestDir, "directory downloads are written to and uploads read from")
	flags.Duration("dial-timeout", defaults.Client.DialTimeout, "connection timeout")
	flags.Duration("io-timeout", defaults.Client.IOTimeout, "per-read/write socket timeout (0 for none)")

	viper.BindPFlag("client.host", flags.Lookup("host"))
	viper.BindPFlag("client.port", flags.Lookup("port"))
	viper.BindPFlag("client.dest_dir", flags.Lookup("destination-directory"))
	viper.BindPFlag("client.dial_timeout", flags.Lookup("dial-timeout"))
	viper.BindPFlag("client.io_timeout", flags.Lookup("io-timeout"))
}

// runClient validates the client settings and runs fn with a signal-aware context
func runClient(fn func(*app.ClientApp, context.Context) error) error {
	if err := cfg.ValidateClient(); err != nil {
		return fmt.Errorf("invalid client configuration: %w", err)
	}

	ctx, cancel := createContext()
	defer cancel()

	console := ui.NewConsoleUI(os.Stdin, os.Stdout)
	clientApp := app.NewClientApp(cfg, console, ui.NewProgress(os.Stdout))
	return fn(clientApp, ctx)
}
