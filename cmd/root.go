package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"resync/internal/config"
	"resync/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfg     *config.Config
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "resync",
	Short: "resync - resumable point-to-point file sync over TCP",
	Long: `resync shares a flat directory over a small binary TCP protocol.

A server exposes the regular files of one directory. Clients list them,
upload files and download files. An interrupted download resumes from the
last whole chunk once the chunk right before the resume point is verified
against the server's copy.

Usage:
  Share a directory:  resync serve -p 8080 --source-directory ./shared
  Interactive client: resync client -H 127.0.0.1 -p 8080 --destination-directory ./downloads
  One-shot download:  resync client download report.pdf`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		initConfig()

		var err error
		cfg, err = config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return logger.Init(cfg.Log)
	},
}

func init() {
	defaults := config.NewDefaultConfig()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.resync.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "mirror log output to the console")
	rootCmd.PersistentFlags().String("log-file", defaults.Log.File, "file log lines are appended to")

	viper.BindPFlag("log.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))

	config.Configure(viper.GetViper())

	// finalizers run whether or not RunE failed
	cobra.OnFinalize(func() {
		logger.Close()
	})
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not find home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".resync")
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Warning: could not read config file: %v\n", err)
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// createContext creates a context that cancels on interrupt signals
func createContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			fmt.Println("\nReceived interrupt signal, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
