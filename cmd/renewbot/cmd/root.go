package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"renewbot/lib/configutil"
	"renewbot/services/renewal"

	"github.com/spf13/cobra"
)

var configPath string
var verbose bool

var rootCmd = &cobra.Command{
	Use:   "renewbot",
	Short: "renewbot renews hosting services on the HidenCloud dashboard and pays the resulting invoices.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "path to the bot configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Returns a context that will live until Ctrl+C is pressed
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	return ctx
}

// a missing config file is fine, the bot also runs configured purely
// from environment variables
func loadConfig() renewal.Config {
	config, err := configutil.ReadConfig[renewal.Config](configPath)
	if err != nil && !os.IsNotExist(err) {
		fatal("failed to read config", err)
	}
	return config.WithEnvOverrides().WithDefaults()
}

func fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}
