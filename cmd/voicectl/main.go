package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	routesPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "voicectl",
	Short: "Route spoken commands to app pages",
	Long: `voicectl runs the voice command router outside the browser.

Available subcommands:
  listen - recognise one recorded clip and navigate
  match  - show which route a phrase selects
  routes - print the active route table`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// a missing .env is normal outside development
		_ = godotenv.Load()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&routesPath, "routes", "", "YAML route table (defaults to the built-in routes)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log router activity to stderr")

	rootCmd.AddCommand(listenCmd, matchCmd, routesCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&formatter.Formatter{
		TimestampFormat: "15:04:05",
		NoColors:        true,
	})
	logger.SetOutput(io.Discard)
	if verbose {
		logger.SetOutput(w)
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}
