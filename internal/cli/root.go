package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ksyq12/cpaneldns/internal/logger"
	"github.com/ksyq12/cpaneldns/internal/output"
)

var (
	credentialsPath string
	configPath      string
	jsonOutput      bool
	verbose         bool
	timeout         time.Duration
	version         = "dev"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cpaneldns",
	Short: "DNS-01 challenges and certificate upload for cPanel",
	Long: `cpaneldns solves ACME DNS-01 challenges by managing TXT records in
cPanel-hosted zones, and uploads issued certificates to cPanel's SSL store.

It is meant to be run by certbot as --manual-auth-hook, --manual-cleanup-hook
and --deploy-hook, or to drive certbot itself with the certonly command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	cobra.OnInitialize(func() {
		logger.Init(verbose)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		output.Error("%v", err)
		stop()
		os.Exit(1)
	}
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&credentialsPath, "credentials", "c", "", "cPanel credentials INI file (default from config, then "+defaultCredentialsHint+")")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/cpaneldns/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging for debugging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Deadline for each cPanel API call (default from config, 30s)")
}
