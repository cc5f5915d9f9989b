package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pladderBot/internal/infrastructure/config"
	"pladderBot/internal/infrastructure/logging"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pladder",
	Short: "pladder chat bot",
	Long: `pladder runs PladderScript commands sent from chat networks or the local API.

Configuration comes from the environment and an optional .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFiles, _ := cmd.Flags().GetStringSlice("env")
		loaded, err := config.Load(envFiles...)
		if err != nil {
			return err
		}
		if dir, _ := cmd.Flags().GetString("state-dir"); dir != "" {
			loaded.StateDir = dir
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			loaded.LogLevel = level
		}

		l, err := logging.New(loaded.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg, logger = loaded, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute ejecuta el comando raíz y sale con 1 si falla.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringSlice("env", []string{".env"}, "dotenv files to load before reading the environment")
	rootCmd.PersistentFlags().String("state-dir", "", "override PLADDER_STATE_DIR")
	rootCmd.PersistentFlags().String("log-level", "", "override PLADDER_LOG_LEVEL")

	rootCmd.AddCommand(serveCmd, runCmd, aliasesCmd)
}
