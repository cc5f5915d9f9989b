package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pladderBot/internal/app/runtime"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to the configured chats and serve the API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := runtime.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := rt.Close(); err != nil {
				logger.Warn("close", zap.Error(err))
			}
		}()

		logger.Info("serving", zap.String("api", cfg.APIAddr),
			zap.Bool("twitch", cfg.Twitch.Enabled()), zap.Bool("kick", cfg.Kick.Enabled()))
		return rt.Serve(ctx)
	},
}
