package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pladderBot/internal/app/runtime"
	"pladderBot/internal/domain"
)

var runCmd = &cobra.Command{
	Use:   "run [text]",
	Short: "Run a single command line and print the result",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		network, _ := cmd.Flags().GetString("network")
		channel, _ := cmd.Flags().GetString("channel")
		nick, _ := cmd.Flags().GetString("nick")

		rt, err := runtime.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		res := rt.Dispatcher().RunCommand(cmd.Context(), domain.Message{
			Timestamp: time.Now().UTC(),
			Network:   domain.Platform(network),
			Channel:   channel,
			Nick:      nick,
			Text:      strings.Join(args, " "),
		})
		if res.IsError() {
			fmt.Fprintln(cmd.ErrOrStderr(), res.Text)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Text)
		return nil
	},
}

func init() {
	nick := os.Getenv("USER")
	if nick == "" {
		nick = "cli"
	}
	runCmd.Flags().String("network", string(domain.PlatformAPI), "network the line is attributed to")
	runCmd.Flags().String("channel", "cli", "channel the line is attributed to")
	runCmd.Flags().String("nick", nick, "nick the line is attributed to")
}
