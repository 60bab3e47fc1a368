// Command tmi is a toolbox around the TMI line parser: it decodes and replays
// captured chat logs and manages the user token the chat logger connects with.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"twitch-tmi/auth"
	"twitch-tmi/logging"
	"twitch-tmi/tokens"
)

type app struct {
	validator tokens.TokenValidator
	logger    *zap.Logger
	tokenFile string
	logLevel  string
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "tmi",
		Short:         "Parse, replay and authenticate Twitch chat (TMI) traffic",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if a.logger != nil {
				return nil
			}
			logger, err := logging.New(a.logLevel)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.tokenFile, "file", tokens.DefaultTokenFile, "user token file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level")

	root.AddCommand(
		newDecodeCmd(a),
		newReplayCmd(a),
		newAuthCmd(a),
		newLoginCmd(a),
	)
	return root
}

func (a *app) store() tokens.FileTokenStore {
	return tokens.FileTokenStore{Path: a.tokenFile}
}

// openInput returns stdin for no args or "-", the named file otherwise.
func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := &app{validator: auth.Validator{}}
	err := newRootCmd(a).ExecuteContext(ctx)
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "tmi:", err)
		cancel()
		os.Exit(1)
	}
}
