package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"twitch-tmi/stream"
	"twitch-tmi/tmi"
	"twitch-tmi/tokens"
)

const capabilities = "twitch.tv/tags twitch.tv/commands"

func newLoginCmd(a *app) *cobra.Command {
	var channels []string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Print the connection handshake for the stored token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(channels) == 0 {
				return errors.New("at least one --channel is required")
			}

			ctx := cmd.Context()
			token, err := tokens.NewManager(a.store(), a.validator).Get(ctx)
			if err != nil {
				return err
			}

			enc := stream.NewEncoder(cmd.OutOrStdout(), nil)
			for _, msg := range handshake(token, channels) {
				if err := enc.Encode(ctx, msg); err != nil {
					return fmt.Errorf("write handshake: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&channels, "channel", nil, "channel to join, repeatable")
	return cmd
}

func handshake(token tokens.Token, channels []string) []tmi.Message {
	msgs := []tmi.Message{
		tmi.CapReq{Req: capabilities},
		tmi.Pass{Pass: token.IRCPassword()},
		tmi.Nick{Nick: token.Login},
	}
	for _, ch := range channels {
		ch = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ch), "#"))
		if ch == "" {
			continue
		}
		msgs = append(msgs, tmi.Join{Channel: ch})
	}
	return msgs
}
