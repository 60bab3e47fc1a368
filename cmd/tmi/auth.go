package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"twitch-tmi/tokens"
)

func newAuthCmd(a *app) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Validate a user access token and store it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token = strings.TrimSpace(token)
			if token == "" {
				return errors.New("--token is required")
			}

			manager := tokens.NewManager(a.store(), a.validator)
			saved, err := manager.Register(cmd.Context(), token)
			if err != nil {
				return fmt.Errorf("register token: %w", err)
			}

			expires := "never"
			if !saved.ExpiresAt.IsZero() {
				expires = saved.ExpiresAt.Format(time.RFC3339)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok, login %s, expires %s\n", saved.Login, expires)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "user access token, with or without the oauth: prefix")
	return cmd
}
