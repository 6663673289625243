package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/justestif/go-sleep-meditation/internal/auth"
)

var errMissingSecret = errors.New("AUTH_HMAC_SECRET must be set to issue development tokens")

func newTokenCmd() *cobra.Command {
	var (
		uid   string
		email string
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an HS256 bearer token for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("AUTH_HMAC_SECRET")
			if secret == "" {
				return errMissingSecret
			}

			token, err := auth.IssueHMACToken(secret, uid, email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&uid, "uid", "dev-user", "subject (user id) of the token")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
