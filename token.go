package main

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"go-payments/api"
)

func tokenCmd() *cobra.Command {
	var (
		subject string
		roles   []string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token for the protected routes",
		Long: `Print an HS256 token signed with auth.jwt_secret.

Examples:
  PAYMENTS_AUTH_JWT_SECRET=s3cret go-payments token --subject ops-user
  go-payments token -c payments.yaml --subject batch --role payments`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = l.Sync() }()
			return writeToken(cmd.OutOrStdout(), cfg.Auth.JWTSecret, subject, roles)
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "token subject")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "role claim, repeatable")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func writeToken(w io.Writer, secret, subject string, roles []string) error {
	if secret == "" {
		return errors.New("auth.jwt_secret is not set")
	}
	if subject == "" {
		return errors.New("subject is required")
	}
	token, err := api.IssueToken([]byte(secret), subject, roles...)
	if err != nil {
		return errors.Wrap(err, "Failed sign token")
	}
	_, err = fmt.Fprintln(w, token)
	return err
}
