package main

import (
	"fmt"

	"github.com/spf13/cobra"

	httpapi "telegram-scraper-bot/internal/infra/http"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Mint a bearer token for the admin API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			auth := httpapi.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)
			tok, err := auth.Mint(subject)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	return cmd
}
