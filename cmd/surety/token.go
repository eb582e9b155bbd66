package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	jwttoken "flightsurety/internal/jwt_token"
	id "flightsurety/pkg/domain"
)

func (c *cli) newTokenCmd() *cobra.Command {
	var (
		sender string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for an account address",
		Long:  `Mint a signed access token whose subject is the given sender address. Intended for development.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := id.ParseAddress(sender)
			if err != nil {
				return fmt.Errorf("sender: %w", err)
			}
			if ttl <= 0 {
				ttl = c.cfg.Auth.TokenTTL
			}
			svc := jwttoken.NewJWTService(c.cfg.Auth.SigningKey, c.cfg.Auth.Issuer, c.cfg.Auth.Audience)
			token, err := svc.GenerateAccessToken(addr, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&sender, "sender", "", "account address placed in the token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default: auth.token_ttl)")
	_ = cmd.MarkFlagRequired("sender")
	return cmd
}
