package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	jwttoken "inheritx/internal/jwt_token"
	"inheritx/internal/platform/config"
	id "inheritx/pkg/domain"
)

func newTokenCmd(load func() (config.Config, error)) *cobra.Command {
	var (
		address string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:     "token",
		Short:   "Mint a bearer token for a caller address",
		Example: "  inheritx token --address 0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed --ttl 1h",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			caller, err := id.ParseAddress(address)
			if err != nil {
				return fmt.Errorf("--address: %w", err)
			}
			if ttl == 0 {
				ttl = cfg.JWT.TTL
			}
			token, err := jwttoken.NewJWTService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience).
				GenerateAccessToken(caller, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "caller address (0x-prefixed, 20 bytes)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to jwt.ttl)")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}
