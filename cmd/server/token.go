package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	jwttoken "plaingov/internal/jwt_token"
)

var tokenFlags struct {
	subject  string
	clientID string
	ttl      time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the HTTP transport",
	Long: `token signs an access token with PLAINGOV_JWT_SIGNING_KEY. It is meant for
local development and for wiring trusted clients.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.JWTSigningKey == "" {
			return errors.New("PLAINGOV_JWT_SIGNING_KEY is not set")
		}
		svc := jwttoken.NewJWTService(cfg.JWTSigningKey, jwttoken.DefaultIssuer, jwttoken.DefaultAudience)
		token, err := svc.GenerateAccessToken(tokenFlags.subject, tokenFlags.clientID, tokenFlags.ttl)
		if err != nil {
			return fmt.Errorf("generate token: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenFlags.subject, "subject", "dev", "token subject")
	tokenCmd.Flags().StringVar(&tokenFlags.clientID, "client-id", "plaingov-cli", "client id claim")
	tokenCmd.Flags().DurationVar(&tokenFlags.ttl, "ttl", time.Hour, "token lifetime")
}
