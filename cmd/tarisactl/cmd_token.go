package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/emmanuelfore/tarisa-sub001/internal/auth"
)

var tokenFlags struct {
	subject string
	role    string
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an operator bearer token signed with AUTH_JWT_SECRET",
	RunE:  runToken,
}

func init() {
	f := tokenCmd.Flags()
	f.StringVar(&tokenFlags.subject, "subject", "", "Operator id (required)")
	f.StringVar(&tokenFlags.role, "role", string(auth.RoleOfficer), "Operator role")
	_ = tokenCmd.MarkFlagRequired("subject")
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	token, expires, err := tokens.GenerateToken(tokenFlags.subject, auth.Role(tokenFlags.role))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, token)
	fmt.Fprintf(out, "expires %s\n", expires.UTC().Format(time.RFC3339))
	return nil
}
