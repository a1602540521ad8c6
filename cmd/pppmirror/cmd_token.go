package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/HerbHall/pppmirror/internal/auth"
	"github.com/HerbHall/pppmirror/internal/config"
)

// runToken mints an API token signed with auth.jwt_secret.
func runToken(args []string) {
	if err := mintToken(args, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "pppmirror token: %v\n", err)
		os.Exit(1)
	}
}

func mintToken(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to configuration file")
	subject := fs.String("subject", "", "who the token is for, e.g. billing")
	role := fs.String("role", auth.RoleOperator, "operator or reader")
	ttl := fs.Duration("ttl", 0, "token lifetime; 0 uses auth.token_ttl")
	if err := fs.Parse(args); err != nil {
		return err
	}

	v, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Decode(v)
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is not configured")
	}

	lifetime := cfg.Auth.TokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}
	token, err := auth.NewTokenService([]byte(cfg.Auth.JWTSecret), lifetime).Issue(*subject, *role)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, token)
	if err == nil && lifetime > 0 {
		fmt.Fprintf(os.Stderr, "expires %s\n", time.Now().Add(lifetime).UTC().Format(time.RFC3339))
	}
	return err
}
