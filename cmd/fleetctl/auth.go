package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Paaskehare/SevenShift/client"
)

const commandTimeout = 15 * time.Second

func newLoginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the token pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("password required: pass --password or pipe it on stdin")
				}
				password = strings.TrimRight(line, "\r\n")
			}

			log.Debug().
				Str("username", username).
				Str("api_url", cfg.APIURL).
				Msg("logging in")

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			c, release, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer release()

			start := time.Now()
			err = c.Session().Login(ctx, username, password)
			elapsed := time.Since(start)
			if err != nil {
				log.Error().
					Err(err).
					Str("username", username).
					Dur("elapsed", elapsed).
					Msg("login failed")
				return errors.New(client.Message(err))
			}

			log.Debug().Dur("elapsed", elapsed).Msg("login completed")
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", username)
			return err
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (required)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored token pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			c, release, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer release()

			if err := c.Session().Logout(ctx); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return err
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			c, release, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer release()
			if !c.Session().Authenticated() {
				return errors.New("not signed in; run fleetctl login")
			}

			start := time.Now()
			u, err := c.Me(ctx)
			if err != nil {
				log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("fetch current user failed")
				return errors.New(client.Message(err))
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), u)
			}
			name := strings.TrimSpace(u.FirstName + " " + u.LastName)
			if name == "" {
				name = u.Username
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, role %s)\n", name, u.Username, u.Role)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON record")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the configured backend and stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			c, release, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer release()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "API URL:       %s\n", c.BaseURL())
			fmt.Fprintf(out, "Credentials:   %s\n", cfg.CredentialStore)
			tok := c.Session().Token()
			if tok == nil || tok.AccessToken == "" {
				_, err = fmt.Fprintln(out, "Authenticated: no")
				return err
			}
			fmt.Fprintln(out, "Authenticated: yes")
			switch {
			case tok.Expiry.IsZero():
				_, err = fmt.Fprintln(out, "Access token:  no expiry claim")
			case time.Now().After(tok.Expiry):
				_, err = fmt.Fprintf(out, "Access token:  expired at %s (refreshed on next request)\n", tok.Expiry.Local().Format(time.RFC3339))
			default:
				_, err = fmt.Fprintf(out, "Access token:  valid until %s\n", tok.Expiry.Local().Format(time.RFC3339))
			}
			return err
		},
	}
}
