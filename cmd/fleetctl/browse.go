package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Paaskehare/SevenShift/internal/dashboard"
)

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Open the interactive fleet dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			// The dashboard owns the terminal; logs go to a file in debug mode
			// and are dropped otherwise.
			var sink io.Writer = io.Discard
			if cfg.Debug {
				path := filepath.Join(os.TempDir(), "fleetctl-browse.log")
				f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
				if err != nil {
					return fmt.Errorf("open debug log: %w", err)
				}
				defer func() { _ = f.Close() }()
				sink = f
				fmt.Fprintf(cmd.ErrOrStderr(), "debug log: %s\n", path)
			}
			log.Logger = zerolog.New(sink).With().Timestamp().Logger()

			c, release, err := newClient(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			return dashboard.Run(cmd.Context(), c, dashboard.WithPageSize(cfg.PageSize))
		},
	}
}
