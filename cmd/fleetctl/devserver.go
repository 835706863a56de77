package main

import (
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Paaskehare/SevenShift/internal/fakeapi"
	"github.com/Paaskehare/SevenShift/internal/platform/logger"
)

func newDevServerCmd() *cobra.Command {
	var (
		addr       string
		accessTTL  time.Duration
		refreshTTL time.Duration
		rotate     bool
		pretty     bool
	)

	cmd := &cobra.Command{
		Use:   "dev-server",
		Short: "Serve an in-memory fleet backend for local development",
		Long: `Serves a seeded in-memory copy of the fleet API under /api/.

Accounts admin, manager, sales and viewer exist with the password equal to the
username. Point the CLI at it with --api-url http://<addr>/api.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cfg.DevAddr
			}
			lg := logger.New("fleet-dev-server")
			if pretty {
				lg = logger.Console(cmd.ErrOrStderr(), cfg.Debug)
			}

			srv := fakeapi.New(
				fakeapi.WithLogger(lg),
				fakeapi.WithAccessTTL(accessTTL),
				fakeapi.WithRefreshTTL(refreshTTL),
				fakeapi.WithRefreshRotation(rotate),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.ListenAndServe(ctx, addr, func(a net.Addr) {
				lg.Info().
					Str("addr", a.String()).
					Str("api_url", "http://"+a.String()+"/api").
					Int("vehicles", srv.VehicleCount()).
					Msg("dev server listening")
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from FLEET_DEV_ADDR)")
	cmd.Flags().DurationVar(&accessTTL, "access-ttl", 5*time.Minute, "Access token lifetime")
	cmd.Flags().DurationVar(&refreshTTL, "refresh-ttl", 24*time.Hour, "Refresh token lifetime")
	cmd.Flags().BoolVar(&rotate, "rotate-refresh", false, "Issue a new refresh token on every refresh")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Human-readable logs on stderr instead of JSON")

	return cmd
}
