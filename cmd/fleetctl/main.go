package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Paaskehare/SevenShift/client"
	"github.com/Paaskehare/SevenShift/client/session"
	"github.com/Paaskehare/SevenShift/internal/config"
	"github.com/Paaskehare/SevenShift/internal/telemetry"
)

const (
	serviceName  = "fleetctl"
	redisMaxWait = 5 * time.Second
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	apiURL     string
	configPath string
	debug      bool

	cfg             *config.Config
	shutdownTracing telemetry.Shutdown
)

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fleetctl",
		Short:         "fleetctl manages the SevenShift fleet from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
			log.Logger = log.Output(zerolog.ConsoleWriter{
				Out:        cmd.ErrOrStderr(),
				TimeFormat: "2006-01-02 15:04:05",
				NoColor:    true,
			})

			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("api-url") {
				loaded.APIURL = apiURL
				if err := loaded.Validate(); err != nil {
					return err
				}
			}
			if debug {
				loaded.Debug = true
			}
			cfg = loaded

			if cfg.Debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
				log.Debug().Msg("debug logging enabled")
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}

			shutdownTracing = telemetry.Setup(cmd.Context(), serviceName, cfg.OTELEndpoint, cfg.OTELInsecure)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if shutdownTracing == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return shutdownTracing(ctx)
		},
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Base URL of the fleet API, including /api (overrides FLEET_API_URL)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (overrides FLEET_CONFIG_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable verbose debug output")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newVehiclesCmd())
	rootCmd.AddCommand(newOffersCmd())
	rootCmd.AddCommand(newContractsCmd())
	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newDevServerCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// openStore returns the configured credential store and a function that
// releases it.
func openStore(ctx context.Context) (session.Store, func(), error) {
	switch cfg.CredentialStore {
	case config.StoreMemory:
		return session.NewMemoryStore(), func() {}, nil
	case config.StoreRedis:
		rs, err := session.DialRedisStore(ctx, cfg.RedisAddr, cfg.RedisPrefix, redisMaxWait)
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { _ = rs.Close() }, nil
	default:
		return session.NewFileStore(cfg.CredentialPath), func() {}, nil
	}
}

// newClient builds the session and API client from cfg and loads any stored
// credentials. The returned function releases the credential store.
func newClient(ctx context.Context) (*client.Client, func(), error) {
	store, release, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	sess := session.New(store, session.NewTokenEndpoint(cfg.APIURL, cfg.HTTPTimeout))
	if err := sess.Load(ctx); err != nil {
		release()
		return nil, nil, err
	}

	opts := []client.Option{
		client.WithHTTPTimeout(cfg.HTTPTimeout),
		client.WithUserAgent(serviceName + "/" + version),
	}
	if cfg.Debug {
		opts = append(opts, client.WithDebugLogging(true))
	}
	if cfg.OTELEndpoint != "" {
		opts = append(opts, client.WithTracing())
	}
	return client.New(cfg.APIURL, sess, opts...), release, nil
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
