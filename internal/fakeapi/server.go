// Package fakeapi is an in-memory stand-in for the fleet REST backend. It
// serves the same /api surface (JWT auth, paginated collections with
// filtering, search and ordering, DRF-style error bodies) and is used by tests
// and by `fleetctl dev-server`.
package fakeapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Paaskehare/SevenShift/client"
)

// Server holds the backend state. It is safe for concurrent use.
type Server struct {
	logger     zerolog.Logger
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	seed       bool

	mu            sync.RWMutex
	accounts      map[string]account
	accessGen     int64
	refreshGen    int64
	rotateRefresh bool

	refreshCalls atomic.Int64

	vehicles     *table[client.Vehicle]
	vehicleMakes *table[client.VehicleMake]
	offers       *table[client.LeasingOffer]
	contracts    *table[client.LeasingContract]
	makes        *table[client.CatalogMake]
	models       *table[client.CatalogModel]
	generations  *table[client.CatalogGeneration]
	variants     *table[client.CatalogVariant]

	router *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithSecret sets the HS256 signing key.
func WithSecret(secret []byte) Option {
	return func(s *Server) { s.secret = secret }
}

// WithAccessTTL sets the lifetime of issued access tokens.
func WithAccessTTL(d time.Duration) Option {
	return func(s *Server) { s.accessTTL = d }
}

// WithRefreshTTL sets the lifetime of issued refresh tokens.
func WithRefreshTTL(d time.Duration) Option {
	return func(s *Server) { s.refreshTTL = d }
}

// WithClock replaces time.Now for token issue and verification.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithRefreshRotation makes the refresh endpoint return a new refresh token.
func WithRefreshRotation(enabled bool) Option {
	return func(s *Server) { s.rotateRefresh = enabled }
}

// WithLogger sets the logger used for access logs and panics.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithoutSeed starts with empty collections and only the default accounts.
func WithoutSeed() Option {
	return func(s *Server) { s.seed = false }
}

// WithAccount adds a login. Existing usernames are replaced.
func WithAccount(username, password, role string) Option {
	return func(s *Server) {
		id := int64(len(s.accounts) + 1)
		if acc, ok := s.accounts[username]; ok {
			id = acc.user.ID
		}
		s.accounts[username] = account{
			user:     client.User{ID: id, Username: username, Email: username + "@sevenshift.test", Role: role},
			password: password,
		}
	}
}

// New creates a Server seeded with demo data and the accounts
// admin/admin, manager/manager, sales/sales and viewer/viewer.
func New(opts ...Option) *Server {
	s := &Server{
		logger:     zerolog.Nop(),
		secret:     []byte("sevenshift-dev-secret"),
		accessTTL:  5 * time.Minute,
		refreshTTL: 24 * time.Hour,
		now:        time.Now,
		seed:       true,
		accounts:   map[string]account{},

		vehicles:     newTable(func(v client.Vehicle) int64 { return v.ID }),
		vehicleMakes: newTable(func(m client.VehicleMake) int64 { return m.ID }),
		offers:       newTable(func(o client.LeasingOffer) int64 { return o.ID }),
		contracts:    newTable(func(c client.LeasingContract) int64 { return c.ID }),
		makes:        newTable(func(m client.CatalogMake) int64 { return m.ID }),
		models:       newTable(func(m client.CatalogModel) int64 { return m.ID }),
		generations:  newTable(func(g client.CatalogGeneration) int64 { return g.ID }),
		variants:     newTable(func(v client.CatalogVariant) int64 { return v.ID }),
	}
	for _, role := range []string{"admin", "manager", "sales", "viewer"} {
		WithAccount(role, role, role)(s)
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.seed {
		s.seedData()
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler serving /api.
func (s *Server) Handler() http.Handler { return s.router }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ExpireAccessTokens invalidates every access token issued so far.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	s.accessGen++
	s.mu.Unlock()
}

// RevokeRefreshTokens invalidates every refresh token issued so far.
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	s.refreshGen++
	s.mu.Unlock()
}

// RefreshCalls returns how many times the refresh endpoint was called.
func (s *Server) RefreshCalls() int64 { return s.refreshCalls.Load() }

// VehicleCount returns the number of stored vehicles.
func (s *Server) VehicleCount() int { return s.vehicles.count() }

// ListenAndServe serves on addr until ctx is cancelled. ready, when non-nil,
// receives the bound address once the listener is open.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if ready != nil {
		ready(ln.Addr())
	}

	srv := &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(recoverer(s.logger), accessLog(s.logger))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { writeNotFound(w) })
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, `Method "`+r.Method+`" not allowed.`)
	})

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/token/", s.handleObtainToken).Methods(http.MethodPost)
	api.HandleFunc("/auth/token/refresh/", s.handleRefreshToken).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(s.requireAuth)
	authed.HandleFunc("/auth/me/", s.handleMe).Methods(http.MethodGet)

	readOnly(authed, "/vehicles/makes/", s.vehicleMakes, s.vehicleMakeSpec())
	writable(s, authed, "/vehicles/", s.vehicles, s.vehicleSpec(), s.vehicleWrite())
	writable(s, authed, "/leasing/offers/", s.offers, s.offerSpec(), s.offerWrite())
	writable(s, authed, "/leasing/contracts/", s.contracts, s.contractSpec(), s.contractWrite())

	readOnly(authed, "/catalog/makes/", s.makes, s.catalogMakeSpec())
	readOnly(authed, "/catalog/models/", s.models, s.catalogModelSpec())
	readOnly(authed, "/catalog/generations/", s.generations, s.catalogGenerationSpec())
	readOnly(authed, "/catalog/variants/", s.variants, s.catalogVariantSpec())
	return r
}

func readOnly[T any](r *mux.Router, path string, t *table[T], spec listSpec[T]) {
	r.HandleFunc(path, listHandler(t, spec)).Methods(http.MethodGet)
	r.HandleFunc(path+"{id:[0-9]+}/", detailHandler(t)).Methods(http.MethodGet)
}

func writable[T, In any](s *Server, r *mux.Router, path string, t *table[T], spec listSpec[T], ws writeSpec[T, In]) {
	readOnly(r, path, t, spec)
	r.HandleFunc(path, createHandler(s, t, ws)).Methods(http.MethodPost)
	r.HandleFunc(path+"{id:[0-9]+}/", patchHandler(s, t, ws)).Methods(http.MethodPatch)
	r.HandleFunc(path+"{id:[0-9]+}/", deleteHandler(t)).Methods(http.MethodDelete)
}
