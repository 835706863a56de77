// Package session owns the dashboard's credentials: an access token and a
// refresh token, loaded from a Store at startup, written only by Login,
// Refresh and Logout, and torn down together.
//
// Concurrent refreshes are coalesced: callers that hit an authorization
// failure at the same time share one call to the refresh endpoint. Teardown
// (logout or a failed refresh) is announced to subscribers as a Terminated
// event; the session itself knows nothing about navigation.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// ErrSessionTerminated is returned by Refresh when the session could not be
// recovered and has been torn down.
var ErrSessionTerminated = errors.New("session terminated")

// ErrNotAuthenticated is returned by operations that need a logged-in session.
var ErrNotAuthenticated = errors.New("not authenticated")

// Option configures a Session during construction.
type Option func(*Session)

// WithRefreshTimeout bounds a single refresh call. The refresh runs detached
// from the triggering request's cancellation so that one caller giving up
// does not tear down the session for everyone waiting on it.
func WithRefreshTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.refreshTimeout = d
		}
	}
}

// WithEventBuffer sets the per-subscriber buffer of Terminated events.
func WithEventBuffer(n int) Option {
	return func(s *Session) { s.events = newBus(n) }
}

// Session is process-wide credential state. Pass it explicitly to the API
// client; there is no package-level default.
type Session struct {
	store Store
	auth  Authenticator

	mu    sync.RWMutex
	token *oauth2.Token

	refreshGroup   singleflight.Group
	refreshTimeout time.Duration

	events *bus
}

// New constructs a Session. Call Load to read persisted credentials.
func New(store Store, auth Authenticator, opts ...Option) *Session {
	if store == nil {
		store = NewMemoryStore()
	}
	s := &Session{
		store:          store,
		auth:           auth,
		refreshTimeout: 30 * time.Second,
		events:         newBus(4),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load initialises in-memory credentials from the store.
func (s *Session) Load(ctx context.Context) error {
	tok, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if tok != nil {
		tok.Expiry = accessExpiry(tok.AccessToken)
	}
	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()

	log.Debug().Bool("authenticated", tok != nil && tok.AccessToken != "").Msg("session loaded")
	return nil
}

// Login exchanges username/password for a token pair and persists it.
func (s *Session) Login(ctx context.Context, username, password string) error {
	tok, err := s.auth.Obtain(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if tok.AccessToken == "" || tok.RefreshToken == "" {
		return fmt.Errorf("login: token endpoint returned an incomplete token pair")
	}
	tok.Expiry = accessExpiry(tok.AccessToken)
	if err := s.store.Save(ctx, tok); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()

	log.Info().Str("username", username).Time("access_expiry", tok.Expiry).Msg("logged in")
	return nil
}

// Logout clears credentials from memory and the store and publishes a
// Terminated event with ReasonLogout.
func (s *Session) Logout(ctx context.Context) error {
	return s.terminate(ctx, ReasonLogout, nil)
}

// AccessToken returns the current access token, or "" when logged out.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return ""
	}
	return s.token.AccessToken
}

// Token returns a copy of the current credentials, or nil when logged out.
func (s *Session) Token() *oauth2.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return nil
	}
	cp := *s.token
	return &cp
}

// Authenticated reports whether an access token is held.
func (s *Session) Authenticated() bool {
	return s.AccessToken() != ""
}

// Subscribe registers for Terminated events. Call cancel to unsubscribe.
func (s *Session) Subscribe() (<-chan Terminated, func()) {
	return s.events.subscribe()
}

// Refresh obtains a new access token after rejected was refused by the API.
//
// If the current access token already differs from rejected, another caller
// has refreshed in the meantime and the current token is returned without a
// new refresh call. Callers arriving while a refresh is in flight wait for
// that same refresh. A session that holds no credentials returns
// ErrNotAuthenticated and publishes nothing. On any other failure the session
// is terminated and the returned error matches ErrSessionTerminated.
func (s *Session) Refresh(ctx context.Context, rejected string) (string, error) {
	if current := s.AccessToken(); current != "" && current != rejected {
		refreshesCoalescedTotal.Inc()
		return current, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := s.refreshGroup.DoChan("refresh", func() (any, error) {
		return s.doRefresh(detached, rejected)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			refreshesCoalescedTotal.Inc()
		}
		return res.Val.(string), nil
	}
}

func (s *Session) doRefresh(ctx context.Context, rejected string) (string, error) {
	s.mu.RLock()
	if s.token == nil {
		s.mu.RUnlock()
		refreshesTotal.WithLabelValues("not_authenticated").Inc()
		return "", fmt.Errorf("refresh: %w", ErrNotAuthenticated)
	}
	access, refresh := s.token.AccessToken, s.token.RefreshToken
	s.mu.RUnlock()

	// A refresh that completed between the caller's check and this point.
	if access != "" && access != rejected {
		return access, nil
	}
	if refresh == "" {
		refreshesTotal.WithLabelValues("no_refresh_token").Inc()
		_ = s.terminate(ctx, ReasonNoRefreshToken, nil)
		return "", fmt.Errorf("refresh: no refresh token: %w", ErrSessionTerminated)
	}

	rctx, cancel := context.WithTimeout(ctx, s.refreshTimeout)
	defer cancel()
	tok, err := s.auth.Refresh(rctx, refresh)
	if err == nil && tok.AccessToken == "" {
		err = errors.New("token endpoint returned an empty access token")
	}
	if err != nil {
		refreshesTotal.WithLabelValues("failure").Inc()
		log.Warn().Err(err).Msg("token refresh failed; terminating session")
		_ = s.terminate(ctx, ReasonRefreshFailed, err)
		return "", fmt.Errorf("refresh: %w: %w", ErrSessionTerminated, err)
	}

	next := &oauth2.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		Expiry:       accessExpiry(tok.AccessToken),
	}
	if tok.RefreshToken != "" {
		next.RefreshToken = tok.RefreshToken
	}

	s.mu.Lock()
	// Logout may have raced with the refresh call; do not resurrect credentials.
	if s.token == nil || s.token.RefreshToken != refresh {
		s.mu.Unlock()
		refreshesTotal.WithLabelValues("discarded").Inc()
		return "", fmt.Errorf("refresh: session changed during refresh: %w", ErrSessionTerminated)
	}
	s.token = next
	s.mu.Unlock()

	if err := s.store.Save(ctx, next); err != nil {
		log.Warn().Err(err).Msg("refreshed token could not be persisted; continuing with in-memory token")
	}
	refreshesTotal.WithLabelValues("success").Inc()
	log.Debug().Time("access_expiry", next.Expiry).Msg("access token refreshed")
	return next.AccessToken, nil
}

func (s *Session) terminate(ctx context.Context, reason string, cause error) error {
	s.mu.Lock()
	s.token = nil
	s.mu.Unlock()

	err := s.store.Clear(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("clear stored credentials")
	}

	terminationsTotal.WithLabelValues(reason).Inc()
	n := s.events.publish(Terminated{Reason: reason, Err: cause, At: time.Now()})
	log.Info().Str("reason", reason).Int("subscribers", n).Msg("session terminated")
	return err
}

// accessExpiry reads the exp claim of a JWT access token without verifying
// it. Opaque tokens yield the zero time.
func accessExpiry(access string) time.Time {
	if access == "" {
		return time.Time{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
