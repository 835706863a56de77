package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/Paaskehare/SevenShift/client/session"
	"github.com/Paaskehare/SevenShift/listing"
)

type stubAuth struct {
	refreshCalls atomic.Int32
	next         string
	err          error
	delay        time.Duration
}

func (a *stubAuth) Obtain(context.Context, string, string) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "old", RefreshToken: "r1"}, nil
}

func (a *stubAuth) Refresh(context.Context, string) (*oauth2.Token, error) {
	a.refreshCalls.Add(1)
	if a.delay > 0 {
		time.Sleep(a.delay)
	}
	if a.err != nil {
		return nil, a.err
	}
	return &oauth2.Token{AccessToken: a.next}, nil
}

func loggedIn(t *testing.T, auth session.Authenticator) *session.Session {
	t.Helper()
	sess := session.New(session.NewMemoryStore(), auth)
	require.NoError(t, sess.Login(context.Background(), "alice", "secret"))
	return sess
}

// tokenGate accepts only requests bearing the valid token.
type tokenGate struct {
	mu    sync.Mutex
	valid string
	seen  []string
}

func (g *tokenGate) handler(ok http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		g.mu.Lock()
		g.seen = append(g.seen, got)
		valid := g.valid
		g.mu.Unlock()
		if got != valid {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Given token not valid for any token type"}`))
			return
		}
		ok(w, r)
	}
}

func (g *tokenGate) hits() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestRequest_AttachesHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		writeJSON(w, http.StatusOK, map[string]any{"id": 1, "username": "alice", "role": "admin"})
	}))
	defer srv.Close()

	c := New(srv.URL+"/api", loggedIn(t, &stubAuth{}), WithUserAgent("fleet-test"))
	u, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	assert.Equal(t, "Bearer old", got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Equal(t, "fleet-test", got.Get("User-Agent"))
	assert.NotEmpty(t, got.Get(HeaderRequestID))
}

func TestRefreshThenRetryOnce(t *testing.T) {
	gate := &tokenGate{valid: "new"}
	srv := httptest.NewServer(gate.handler(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/vehicles/3/", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"id": 3, "status": "leased"})
	}))
	defer srv.Close()

	auth := &stubAuth{next: "new"}
	sess := loggedIn(t, auth)
	c := New(srv.URL+"/api", sess)

	v, err := c.Vehicles().Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "leased", v.Status)
	assert.Equal(t, int32(1), auth.refreshCalls.Load())
	assert.Equal(t, []string{"old", "new"}, gate.seen)
	assert.Equal(t, "new", sess.AccessToken())
	assert.Equal(t, "r1", sess.Token().RefreshToken)
}

func TestRefreshFailureClearsSession(t *testing.T) {
	gate := &tokenGate{valid: "never"}
	srv := httptest.NewServer(gate.handler(func(http.ResponseWriter, *http.Request) {}))
	defer srv.Close()

	auth := &stubAuth{err: errors.New("refresh token expired")}
	sess := loggedIn(t, auth)
	events, cancel := sess.Subscribe()
	defer cancel()
	c := New(srv.URL+"/api", sess)

	_, err := c.Offers().List(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorIs(t, err, session.ErrSessionTerminated)
	assert.False(t, sess.Authenticated())
	assert.Equal(t, 1, gate.hits(), "no retry after a failed refresh")

	select {
	case evt := <-events:
		assert.Equal(t, session.ReasonRefreshFailed, evt.Reason)
	case <-time.After(time.Second):
		t.Fatal("expected a terminated event")
	}
}

func TestRetried401DoesNotRefreshAgain(t *testing.T) {
	gate := &tokenGate{valid: "never"}
	srv := httptest.NewServer(gate.handler(func(http.ResponseWriter, *http.Request) {}))
	defer srv.Close()

	auth := &stubAuth{next: "new-but-rejected"}
	sess := loggedIn(t, auth)
	events, cancel := sess.Subscribe()
	defer cancel()
	c := New(srv.URL+"/api", sess)

	_, err := c.Contracts().Get(context.Background(), 1)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), auth.refreshCalls.Load())
	assert.Equal(t, 2, gate.hits())
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))

	assert.True(t, sess.Authenticated(), "a rejected retry keeps the refreshed credentials")
	assert.Empty(t, events)
}

func TestSignedOut401DoesNotTerminate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	auth := &stubAuth{next: "unused"}
	store := session.NewMemoryStore()
	sess := session.New(store, auth)
	events, cancel := sess.Subscribe()
	defer cancel()

	_, err := New(srv.URL, sess).Me(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
	assert.Equal(t, int32(0), auth.refreshCalls.Load())
	assert.Empty(t, events, "no Terminated event for a session that never signed in")
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	gate := &tokenGate{valid: "new"}
	srv := httptest.NewServer(gate.handler(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"count": 0, "results": []any{}})
	}))
	defer srv.Close()

	auth := &stubAuth{next: "new", delay: 50 * time.Millisecond}
	c := New(srv.URL+"/api", loggedIn(t, auth))

	const n = 12
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Vehicles().List(context.Background(), nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), auth.refreshCalls.Load())
}

func TestForbiddenDoesNotRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "You do not have permission to perform this action."})
	}))
	defer srv.Close()

	auth := &stubAuth{next: "new"}
	sess := loggedIn(t, auth)
	c := New(srv.URL+"/api", sess)

	err := c.Vehicles().Delete(context.Background(), 5)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(0), auth.refreshCalls.Load())
	assert.True(t, sess.Authenticated(), "a 403 leaves the session intact")
	assert.Contains(t, Message(err), "permission")
}

func TestAnonymous401(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).Me(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestErrorTaxonomy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/vehicles/404/":
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		case "/vehicles/":
			writeJSON(w, http.StatusBadRequest, map[string][]string{
				"vin":              {"vehicle with this vin already exists."},
				"non_field_errors": {"Purchase date is in the future."},
			})
		case "/vehicles/500/":
			w.WriteHeader(http.StatusInternalServerError)
		case "/vehicles/409/":
			w.WriteHeader(http.StatusConflict)
		}
	}))

	c := New(srv.URL, nil)
	ctx := context.Background()

	_, err := c.Vehicles().Get(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Not found.", Message(err))

	vin := "WVW123"
	_, err = c.Vehicles().Create(ctx, VehicleInput{VIN: &vin})
	require.ErrorIs(t, err, ErrValidation)
	fields := FieldErrors(err)
	assert.Equal(t, []string{"vehicle with this vin already exists."}, fields["vin"])
	assert.Contains(t, Message(err), "Purchase date is in the future.")

	_, err = c.Vehicles().Get(ctx, 500)
	assert.ErrorIs(t, err, ErrServer)

	_, err = c.Vehicles().Get(ctx, 409)
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, KindUnexpected, ae.Kind)
	assert.Equal(t, http.StatusConflict, ae.StatusCode)
	assert.Equal(t, "GET /vehicles/409/", ae.Op)

	srv.Close()
	_, err = c.Vehicles().Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, 0, StatusCode(err))
}

func TestCanceledContextIsNetworkError(t *testing.T) {
	c := New("http://127.0.0.1:1", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Me(ctx)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDeleteNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, New(srv.URL, nil).Offers().Delete(context.Background(), 8))
}

func TestListFetcherDrivesController(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		writeJSON(w, http.StatusOK, map[string]any{
			"count":   40,
			"results": []map[string]any{{"id": 26, "status": "active"}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL+"/api", nil)
	ctl := listing.New(c.Offers().Fetcher(), listing.WithName("offers"))
	defer ctl.Close()

	ctl.SetFilters(map[string]string{listing.FilterStatus: "active", listing.FilterSearch: ""})
	ctl.Wait()

	st := ctl.State()
	require.NoError(t, st.Err)
	assert.Equal(t, 40, st.TotalCount)
	require.Len(t, st.Items, 1)
	assert.Equal(t, int64(26), st.Items[0].ID)
	assert.Equal(t, "page=1&page_size=25&status=active", query)
}
