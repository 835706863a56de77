package session

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"

	clienterrors "github.com/Paaskehare/SevenShift/client/internal/errors"
	"github.com/Paaskehare/SevenShift/client/internal/types"
)

// Auth endpoint paths, relative to the API base URL.
const (
	PathObtainToken  = "/auth/token/"
	PathRefreshToken = "/auth/token/refresh/"
)

// Authenticator exchanges credentials for tokens. TokenEndpoint is the
// production implementation.
type Authenticator interface {
	// Obtain returns an access and refresh token for username/password.
	Obtain(ctx context.Context, username, password string) (*oauth2.Token, error)
	// Refresh returns a new access token. RefreshToken in the result is
	// empty unless the backend rotated it.
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// TokenEndpoint talks to the backend's token endpoints. It deliberately does
// not go through the API client's authorizing transport, so a failing
// refresh can never recurse into another refresh.
type TokenEndpoint struct {
	client *resty.Client
}

// NewTokenEndpoint creates a TokenEndpoint for the API rooted at baseURL
// (e.g. "https://fleet.example.com/api").
func NewTokenEndpoint(baseURL string, timeout time.Duration) *TokenEndpoint {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	return &TokenEndpoint{client: c}
}

// NewTokenEndpointWithClient is NewTokenEndpoint on top of an existing
// *http.Client, so the token calls share its transport and timeout.
func NewTokenEndpointWithClient(baseURL string, hc *http.Client) *TokenEndpoint {
	c := resty.NewWithClient(hc).
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &TokenEndpoint{client: c}
}

func (e *TokenEndpoint) Obtain(ctx context.Context, username, password string) (*oauth2.Token, error) {
	var pair types.TokenPair
	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(types.LoginRequest{Username: username, Password: password}).
		SetResult(&pair).
		Post(PathObtainToken)
	op := "POST " + PathObtainToken
	if err != nil {
		return nil, clienterrors.NewNetworkError(op, err)
	}
	if resp.IsError() {
		return nil, clienterrors.ClassifyHTTPError(op, resp.StatusCode(), resp.Body())
	}
	return &oauth2.Token{
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
		TokenType:    "Bearer",
	}, nil
}

func (e *TokenEndpoint) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	var at types.AccessToken
	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(types.RefreshRequest{Refresh: refreshToken}).
		SetResult(&at).
		Post(PathRefreshToken)
	op := "POST " + PathRefreshToken
	if err != nil {
		return nil, clienterrors.NewNetworkError(op, err)
	}
	if resp.IsError() {
		return nil, clienterrors.ClassifyHTTPError(op, resp.StatusCode(), resp.Body())
	}
	return &oauth2.Token{
		AccessToken:  at.Access,
		RefreshToken: at.Refresh,
		TokenType:    "Bearer",
	}, nil
}
