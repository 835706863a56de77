package types

// ------------------------------
// Response Types
// ------------------------------

// Page is the paginated list envelope returned by every collection endpoint.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// TokenPair is returned by the login endpoint.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AccessToken is returned by the refresh endpoint. Refresh is set only when
// the backend rotates refresh tokens.
type AccessToken struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}
