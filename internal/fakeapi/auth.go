package fakeapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Paaskehare/SevenShift/client"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type tokenClaims struct {
	TokenType  string `json:"token_type"`
	UserID     int64  `json:"user_id"`
	Generation int64  `json:"gen"`
	jwt.RegisteredClaims
}

type account struct {
	user     client.User
	password string
}

type ctxKey struct{}

func userFrom(ctx context.Context) client.User {
	u, _ := ctx.Value(ctxKey{}).(client.User)
	return u
}

func (s *Server) issue(u client.User, typ string, ttl time.Duration, gen int64) (string, error) {
	now := s.now()
	claims := tokenClaims{
		TokenType:  typ,
		UserID:     u.ID,
		Generation: gen,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

var errTokenInvalid = errors.New("token is invalid or expired")

// verify checks signature, expiry, token type and generation.
func (s *Server) verify(raw, typ string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, errTokenInvalid
	}
	if claims.TokenType != typ {
		return nil, errTokenInvalid
	}

	s.mu.RLock()
	gen := s.accessGen
	if typ == tokenTypeRefresh {
		gen = s.refreshGen
	}
	s.mu.RUnlock()
	if claims.Generation < gen {
		return nil, errTokenInvalid
	}
	return claims, nil
}

func (s *Server) pair(u client.User) (client.TokenPair, error) {
	s.mu.RLock()
	ag, rg := s.accessGen, s.refreshGen
	s.mu.RUnlock()

	access, err := s.issue(u, tokenTypeAccess, s.accessTTL, ag)
	if err != nil {
		return client.TokenPair{}, err
	}
	refresh, err := s.issue(u, tokenTypeRefresh, s.refreshTTL, rg)
	if err != nil {
		return client.TokenPair{}, err
	}
	return client.TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *Server) handleObtainToken(w http.ResponseWriter, r *http.Request) {
	var req client.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error")
		return
	}
	fe := fieldErrors{}
	if req.Username == "" {
		fe.required("username")
	}
	if req.Password == "" {
		fe.required("password")
	}
	if len(fe) > 0 {
		writeFieldErrors(w, fe)
		return
	}

	s.mu.RLock()
	acc, ok := s.accounts[req.Username]
	s.mu.RUnlock()
	if !ok || acc.password != req.Password {
		writeDetail(w, http.StatusUnauthorized, "No active account found with the given credentials")
		return
	}

	tp, err := s.pair(acc.user)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tp)
}

func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)

	var req client.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error")
		return
	}
	if req.Refresh == "" {
		fe := fieldErrors{}
		fe.required("refresh")
		writeFieldErrors(w, fe)
		return
	}

	claims, err := s.verify(req.Refresh, tokenTypeRefresh)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "Token is invalid or expired",
			"code":   "token_not_valid",
		})
		return
	}

	u, ok := s.userByID(claims.UserID)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "User not found")
		return
	}

	s.mu.RLock()
	ag, rg, rotate := s.accessGen, s.refreshGen, s.rotateRefresh
	s.mu.RUnlock()

	access, err := s.issue(u, tokenTypeAccess, s.accessTTL, ag)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := client.AccessToken{Access: access}
	if rotate {
		if out.Refresh, err = s.issue(u, tokenTypeRefresh, s.refreshTTL, rg); err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFrom(r.Context()))
}

// requireAuth rejects requests without a valid access token.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Authorization header must contain two space-delimited values")
			return
		}
		claims, err := s.verify(raw, tokenTypeAccess)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
			return
		}
		u, found := s.userByID(claims.UserID)
		if !found {
			writeDetail(w, http.StatusUnauthorized, "User not found")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, u)))
	})
}

func (s *Server) userByID(id int64) (client.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, acc := range s.accounts {
		if acc.user.ID == id {
			return acc.user, true
		}
	}
	return client.User{}, false
}
