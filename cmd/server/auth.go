package main

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Simplici0/pressworks/internal/store"
)

const sessionCookieName = "pressworks_session"

type authService struct {
	store         *store.Store
	sessionSecret []byte
}

// newAuthService signs sessions with sessionSecret. Without a secret a random
// one is generated, so sessions do not survive a restart.
func newAuthService(st *store.Store, sessionSecret string, logger *zap.Logger) *authService {
	secret := []byte(sessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			panic(fmt.Sprintf("generate session secret: %v", err))
		}
		if logger != nil {
			logger.Warn("using an ephemeral session secret")
		}
	}
	return &authService{store: st, sessionSecret: secret}
}

func (a *authService) validateCredentials(ctx context.Context, email, password string) (bool, error) {
	hash, err := a.store.PasswordHash(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("compare password hash: %w", err)
	}
	return true, nil
}

func (a *authService) createSessionValue(email string) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(store.NormalizeEmail(email)))
	mac := hmac.New(sha256.New, a.sessionSecret)
	_, _ = mac.Write([]byte(payload))
	signature := hex.EncodeToString(mac.Sum(nil))
	return payload + "." + signature
}

func (a *authService) verifySessionValue(value string) (string, bool) {
	payload, signature, ok := strings.Cut(value, ".")
	if !ok || strings.Contains(signature, ".") {
		return "", false
	}

	mac := hmac.New(sha256.New, a.sessionSecret)
	_, _ = mac.Write([]byte(payload))
	expected := mac.Sum(nil)

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(provided, expected) {
		return "", false
	}

	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil || len(decoded) == 0 {
		return "", false
	}

	return string(decoded), true
}

func (a *authService) sessionEmail(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return "", false
	}
	return a.verifySessionValue(cookie.Value)
}

func (a *authService) setSessionCookie(w http.ResponseWriter, email string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    a.createSessionValue(email),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *authService) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	valid, err := s.auth.validateCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if !valid {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}

	s.auth.setSessionCookie(w, req.Email)
	writeJSON(w, http.StatusOK, map[string]string{"email": store.NormalizeEmail(req.Email)})
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login", "/healthz", "/metrics":
			next.ServeHTTP(w, r)
			return
		}

		if _, ok := s.auth.sessionEmail(r); !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
