package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"PartsHub/internal/session"
	"PartsHub/internal/store"
	"PartsHub/pkg/kit"
)

const sessionCookie = "parts_session"

type ctxKey string

const userKey ctxKey = "user"

func userFromContext(ctx context.Context) (store.User, bool) {
	u, ok := ctx.Value(userKey).(store.User)
	return u, ok
}

// RequireSession resolves the session cookie to a user record and puts
// it on the request context. Anything short of a live session and an
// existing user is a 401.
func (s *Server) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil || c.Value == "" {
			kit.WriteError(w, r, http.StatusUnauthorized, "authentication required", nil)
			return
		}

		sess, err := s.Sessions.Get(r.Context(), c.Value)
		if errors.Is(err, session.ErrNotFound) {
			kit.WriteError(w, r, http.StatusUnauthorized, "session expired", nil)
			return
		}
		if err != nil {
			s.Log.Error("session lookup failed", zap.Error(err))
			kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
			return
		}

		u, ok, err := s.Store.GetUser(r.Context(), sess.UserID)
		if err != nil {
			s.Log.Error("user lookup failed", zap.Error(err), zap.Int("user_id", sess.UserID))
			kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
			return
		}
		if !ok {
			kit.WriteError(w, r, http.StatusUnauthorized, "authentication required", nil)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "username/password required", nil)
		return
	}
	if len(req.Password) < 8 {
		kit.WriteError(w, r, http.StatusBadRequest, "password too short", map[string]any{"min_len": 8})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.Log.Error("hash password failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	u, err := s.Store.CreateUser(r.Context(), req.Username, string(hash))
	if errors.Is(err, store.ErrUsernameTaken) {
		kit.WriteError(w, r, http.StatusConflict, "username already taken", nil)
		return
	}
	if err != nil {
		s.Log.Error("create user failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	if !s.startSession(w, r, u.ID) {
		return
	}
	kit.WriteJSON(w, http.StatusCreated, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	u, ok, err := s.Store.GetUserByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		s.Log.Error("user lookup failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	if !ok || bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)) != nil {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	if !s.startSession(w, r, u.ID) {
		return
	}
	kit.WriteJSON(w, http.StatusOK, u)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		if err := s.Sessions.Destroy(r.Context(), c.Value); err != nil {
			s.Log.Warn("destroy session failed", zap.Error(err))
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	u, ok := userFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, u)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, userID int) bool {
	sess, err := s.Sessions.Create(r.Context(), userID, s.SessionTTL)
	if err != nil {
		s.Log.Error("create session failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return true
}
