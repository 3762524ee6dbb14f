package siamatlas

import (
	"encoding/json"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/siamatlas/siamatlas/internal/metrics"
	"github.com/siamatlas/siamatlas/pkg/client"
)

// handleSignIn authenticates an admin by username or email plus password.
// Password hashes are bcrypt; a wrong password and an unknown login produce
// the same response so the endpoint does not leak which accounts exist.
func (a *App) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req client.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Login == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Login and password required")
		return
	}

	admin, err := a.store.GetAdminByLogin(r.Context(), req.Login)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if admin == nil || bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
		metrics.SigninsTotal.WithLabelValues("rejected").Inc()
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := a.sessions.Create(admin)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.SigninsTotal.WithLabelValues("accepted").Inc()
	respondJSON(w, http.StatusOK, client.AuthResponse{Token: token, Admin: admin})
}

func (a *App) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if token := getTokenFromHeader(r); token != "" {
		a.sessions.Delete(token)
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (a *App) handleGetCurrentAdmin(w http.ResponseWriter, r *http.Request) {
	admin, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, admin)
}

// handleRefreshToken rotates the caller's session token.
func (a *App) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	oldToken := getTokenFromHeader(r)
	admin := a.sessions.Get(oldToken)
	if admin == nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	token, err := a.sessions.Rotate(oldToken)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	respondJSON(w, http.StatusOK, client.AuthResponse{Token: token, Admin: admin})
}
