package siamatlas

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/siamatlas/siamatlas/internal/blob"
	"github.com/siamatlas/siamatlas/pkg/models"
)

// handleRegister accepts an administrator application as a multipart form:
// full_name, email, username, password, about, plus a "cv" file. The CV goes
// straight to the media host; the request stays pending until an existing
// admin accepts or rejects it.
func (a *App) handleRegister(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	reg := models.RegistrationRequest{
		FullName: r.FormValue("full_name"),
		Email:    r.FormValue("email"),
		Username: r.FormValue("username"),
		About:    r.FormValue("about"),
		Status:   models.StatusPending,
	}
	password := r.FormValue("password")
	if reg.FullName == "" || reg.Email == "" || reg.Username == "" || password == "" {
		respondError(w, http.StatusBadRequest, "full_name, email, username and password are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	reg.PasswordHash = string(hash)

	ctx := r.Context()
	taken, err := a.loginTaken(ctx, reg.Username, reg.Email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if taken {
		respondError(w, http.StatusBadRequest, "Username or email already in use")
		return
	}

	if file, header, err := r.FormFile("cv"); err == nil {
		defer file.Close()
		key := fmt.Sprintf("cv/%s/%s", uuid.NewString(), header.Filename)
		info, err := a.blobs.Put(ctx, key, file, blob.PutOptions{
			ContentType: header.Header.Get("Content-Type"),
		})
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if a.config.MediaBaseURL != "" {
			reg.CVURL = a.config.MediaBaseURL + "/" + key
		} else if info.URL != "" {
			reg.CVURL = info.URL
		} else {
			reg.CVURL = key
		}
	}

	if err := a.store.CreateRegistration(ctx, &reg); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, reg)
}

// loginTaken reports whether either the username or the email already belongs
// to an admin account.
func (a *App) loginTaken(ctx context.Context, username, email string) (bool, error) {
	for _, login := range []string{username, email} {
		existing, err := a.store.GetAdminByLogin(ctx, login)
		if err != nil {
			return false, err
		}
		if existing != nil {
			return true, nil
		}
	}
	return false, nil
}

// handleListRegistrations lists applications, pending by default; ?status=
// filters by state. Admin only.
func (a *App) handleListRegistrations(w http.ResponseWriter, r *http.Request) {
	_, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	status := models.RequestStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = models.StatusPending
	}
	regs, err := a.store.ListRegistrations(r.Context(), status)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, regs)
}

// handleAcceptRegistration promotes a pending application into an Admin
// account. Transitions are operator-triggered only; an already-decided
// request cannot be accepted again.
func (a *App) handleAcceptRegistration(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	id, err := models.ParseRegistrationID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid registration ID")
		return
	}
	ctx := r.Context()
	reg, err := a.store.GetRegistration(ctx, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if reg == nil {
		respondError(w, http.StatusNotFound, "Registration not found")
		return
	}
	if reg.Status != models.StatusPending {
		respondError(w, http.StatusConflict, "Registration already decided")
		return
	}

	// The login may have been claimed since the application was filed, for
	// example by accepting another pending request with the same username.
	taken, err := a.loginTaken(ctx, reg.Username, reg.Email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if taken {
		respondError(w, http.StatusConflict, "Username or email already in use")
		return
	}

	admin := &models.Admin{
		Username:     reg.Username,
		Email:        reg.Email,
		DisplayName:  reg.FullName,
		PasswordHash: reg.PasswordHash,
		Role:         models.AdminRoleAdmin,
	}
	if err := a.store.CreateAdmin(ctx, admin); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	reg.Status = models.StatusAccepted
	if err := a.store.UpdateRegistration(ctx, reg); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.appendAudit(r, actor, "registration", id.String(), "accept", reg.Username)
	respondJSON(w, http.StatusOK, admin)
}

func (a *App) handleRejectRegistration(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	id, err := models.ParseRegistrationID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid registration ID")
		return
	}
	ctx := r.Context()
	reg, err := a.store.GetRegistration(ctx, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if reg == nil {
		respondError(w, http.StatusNotFound, "Registration not found")
		return
	}
	if reg.Status != models.StatusPending {
		respondError(w, http.StatusConflict, "Registration already decided")
		return
	}
	reg.Status = models.StatusRejected
	if err := a.store.UpdateRegistration(ctx, reg); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.appendAudit(r, actor, "registration", id.String(), "reject", reg.Username)
	respondJSON(w, http.StatusOK, reg)
}
