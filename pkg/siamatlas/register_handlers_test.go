package siamatlas

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/siamatlas/siamatlas/pkg/models"
)

func registrationForm(username string) map[string]string {
	return map[string]string{
		"full_name": "Apinya Srisawat",
		"email":     username + "@example.test",
		"username":  username,
		"password":  "hist0rian",
		"about":     "Lecturer in Lanna history",
	}
}

func TestRegistrationAcceptCreatesSignInableAdmin(t *testing.T) {
	app, _ := newTestApp(t)
	router := app.Router()
	seedAdmin(t, app, "somchai", "letmein")

	rec := doMultipart(t, router, "/api/register", "",
		registrationForm("apinya"), "cv", "cv.pdf", []byte("pdf-bytes"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var reg models.RegistrationRequest
	decodeBody(t, rec, &reg)
	require.Equal(t, models.StatusPending, reg.Status)
	require.True(t, strings.HasPrefix(reg.CVURL, testMediaBase+"/cv/"), reg.CVURL)
	require.NotContains(t, rec.Body.String(), "hist0rian")

	adminToken := signIn(t, router, "somchai", "letmein")
	rec = doJSON(t, router, http.MethodGet, "/api/admin/register", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []*models.RegistrationRequest
	decodeBody(t, rec, &pending)
	require.Len(t, pending, 1)
	require.Equal(t, "apinya", pending[0].Username)

	rec = doJSON(t, router, http.MethodPost, "/api/admin/register/"+reg.ID.String()+"/accept", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var created models.Admin
	decodeBody(t, rec, &created)
	require.Equal(t, "apinya", created.Username)
	require.Equal(t, models.AdminRoleAdmin, created.Role)

	// The applicant's chosen password works once the account exists.
	token := signIn(t, router, "apinya", "hist0rian")
	require.NotEmpty(t, token)

	rec = doJSON(t, router, http.MethodPost, "/api/admin/register/"+reg.ID.String()+"/accept", adminToken, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegistrationReject(t *testing.T) {
	app, _ := newTestApp(t)
	router := app.Router()
	seedAdmin(t, app, "somchai", "letmein")

	rec := doMultipart(t, router, "/api/register", "", registrationForm("apinya"), "", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var reg models.RegistrationRequest
	decodeBody(t, rec, &reg)

	adminToken := signIn(t, router, "somchai", "letmein")
	rec = doJSON(t, router, http.MethodPost, "/api/admin/register/"+reg.ID.String()+"/reject", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rejected models.RegistrationRequest
	decodeBody(t, rec, &rejected)
	require.Equal(t, models.StatusRejected, rejected.Status)

	// No account was created for the rejected applicant.
	signin := doJSON(t, router, http.MethodPost, "/api/auth/signin", "",
		map[string]string{"login": "apinya", "password": "hist0rian"})
	require.Equal(t, http.StatusUnauthorized, signin.Code)
}

func TestRegistrationValidation(t *testing.T) {
	app, _ := newTestApp(t)
	router := app.Router()
	seedAdmin(t, app, "somchai", "letmein")

	form := registrationForm("apinya")
	delete(form, "password")
	rec := doMultipart(t, router, "/api/register", "", form, "", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Registering with an existing admin login is refused outright.
	rec = doMultipart(t, router, "/api/register", "", registrationForm("somchai"), "", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "already in use")

	// A fresh username does not help when the email already belongs to an
	// admin account.
	form = registrationForm("apinya")
	form["email"] = "somchai@siamatlas.test"
	rec = doMultipart(t, router, "/api/register", "", form, "", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "already in use")
}

func TestRegistrationAcceptRechecksLogin(t *testing.T) {
	app, _ := newTestApp(t)
	router := app.Router()
	seedAdmin(t, app, "somchai", "letmein")

	// Two applicants race for the same username; both applications are
	// pending at once.
	rec := doMultipart(t, router, "/api/register", "", registrationForm("apinya"), "", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var first models.RegistrationRequest
	decodeBody(t, rec, &first)

	second := registrationForm("apinya")
	second["email"] = "apinya.two@example.test"
	rec = doMultipart(t, router, "/api/register", "", second, "", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var dup models.RegistrationRequest
	decodeBody(t, rec, &dup)

	adminToken := signIn(t, router, "somchai", "letmein")
	rec = doJSON(t, router, http.MethodPost, "/api/admin/register/"+first.ID.String()+"/accept", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The username is now taken, so the second application cannot be
	// accepted and stays pending for a reject decision.
	rec = doJSON(t, router, http.MethodPost, "/api/admin/register/"+dup.ID.String()+"/accept", adminToken, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "already in use")

	rec = doJSON(t, router, http.MethodPost, "/api/admin/register/"+dup.ID.String()+"/reject", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestListRegistrationsRequiresAuth(t *testing.T) {
	app, _ := newTestApp(t)
	router := app.Router()

	rec := doJSON(t, router, http.MethodGet, "/api/admin/register", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
