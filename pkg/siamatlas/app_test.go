package siamatlas

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/siamatlas/siamatlas/internal/blob"
	"github.com/siamatlas/siamatlas/pkg/client"
	"github.com/siamatlas/siamatlas/pkg/models"
	"github.com/siamatlas/siamatlas/pkg/store/memory"
)

const testMediaBase = "https://media.siamatlas.test"

// newTestApp wires an App around the in-memory store and blob host. The raw
// MemoryStore is returned so tests can seed entities and inject failures.
func newTestApp(t *testing.T) (*App, *memory.MemoryStore) {
	t.Helper()
	ms := memory.New()
	app := NewWithStore(ms, blob.NewMemory(), &Config{
		Backend:      BackendMemory,
		MediaBaseURL: testMediaBase,
		ServerPort:   "0",
	})
	return app, ms
}

func seedAdmin(t *testing.T, app *App, username, password string) *models.Admin {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	admin := &models.Admin{
		Username:     username,
		Email:        username + "@siamatlas.test",
		PasswordHash: string(hash),
		Role:         models.AdminRoleAdmin,
	}
	require.NoError(t, app.Store().CreateAdmin(context.Background(), admin))
	return admin
}

func signIn(t *testing.T, router http.Handler, login, password string) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/auth/signin", "", client.SignInRequest{
		Login:    login,
		Password: password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp client.AuthResponse
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func doMultipart(t *testing.T, router http.Handler, path, token string,
	fields map[string]string, fileField, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		part, err := mw.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealthReportsBackend(t *testing.T) {
	app, _ := newTestApp(t)
	router := app.Router()

	rec := doJSON(t, router, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	decodeBody(t, rec, &body)
	require.Equal(t, "healthy", body["status"])
	require.Equal(t, string(BackendMemory), body["backend"])
	require.Equal(t, false, body["read_only"])
}

func TestReadOnlyModeRejectsWritesButServesReads(t *testing.T) {
	app, ms := newTestApp(t)
	router := app.Router()
	admin := seedAdmin(t, app, "somchai", "letmein")
	token := signIn(t, router, "somchai", "letmein")

	province := &models.Province{
		NameTH:    "เชียงใหม่",
		NameEN:    "Chiang Mai",
		CreatedBy: models.AdminIDList{admin.ID},
	}
	require.NoError(t, ms.CreateProvince(context.Background(), province))

	app.SetReadOnly(true)

	rec := doJSON(t, router, http.MethodPost, "/api/provinces", token, models.Province{NameEN: "Lampang"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "read-only")

	rec = doJSON(t, router, http.MethodGet, "/api/provinces", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	app.SetReadOnly(false)
	rec = doJSON(t, router, http.MethodPost, "/api/provinces", token, models.Province{NameEN: "Lampang"})
	require.Equal(t, http.StatusCreated, rec.Code)
}
