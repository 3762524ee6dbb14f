package siamatlas

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/siamatlas/siamatlas/pkg/models"
)

func TestUploadMediaStoresObject(t *testing.T) {
	app, _ := newTestApp(t)
	router := app.Router()
	seedAdmin(t, app, "somchai", "letmein")
	token := signIn(t, router, "somchai", "letmein")

	rec := doMultipart(t, router, "/api/media", token,
		map[string]string{"type": "image"}, "file", "wat-phra-singh.jpg", []byte("jpeg-bytes"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var media models.Media
	decodeBody(t, rec, &media)
	require.Equal(t, models.MediaImage, media.Type)
	require.True(t, strings.HasPrefix(media.URL, testMediaBase+"/media/"), media.URL)
	require.True(t, strings.HasSuffix(media.URL, "/wat-phra-singh.jpg"), media.URL)

	key := strings.TrimPrefix(media.URL, testMediaBase+"/")
	info, err := app.blobs.Head(context.Background(), key)
	require.NoError(t, err)
	require.Equal(t, int64(len("jpeg-bytes")), info.Size)
}

func TestUploadMediaKeysNeverCollide(t *testing.T) {
	app, _ := newTestApp(t)
	router := app.Router()
	seedAdmin(t, app, "somchai", "letmein")
	token := signIn(t, router, "somchai", "letmein")

	first := doMultipart(t, router, "/api/media", token,
		map[string]string{"type": "image"}, "file", "map.png", []byte("one"))
	second := doMultipart(t, router, "/api/media", token,
		map[string]string{"type": "image"}, "file", "map.png", []byte("two"))
	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, http.StatusCreated, second.Code)

	var a, b models.Media
	decodeBody(t, first, &a)
	decodeBody(t, second, &b)
	require.NotEqual(t, a.URL, b.URL)

	objects, err := app.blobs.List(context.Background(), "media/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
}

func TestUploadMediaValidation(t *testing.T) {
	app, _ := newTestApp(t)
	router := app.Router()
	seedAdmin(t, app, "somchai", "letmein")
	token := signIn(t, router, "somchai", "letmein")

	rec := doMultipart(t, router, "/api/media", "",
		map[string]string{"type": "image"}, "file", "a.jpg", []byte("x"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doMultipart(t, router, "/api/media", token,
		map[string]string{"type": "gif"}, "file", "a.gif", []byte("x"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "image or video")

	rec = doMultipart(t, router, "/api/media", token,
		map[string]string{"type": "video"}, "", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "file field required")
}
