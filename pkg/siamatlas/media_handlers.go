package siamatlas

import (
	"net/http"

	"github.com/siamatlas/siamatlas/internal/metrics"
	"github.com/siamatlas/siamatlas/pkg/editor"
	"github.com/siamatlas/siamatlas/pkg/models"
)

// maxUploadBytes caps media uploads at 32 MiB.
const maxUploadBytes = 32 << 20

// handleUploadMedia accepts a multipart form with fields "file" and "type"
// and returns the durable URL of the stored asset. The URL feeds period
// media lists, district map images and province backgrounds.
func (a *App) handleUploadMedia(w http.ResponseWriter, r *http.Request) {
	_, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	mediaType := models.MediaType(r.FormValue("type"))
	switch mediaType {
	case models.MediaImage, models.MediaVideo:
	default:
		respondError(w, http.StatusBadRequest, "type must be image or video")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file field required")
		return
	}
	defer file.Close()

	url, err := a.bridge.UploadAsset(r.Context(), editor.AssetUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		if err == editor.ErrUploadInFlight {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.UploadsTotal.Inc()
	metrics.UploadBytes.Observe(float64(header.Size))
	respondJSON(w, http.StatusCreated, models.Media{URL: url, Type: mediaType})
}
