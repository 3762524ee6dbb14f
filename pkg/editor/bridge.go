package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/siamatlas/siamatlas/internal/blob"
	"github.com/siamatlas/siamatlas/pkg/models"
	"github.com/siamatlas/siamatlas/pkg/store"
)

// ErrSaveInFlight is returned when a save is requested while one is running.
var ErrSaveInFlight = errors.New("save already in progress")

// ErrUploadInFlight is returned when an upload is requested while one is
// running.
var ErrUploadInFlight = errors.New("upload already in progress")

// DistrictFailure names one district whose write failed during a save.
type DistrictFailure struct {
	ID     models.DistrictID `json:"id"`
	NameEN string            `json:"name_en"`
	Error  string            `json:"error"`
}

// SaveResult is the aggregate outcome of a best-effort province save.
type SaveResult struct {
	ProvinceID models.ProvinceID `json:"province_id"`
	Version    int64             `json:"version"`
	Saved      int               `json:"saved_districts"`
	Failures   []DistrictFailure `json:"failed_districts,omitempty"`
}

// Ok reports whether every district write succeeded.
func (r *SaveResult) Ok() bool { return len(r.Failures) == 0 }

// Bridge connects an editing session to the external store and media host.
// One save and one upload may run at a time; duplicate submissions are
// rejected rather than queued.
type Bridge struct {
	store store.Store
	blobs blob.Store
	// publicBase prefixes blob keys when the driver has no URL of its own.
	publicBase string

	saving    atomic.Bool
	uploading atomic.Bool
}

// NewBridge wires a bridge to the given store and media host. publicBase is
// the externally reachable URL prefix for uploaded assets, e.g.
// "https://media.example.com".
func NewBridge(st store.Store, blobs blob.Store, publicBase string) *Bridge {
	return &Bridge{store: st, blobs: blobs, publicBase: strings.TrimSuffix(publicBase, "/")}
}

// SaveProvince writes the province document, then each district
// independently. A failed district write is recorded and reported without
// aborting sibling writes; there is no rollback. Version moves by exactly 1
// on each entity that was written.
func (b *Bridge) SaveProvince(ctx context.Context, p *models.Province) (*SaveResult, error) {
	if p == nil {
		return nil, fmt.Errorf("no province to save")
	}
	if !b.saving.CompareAndSwap(false, true) {
		return nil, ErrSaveInFlight
	}
	defer b.saving.Store(false)

	p.Version++
	if err := b.store.UpdateProvince(ctx, p); err != nil {
		p.Version--
		return nil, fmt.Errorf("saving province %s: %w", p.ID, err)
	}
	res := &SaveResult{ProvinceID: p.ID, Version: p.Version}
	for _, d := range p.Districts {
		d.Version++
		if err := b.store.UpdateDistrict(ctx, d); err != nil {
			d.Version--
			res.Failures = append(res.Failures, DistrictFailure{
				ID:     d.ID,
				NameEN: d.NameEN,
				Error:  err.Error(),
			})
			continue
		}
		res.Saved++
	}
	return res, nil
}

// AssetUpload describes one uploadAsset call. When URL is set the upload is
// skipped and the URL is returned unchanged.
type AssetUpload struct {
	URL         string
	Filename    string
	ContentType string
	Body        io.Reader
}

// UploadAsset stores a file on the media host and returns a durable URL for
// Media and map image fields, or passes a pre-supplied URL through.
func (b *Bridge) UploadAsset(ctx context.Context, up AssetUpload) (string, error) {
	if up.URL != "" {
		return up.URL, nil
	}
	if up.Body == nil {
		return "", fmt.Errorf("no file or url supplied")
	}
	if !b.uploading.CompareAndSwap(false, true) {
		return "", ErrUploadInFlight
	}
	defer b.uploading.Store(false)

	name := path.Base(strings.TrimSpace(up.Filename))
	if name == "" || name == "." || name == "/" {
		name = "asset"
	}
	key := fmt.Sprintf("media/%s/%s", uuid.NewString(), name)
	info, err := b.blobs.Put(ctx, key, up.Body, blob.PutOptions{ContentType: up.ContentType})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", name, err)
	}
	if b.publicBase != "" {
		return b.publicBase + "/" + key, nil
	}
	if info.URL != "" {
		return info.URL, nil
	}
	return key, nil
}

// Saving reports whether a save is in flight.
func (b *Bridge) Saving() bool { return b.saving.Load() }

// Uploading reports whether an upload is in flight.
func (b *Bridge) Uploading() bool { return b.uploading.Load() }
