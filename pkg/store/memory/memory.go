// Package memory provides an in-process implementation of the
// [github.com/siamatlas/siamatlas/pkg/store.Store] interface backed by maps.
//
// It exists for handler tests and local development where neither SurrealDB
// nor PostgreSQL is available. All entities are deep-copied on the way in
// and out so callers can never mutate stored state through aliases, which
// matches the copy semantics of the real backends.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/siamatlas/siamatlas/pkg/models"
	"github.com/siamatlas/siamatlas/pkg/store"
)

// MemoryStore is a map-backed Store. Safe for concurrent use.
//
// The UpdateDistrictHook, when set, runs before a district update and can
// return an error to simulate a backend write failure. Tests use it to
// exercise the best-effort save path.
type MemoryStore struct {
	mu sync.RWMutex

	provinces      map[models.ProvinceID]*models.Province
	districts      map[models.DistrictID]*models.District
	admins         map[models.AdminID]*models.Admin
	registrations  map[models.RegistrationID]*models.RegistrationRequest
	collaborations map[models.CollaborationID]*models.CollaborationRequest
	updates        []*models.UpdateRecord

	UpdateDistrictHook func(*models.District) error
}

// New creates an empty MemoryStore.
func New() *MemoryStore {
	return &MemoryStore{
		provinces:      make(map[models.ProvinceID]*models.Province),
		districts:      make(map[models.DistrictID]*models.District),
		admins:         make(map[models.AdminID]*models.Admin),
		registrations:  make(map[models.RegistrationID]*models.RegistrationRequest),
		collaborations: make(map[models.CollaborationID]*models.CollaborationRequest),
	}
}

var _ store.Store = (*MemoryStore)(nil)

// Migrate is a no-op for the in-memory backend.
func (m *MemoryStore) Migrate(ctx context.Context) error { return nil }

// Close is a no-op for the in-memory backend.
func (m *MemoryStore) Close() error { return nil }

func stamp(created *time.Time, updated *time.Time) {
	now := time.Now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// Province operations

func (m *MemoryStore) CreateProvince(ctx context.Context, province *models.Province) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if province.ID.IsZero() {
		province.ID = models.NewProvinceID()
	}
	stamp(&province.CreatedAt, &province.UpdatedAt)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.provinces[province.ID] = province.Clone()
	return nil
}

func (m *MemoryStore) GetProvince(ctx context.Context, id models.ProvinceID) (*models.Province, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.provinces[id]
	if !ok {
		return nil, nil
	}
	return p.Clone(), nil
}

func (m *MemoryStore) UpdateProvince(ctx context.Context, province *models.Province) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	province.UpdatedAt = time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.provinces[province.ID] = province.Clone()
	return nil
}

func (m *MemoryStore) DeleteProvince(ctx context.Context, id models.ProvinceID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.provinces, id)
	for did, d := range m.districts {
		if d.ProvinceID == id {
			delete(m.districts, did)
		}
	}
	return nil
}

func (m *MemoryStore) ListProvinces(ctx context.Context) ([]*models.Province, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Province, 0, len(m.provinces))
	for _, p := range m.provinces {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// District operations

func (m *MemoryStore) CreateDistrict(ctx context.Context, district *models.District) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if district.ID.IsZero() {
		district.ID = models.NewDistrictID()
	}
	stamp(&district.CreatedAt, &district.UpdatedAt)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.districts[district.ID] = district.Clone()
	return nil
}

func (m *MemoryStore) GetDistrict(ctx context.Context, id models.DistrictID) (*models.District, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.districts[id]
	if !ok {
		return nil, nil
	}
	return d.Clone(), nil
}

func (m *MemoryStore) UpdateDistrict(ctx context.Context, district *models.District) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.UpdateDistrictHook != nil {
		if err := m.UpdateDistrictHook(district); err != nil {
			return err
		}
	}
	district.UpdatedAt = time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.districts[district.ID] = district.Clone()
	return nil
}

func (m *MemoryStore) DeleteDistrict(ctx context.Context, id models.DistrictID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.districts, id)
	return nil
}

func (m *MemoryStore) ListDistricts(ctx context.Context, provinceID models.ProvinceID) ([]*models.District, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.District, 0)
	for _, d := range m.districts {
		if d.ProvinceID == provinceID {
			out = append(out, d.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Admin operations

func (m *MemoryStore) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if admin.ID.IsZero() {
		admin.ID = models.NewAdminID()
	}
	stamp(&admin.CreatedAt, &admin.UpdatedAt)
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *admin
	m.admins[admin.ID] = &cp
	return nil
}

func (m *MemoryStore) GetAdmin(ctx context.Context, id models.AdminID) (*models.Admin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.admins[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *MemoryStore) GetAdminByLogin(ctx context.Context, login string) (*models.Admin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.admins {
		if strings.EqualFold(a.Username, login) || strings.EqualFold(a.Email, login) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) UpdateAdmin(ctx context.Context, admin *models.Admin) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	admin.UpdatedAt = time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *admin
	m.admins[admin.ID] = &cp
	return nil
}

func (m *MemoryStore) DeleteAdmin(ctx context.Context, id models.AdminID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.admins, id)
	return nil
}

// Registration requests

func (m *MemoryStore) CreateRegistration(ctx context.Context, reg *models.RegistrationRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if reg.ID.IsZero() {
		reg.ID = models.NewRegistrationID()
	}
	if reg.Status == "" {
		reg.Status = models.StatusPending
	}
	stamp(&reg.CreatedAt, &reg.UpdatedAt)
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *reg
	m.registrations[reg.ID] = &cp
	return nil
}

func (m *MemoryStore) GetRegistration(ctx context.Context, id models.RegistrationID) (*models.RegistrationRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.registrations[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) UpdateRegistration(ctx context.Context, reg *models.RegistrationRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	reg.UpdatedAt = time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *reg
	m.registrations[reg.ID] = &cp
	return nil
}

func (m *MemoryStore) ListRegistrations(ctx context.Context, status models.RequestStatus) ([]*models.RegistrationRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.RegistrationRequest, 0)
	for _, r := range m.registrations {
		if status != "" && r.Status != status {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Collaboration requests

func (m *MemoryStore) CreateCollaborationRequest(ctx context.Context, req *models.CollaborationRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if req.ID.IsZero() {
		req.ID = models.NewCollaborationID()
	}
	if req.Status == "" {
		req.Status = models.StatusPending
	}
	stamp(&req.CreatedAt, &req.UpdatedAt)
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *req
	m.collaborations[req.ID] = &cp
	return nil
}

func (m *MemoryStore) GetCollaborationRequest(ctx context.Context, id models.CollaborationID) (*models.CollaborationRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.collaborations[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) UpdateCollaborationRequest(ctx context.Context, req *models.CollaborationRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	req.UpdatedAt = time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *req
	m.collaborations[req.ID] = &cp
	return nil
}

func (m *MemoryStore) ListCollaborationRequests(ctx context.Context, kind models.TargetKind, targetID string) ([]*models.CollaborationRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.CollaborationRequest, 0)
	for _, r := range m.collaborations {
		if kind != "" && r.TargetKind != kind {
			continue
		}
		if targetID != "" && r.TargetID != targetID {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Updates feed

func (m *MemoryStore) AppendUpdate(ctx context.Context, rec *models.UpdateRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.ID.IsZero() {
		rec.ID = models.NewUpdateID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.updates = append(m.updates, &cp)
	return nil
}

func (m *MemoryStore) ListUpdates(ctx context.Context, limit int) ([]*models.UpdateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.UpdateRecord, 0, len(m.updates))
	for i := len(m.updates) - 1; i >= 0; i-- {
		cp := *m.updates[i]
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
