package store

import (
	"context"
	"fmt"

	"github.com/siamatlas/siamatlas/pkg/models"
)

// ReadOnlyStore wraps a Store and rejects write operations while the
// application is in read-only mode.
//
// The read-only state is determined dynamically by the isReadOnly function,
// so the application can toggle the mode for maintenance windows without
// recreating the store instance. Read operations always pass through.
type ReadOnlyStore struct {
	Store
	isReadOnly func() bool
}

// NewReadOnlyStore creates a new read-only wrapper for a store
func NewReadOnlyStore(store Store, isReadOnly func() bool) Store {
	return &ReadOnlyStore{
		Store:      store,
		isReadOnly: isReadOnly,
	}
}

// Unwrap returns the underlying store
func (r *ReadOnlyStore) Unwrap() Store {
	return r.Store
}

func (r *ReadOnlyStore) checkReadOnly() error {
	if r.isReadOnly() {
		return fmt.Errorf("operation denied: application is in read-only mode")
	}
	return nil
}

// Write operations - check read-only mode first

func (r *ReadOnlyStore) CreateProvince(ctx context.Context, province *models.Province) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.CreateProvince(ctx, province)
}

func (r *ReadOnlyStore) UpdateProvince(ctx context.Context, province *models.Province) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.UpdateProvince(ctx, province)
}

func (r *ReadOnlyStore) DeleteProvince(ctx context.Context, id models.ProvinceID) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.DeleteProvince(ctx, id)
}

func (r *ReadOnlyStore) CreateDistrict(ctx context.Context, district *models.District) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.CreateDistrict(ctx, district)
}

func (r *ReadOnlyStore) UpdateDistrict(ctx context.Context, district *models.District) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.UpdateDistrict(ctx, district)
}

func (r *ReadOnlyStore) DeleteDistrict(ctx context.Context, id models.DistrictID) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.DeleteDistrict(ctx, id)
}

func (r *ReadOnlyStore) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.CreateAdmin(ctx, admin)
}

func (r *ReadOnlyStore) UpdateAdmin(ctx context.Context, admin *models.Admin) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.UpdateAdmin(ctx, admin)
}

func (r *ReadOnlyStore) DeleteAdmin(ctx context.Context, id models.AdminID) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.DeleteAdmin(ctx, id)
}

func (r *ReadOnlyStore) CreateRegistration(ctx context.Context, reg *models.RegistrationRequest) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.CreateRegistration(ctx, reg)
}

func (r *ReadOnlyStore) UpdateRegistration(ctx context.Context, reg *models.RegistrationRequest) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.UpdateRegistration(ctx, reg)
}

func (r *ReadOnlyStore) CreateCollaborationRequest(ctx context.Context, req *models.CollaborationRequest) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.CreateCollaborationRequest(ctx, req)
}

func (r *ReadOnlyStore) UpdateCollaborationRequest(ctx context.Context, req *models.CollaborationRequest) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.UpdateCollaborationRequest(ctx, req)
}

func (r *ReadOnlyStore) AppendUpdate(ctx context.Context, rec *models.UpdateRecord) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.AppendUpdate(ctx, rec)
}
