// Package store provides the data persistence layer abstraction for the
// siamatlas application.
//
// The [Store] interface implements the repository pattern over the document
// collections the application consumes: provinces, their district
// sub-documents, administrator accounts, registration and collaboration
// requests, and the append-only updates feed.
//
// Three implementations exist:
//
//   - [github.com/siamatlas/siamatlas/pkg/store/surrealdb.SurrealStore]:
//     the document-database backend, using native SurrealQL with
//     parameterized queries and the surrealcbor codec.
//   - [github.com/siamatlas/siamatlas/pkg/store/postgres.PostgresStore]:
//     a GORM-backed relational alternative used where a managed document
//     database is unavailable.
//   - [github.com/siamatlas/siamatlas/pkg/store/memory.MemoryStore]:
//     an in-process map-backed store for tests and local development.
//
// Conventions shared by all implementations:
//
//   - Every method takes a context.Context and respects cancellation.
//   - Get methods return (nil, nil) for missing records; errors indicate
//     infrastructure failure only.
//   - List methods return empty slices for no results.
//   - Update methods replace the full entity; the caller owns invariants
//     such as version increments.
package store

import (
	"context"

	"github.com/siamatlas/siamatlas/pkg/models"
)

// Store defines the complete persistence interface for the application.
type Store interface {
	// Province operations. Districts are stored separately; Province
	// records never embed their district documents.

	CreateProvince(ctx context.Context, province *models.Province) error
	GetProvince(ctx context.Context, id models.ProvinceID) (*models.Province, error)
	UpdateProvince(ctx context.Context, province *models.Province) error
	DeleteProvince(ctx context.Context, id models.ProvinceID) error
	ListProvinces(ctx context.Context) ([]*models.Province, error)

	// District operations. ListDistricts returns the districts of one
	// province ordered by creation time.

	CreateDistrict(ctx context.Context, district *models.District) error
	GetDistrict(ctx context.Context, id models.DistrictID) (*models.District, error)
	UpdateDistrict(ctx context.Context, district *models.District) error
	DeleteDistrict(ctx context.Context, id models.DistrictID) error
	ListDistricts(ctx context.Context, provinceID models.ProvinceID) ([]*models.District, error)

	// Admin operations. GetAdminByLogin resolves a username-or-email
	// credential the way the signin endpoint accepts it.

	CreateAdmin(ctx context.Context, admin *models.Admin) error
	GetAdmin(ctx context.Context, id models.AdminID) (*models.Admin, error)
	GetAdminByLogin(ctx context.Context, login string) (*models.Admin, error)
	UpdateAdmin(ctx context.Context, admin *models.Admin) error
	DeleteAdmin(ctx context.Context, id models.AdminID) error

	// Registration requests. Status transitions are full-entity updates;
	// the store does not enforce the pending->accepted/rejected lifecycle.

	CreateRegistration(ctx context.Context, reg *models.RegistrationRequest) error
	GetRegistration(ctx context.Context, id models.RegistrationID) (*models.RegistrationRequest, error)
	UpdateRegistration(ctx context.Context, reg *models.RegistrationRequest) error
	ListRegistrations(ctx context.Context, status models.RequestStatus) ([]*models.RegistrationRequest, error)

	// Collaboration requests.

	CreateCollaborationRequest(ctx context.Context, req *models.CollaborationRequest) error
	GetCollaborationRequest(ctx context.Context, id models.CollaborationID) (*models.CollaborationRequest, error)
	UpdateCollaborationRequest(ctx context.Context, req *models.CollaborationRequest) error
	ListCollaborationRequests(ctx context.Context, kind models.TargetKind, targetID string) ([]*models.CollaborationRequest, error)

	// Updates feed. AppendUpdate is write-once; records are never mutated.
	// ListUpdates returns newest-first, at most limit records (0 = all).

	AppendUpdate(ctx context.Context, rec *models.UpdateRecord) error
	ListUpdates(ctx context.Context, limit int) ([]*models.UpdateRecord, error)

	// Migrate initializes backend schema where the backend needs one.
	Migrate(ctx context.Context) error

	// Close releases the backend connection.
	Close() error
}
