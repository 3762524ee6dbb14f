// Package postgres provides the PostgreSQL implementation of the
// [github.com/siamatlas/siamatlas/pkg/store.Store] interface using GORM.
//
// The relational backend is the deployment alternative to the SurrealDB
// document store. Nested value data (historical periods, editor lists,
// media) lives in JSONB columns via the list types in
// [github.com/siamatlas/siamatlas/pkg/models]; everything else maps to
// plain columns with constraints and indexes declared in struct tags.
//
// Schema management goes through [PostgresStore.Migrate], which wraps
// GORM's AutoMigrate. AutoMigrate only adds schema elements; it never
// drops columns or data, so it is safe to run on every deploy.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/siamatlas/siamatlas/pkg/models"
	"github.com/siamatlas/siamatlas/pkg/store"
)

// PostgresStore implements the Store interface using PostgreSQL with GORM.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore opens a PostgreSQL connection from a DSN.
func NewPostgresStore(dsn string) (store.Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) getDB() *gorm.DB {
	return s.db
}

// Migrate creates missing tables, columns, indexes and constraints for the
// full data model. Safe to run repeatedly.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&models.Admin{},
		&models.Province{},
		&models.District{},
		&models.RegistrationRequest{},
		&models.CollaborationRequest{},
		&models.UpdateRecord{},
	)
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Province operations

func (s *PostgresStore) CreateProvince(ctx context.Context, province *models.Province) error {
	return s.getDB().WithContext(ctx).Create(province).Error
}

func (s *PostgresStore) GetProvince(ctx context.Context, id models.ProvinceID) (*models.Province, error) {
	var province models.Province
	err := s.getDB().WithContext(ctx).First(&province, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &province, nil
}

func (s *PostgresStore) UpdateProvince(ctx context.Context, province *models.Province) error {
	return s.getDB().WithContext(ctx).Save(province).Error
}

func (s *PostgresStore) DeleteProvince(ctx context.Context, id models.ProvinceID) error {
	if err := s.getDB().WithContext(ctx).Delete(&models.District{}, "province_id = ?", id).Error; err != nil {
		return err
	}
	return s.getDB().WithContext(ctx).Delete(&models.Province{}, "id = ?", id).Error
}

func (s *PostgresStore) ListProvinces(ctx context.Context) ([]*models.Province, error) {
	var provinces []*models.Province
	err := s.getDB().WithContext(ctx).Order("created_at ASC").Find(&provinces).Error
	return provinces, err
}

// District operations

func (s *PostgresStore) CreateDistrict(ctx context.Context, district *models.District) error {
	return s.getDB().WithContext(ctx).Create(district).Error
}

func (s *PostgresStore) GetDistrict(ctx context.Context, id models.DistrictID) (*models.District, error) {
	var district models.District
	err := s.getDB().WithContext(ctx).First(&district, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &district, nil
}

func (s *PostgresStore) UpdateDistrict(ctx context.Context, district *models.District) error {
	return s.getDB().WithContext(ctx).Save(district).Error
}

func (s *PostgresStore) DeleteDistrict(ctx context.Context, id models.DistrictID) error {
	return s.getDB().WithContext(ctx).Delete(&models.District{}, "id = ?", id).Error
}

func (s *PostgresStore) ListDistricts(ctx context.Context, provinceID models.ProvinceID) ([]*models.District, error) {
	var districts []*models.District
	err := s.getDB().WithContext(ctx).Where("province_id = ?", provinceID).Order("created_at ASC").Find(&districts).Error
	return districts, err
}

// Admin operations

func (s *PostgresStore) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	return s.getDB().WithContext(ctx).Create(admin).Error
}

func (s *PostgresStore) GetAdmin(ctx context.Context, id models.AdminID) (*models.Admin, error) {
	var admin models.Admin
	err := s.getDB().WithContext(ctx).First(&admin, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}

func (s *PostgresStore) GetAdminByLogin(ctx context.Context, login string) (*models.Admin, error) {
	var admin models.Admin
	err := s.getDB().WithContext(ctx).
		Where("LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?)", login, login).
		First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}

func (s *PostgresStore) UpdateAdmin(ctx context.Context, admin *models.Admin) error {
	return s.getDB().WithContext(ctx).Save(admin).Error
}

func (s *PostgresStore) DeleteAdmin(ctx context.Context, id models.AdminID) error {
	return s.getDB().WithContext(ctx).Delete(&models.Admin{}, "id = ?", id).Error
}

// Registration requests

func (s *PostgresStore) CreateRegistration(ctx context.Context, reg *models.RegistrationRequest) error {
	if reg.Status == "" {
		reg.Status = models.StatusPending
	}
	return s.getDB().WithContext(ctx).Create(reg).Error
}

func (s *PostgresStore) GetRegistration(ctx context.Context, id models.RegistrationID) (*models.RegistrationRequest, error) {
	var reg models.RegistrationRequest
	err := s.getDB().WithContext(ctx).First(&reg, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reg, nil
}

func (s *PostgresStore) UpdateRegistration(ctx context.Context, reg *models.RegistrationRequest) error {
	return s.getDB().WithContext(ctx).Save(reg).Error
}

func (s *PostgresStore) ListRegistrations(ctx context.Context, status models.RequestStatus) ([]*models.RegistrationRequest, error) {
	q := s.getDB().WithContext(ctx).Order("created_at ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var regs []*models.RegistrationRequest
	err := q.Find(&regs).Error
	return regs, err
}

// Collaboration requests

func (s *PostgresStore) CreateCollaborationRequest(ctx context.Context, req *models.CollaborationRequest) error {
	if req.Status == "" {
		req.Status = models.StatusPending
	}
	return s.getDB().WithContext(ctx).Create(req).Error
}

func (s *PostgresStore) GetCollaborationRequest(ctx context.Context, id models.CollaborationID) (*models.CollaborationRequest, error) {
	var req models.CollaborationRequest
	err := s.getDB().WithContext(ctx).First(&req, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (s *PostgresStore) UpdateCollaborationRequest(ctx context.Context, req *models.CollaborationRequest) error {
	return s.getDB().WithContext(ctx).Save(req).Error
}

func (s *PostgresStore) ListCollaborationRequests(ctx context.Context, kind models.TargetKind, targetID string) ([]*models.CollaborationRequest, error) {
	q := s.getDB().WithContext(ctx).Order("created_at ASC")
	if kind != "" {
		q = q.Where("target_kind = ?", kind)
	}
	if targetID != "" {
		q = q.Where("target_id = ?", targetID)
	}
	var reqs []*models.CollaborationRequest
	err := q.Find(&reqs).Error
	return reqs, err
}

// Updates feed

func (s *PostgresStore) AppendUpdate(ctx context.Context, rec *models.UpdateRecord) error {
	return s.getDB().WithContext(ctx).Create(rec).Error
}

func (s *PostgresStore) ListUpdates(ctx context.Context, limit int) ([]*models.UpdateRecord, error) {
	q := s.getDB().WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recs []*models.UpdateRecord
	err := q.Find(&recs).Error
	return recs, err
}
