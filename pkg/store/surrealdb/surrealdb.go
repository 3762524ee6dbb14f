// Package surrealdb provides the document-database implementation of the
// [github.com/siamatlas/siamatlas/pkg/store.Store] interface using native
// SurrealQL.
//
// The implementation talks to SurrealDB without an ORM layer:
//
//   - Model structs marshal directly to records through the surrealcbor
//     codec; typed IDs become RecordIDs automatically.
//   - All queries are parameterized ($param syntax). User-provided values
//     never reach a query through string interpolation.
//   - Province/district containment is mirrored as a graph edge
//     (province->contains->district) so district listing is a traversal
//     instead of a scan.
//
// The custom CBOR codec matters: SurrealDB stores data as CBOR internally,
// and default Go marshaling produces incompatible time.Time and RecordID
// encodings.
package surrealdb

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/surrealcbor"

	"github.com/siamatlas/siamatlas/pkg/models"
	"github.com/siamatlas/siamatlas/pkg/store"
)

// SurrealStore implements the Store interface on a SurrealDB connection
// using the surrealcbor codec.
type SurrealStore struct {
	db       *surrealdb.DB
	ns       string
	database string
}

// NewSurrealStore connects to SurrealDB over WebSocket and selects the given
// namespace and database. Credentials are optional for unauthenticated
// development instances.
func NewSurrealStore(wsURL, namespace, database, username, password string) (store.Store, error) {
	ctx := context.Background()

	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	conf := connection.NewConfig(u)

	// The surrealcbor codec is required for correct time.Time and
	// RecordID handling; the default marshaler produces values SurrealDB
	// rejects as invalid datetimes.
	codec := surrealcbor.New()
	conf.Marshaler = codec
	conf.Unmarshaler = codec

	conn := gorillaws.New(conf)

	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if username != "" && password != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": username,
			"pass": password,
		}); err != nil {
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := db.Use(ctx, namespace, database); err != nil {
		return nil, fmt.Errorf("failed to use namespace/database: %w", err)
	}

	return &SurrealStore{
		db:       db,
		ns:       namespace,
		database: database,
	}, nil
}

// Migrate is a no-op: SurrealDB creates tables implicitly on first insert.
func (s *SurrealStore) Migrate(ctx context.Context) error {
	return nil
}

// Close closes the database connection
func (s *SurrealStore) Close() error {
	return s.db.Close(context.Background())
}

// handleNotFound maps the driver's empty-result errors to a nil record.
func handleNotFound(err error) error {
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "Expected a single or multiple results but got 0") ||
			strings.Contains(errStr, "cannot unmarshal array into Go value") {
			return nil
		}
	}
	return err
}

// Province operations

func (s *SurrealStore) CreateProvince(ctx context.Context, province *models.Province) error {
	if province.ID.IsZero() {
		province.ID = models.NewProvinceID()
	}
	if province.CreatedAt.IsZero() {
		province.CreatedAt = time.Now()
	}
	if province.UpdatedAt.IsZero() {
		province.UpdatedAt = time.Now()
	}

	// Districts are separate documents; never embed them in the record.
	stripped := province.Clone()
	stripped.Districts = nil

	if _, err := surrealdb.Create[models.Province](ctx, s.db, "provinces", stripped); err != nil {
		return fmt.Errorf("failed to create province: %w", err)
	}
	return nil
}

func (s *SurrealStore) GetProvince(ctx context.Context, id models.ProvinceID) (*models.Province, error) {
	province, err := surrealdb.Select[models.Province](ctx, s.db, id.RecordID())
	if err != nil {
		if handleNotFound(err) == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get province: %w", err)
	}
	return province, nil
}

func (s *SurrealStore) UpdateProvince(ctx context.Context, province *models.Province) error {
	province.UpdatedAt = time.Now()

	stripped := province.Clone()
	stripped.Districts = nil

	if _, err := surrealdb.Update[models.Province](ctx, s.db, province.ID.RecordID(), stripped); err != nil {
		return fmt.Errorf("failed to update province: %w", err)
	}
	return nil
}

func (s *SurrealStore) DeleteProvince(ctx context.Context, id models.ProvinceID) error {
	// Remove contained districts first so no orphans survive the
	// province record.
	query := "DELETE districts WHERE province_id = $province"
	params := map[string]any{"province": id.RecordID()}
	if _, err := surrealdb.Query[any](ctx, s.db, query, params); err != nil {
		return fmt.Errorf("failed to delete province districts: %w", err)
	}
	if _, err := surrealdb.Delete[models.Province](ctx, s.db, id.RecordID()); err != nil {
		return fmt.Errorf("failed to delete province: %w", err)
	}
	return nil
}

func (s *SurrealStore) ListProvinces(ctx context.Context) ([]*models.Province, error) {
	query := "SELECT * FROM provinces ORDER BY created_at ASC"
	result, err := surrealdb.Query[[]*models.Province](ctx, s.db, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list provinces: %w", err)
	}

	var provinces []*models.Province
	if result != nil && len(*result) > 0 {
		provinces = (*result)[0].Result
	}
	return provinces, nil
}

// District operations

func (s *SurrealStore) CreateDistrict(ctx context.Context, district *models.District) error {
	if district.ID.IsZero() {
		district.ID = models.NewDistrictID()
	}
	if district.CreatedAt.IsZero() {
		district.CreatedAt = time.Now()
	}
	if district.UpdatedAt.IsZero() {
		district.UpdatedAt = time.Now()
	}

	if _, err := surrealdb.Create[models.District](ctx, s.db, "districts", district); err != nil {
		return fmt.Errorf("failed to create district: %w", err)
	}

	// Containment edge enables traversal-based listing.
	relateQuery := "RELATE $province->contains->$district"
	params := map[string]any{
		"province": district.ProvinceID.RecordID(),
		"district": district.ID.RecordID(),
	}
	if _, err := surrealdb.Query[any](ctx, s.db, relateQuery, params); err != nil {
		return fmt.Errorf("failed to create province-district relationship: %w", err)
	}
	return nil
}

func (s *SurrealStore) GetDistrict(ctx context.Context, id models.DistrictID) (*models.District, error) {
	district, err := surrealdb.Select[models.District](ctx, s.db, id.RecordID())
	if err != nil {
		if handleNotFound(err) == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get district: %w", err)
	}
	return district, nil
}

func (s *SurrealStore) UpdateDistrict(ctx context.Context, district *models.District) error {
	district.UpdatedAt = time.Now()
	if _, err := surrealdb.Update[models.District](ctx, s.db, district.ID.RecordID(), district); err != nil {
		return fmt.Errorf("failed to update district: %w", err)
	}
	return nil
}

func (s *SurrealStore) DeleteDistrict(ctx context.Context, id models.DistrictID) error {
	_, err := surrealdb.Delete[models.District](ctx, s.db, id.RecordID())
	return err
}

func (s *SurrealStore) ListDistricts(ctx context.Context, provinceID models.ProvinceID) ([]*models.District, error) {
	// Traverse the containment edge; .* pulls full district records.
	query := "SELECT ->contains->districts.* FROM $province"
	params := map[string]any{
		"province": provinceID.RecordID(),
	}
	type Result struct {
		Districts []*models.District `json:"->contains->districts"`
	}
	result, err := surrealdb.Query[[]Result](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list districts: %w", err)
	}

	var districts []*models.District
	if result != nil && len(*result) > 0 && len((*result)[0].Result) > 0 {
		districts = (*result)[0].Result[0].Districts
	}
	return districts, nil
}

// Admin operations

func (s *SurrealStore) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	if admin.ID.IsZero() {
		admin.ID = models.NewAdminID()
	}
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now()
	}
	if admin.UpdatedAt.IsZero() {
		admin.UpdatedAt = time.Now()
	}
	if _, err := surrealdb.Create[models.Admin](ctx, s.db, "admins", admin); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

func (s *SurrealStore) GetAdmin(ctx context.Context, id models.AdminID) (*models.Admin, error) {
	admin, err := surrealdb.Select[models.Admin](ctx, s.db, id.RecordID())
	if err != nil {
		if handleNotFound(err) == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return admin, nil
}

func (s *SurrealStore) GetAdminByLogin(ctx context.Context, login string) (*models.Admin, error) {
	query := "SELECT * FROM admins WHERE string::lowercase(username) = $login OR string::lowercase(email) = $login LIMIT 1"
	params := map[string]any{
		"login": strings.ToLower(login),
	}
	result, err := surrealdb.Query[[]*models.Admin](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to query admin by login: %w", err)
	}
	if result == nil || len(*result) == 0 || len((*result)[0].Result) == 0 {
		return nil, nil
	}
	return (*result)[0].Result[0], nil
}

func (s *SurrealStore) UpdateAdmin(ctx context.Context, admin *models.Admin) error {
	admin.UpdatedAt = time.Now()
	if _, err := surrealdb.Update[models.Admin](ctx, s.db, admin.ID.RecordID(), admin); err != nil {
		return fmt.Errorf("failed to update admin: %w", err)
	}
	return nil
}

func (s *SurrealStore) DeleteAdmin(ctx context.Context, id models.AdminID) error {
	_, err := surrealdb.Delete[models.Admin](ctx, s.db, id.RecordID())
	return err
}

// Registration requests

func (s *SurrealStore) CreateRegistration(ctx context.Context, reg *models.RegistrationRequest) error {
	if reg.ID.IsZero() {
		reg.ID = models.NewRegistrationID()
	}
	if reg.Status == "" {
		reg.Status = models.StatusPending
	}
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now()
	}
	if reg.UpdatedAt.IsZero() {
		reg.UpdatedAt = time.Now()
	}
	if _, err := surrealdb.Create[models.RegistrationRequest](ctx, s.db, "register", reg); err != nil {
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

func (s *SurrealStore) GetRegistration(ctx context.Context, id models.RegistrationID) (*models.RegistrationRequest, error) {
	reg, err := surrealdb.Select[models.RegistrationRequest](ctx, s.db, id.RecordID())
	if err != nil {
		if handleNotFound(err) == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	return reg, nil
}

func (s *SurrealStore) UpdateRegistration(ctx context.Context, reg *models.RegistrationRequest) error {
	reg.UpdatedAt = time.Now()
	if _, err := surrealdb.Update[models.RegistrationRequest](ctx, s.db, reg.ID.RecordID(), reg); err != nil {
		return fmt.Errorf("failed to update registration: %w", err)
	}
	return nil
}

func (s *SurrealStore) ListRegistrations(ctx context.Context, status models.RequestStatus) ([]*models.RegistrationRequest, error) {
	query := "SELECT * FROM register ORDER BY created_at ASC"
	params := map[string]any{}
	if status != "" {
		query = "SELECT * FROM register WHERE status = $status ORDER BY created_at ASC"
		params["status"] = string(status)
	}
	result, err := surrealdb.Query[[]*models.RegistrationRequest](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	var regs []*models.RegistrationRequest
	if result != nil && len(*result) > 0 {
		regs = (*result)[0].Result
	}
	return regs, nil
}

// Collaboration requests

func (s *SurrealStore) CreateCollaborationRequest(ctx context.Context, req *models.CollaborationRequest) error {
	if req.ID.IsZero() {
		req.ID = models.NewCollaborationID()
	}
	if req.Status == "" {
		req.Status = models.StatusPending
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	if req.UpdatedAt.IsZero() {
		req.UpdatedAt = time.Now()
	}
	if _, err := surrealdb.Create[models.CollaborationRequest](ctx, s.db, "collaborationRequests", req); err != nil {
		return fmt.Errorf("failed to create collaboration request: %w", err)
	}
	return nil
}

func (s *SurrealStore) GetCollaborationRequest(ctx context.Context, id models.CollaborationID) (*models.CollaborationRequest, error) {
	req, err := surrealdb.Select[models.CollaborationRequest](ctx, s.db, id.RecordID())
	if err != nil {
		if handleNotFound(err) == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get collaboration request: %w", err)
	}
	return req, nil
}

func (s *SurrealStore) UpdateCollaborationRequest(ctx context.Context, req *models.CollaborationRequest) error {
	req.UpdatedAt = time.Now()
	if _, err := surrealdb.Update[models.CollaborationRequest](ctx, s.db, req.ID.RecordID(), req); err != nil {
		return fmt.Errorf("failed to update collaboration request: %w", err)
	}
	return nil
}

func (s *SurrealStore) ListCollaborationRequests(ctx context.Context, kind models.TargetKind, targetID string) ([]*models.CollaborationRequest, error) {
	var (
		conds  []string
		params = map[string]any{}
	)
	if kind != "" {
		conds = append(conds, "target_kind = $kind")
		params["kind"] = string(kind)
	}
	if targetID != "" {
		conds = append(conds, "target_id = $target")
		params["target"] = targetID
	}
	query := "SELECT * FROM collaborationRequests"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at ASC"

	result, err := surrealdb.Query[[]*models.CollaborationRequest](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list collaboration requests: %w", err)
	}
	var reqs []*models.CollaborationRequest
	if result != nil && len(*result) > 0 {
		reqs = (*result)[0].Result
	}
	return reqs, nil
}

// Updates feed

func (s *SurrealStore) AppendUpdate(ctx context.Context, rec *models.UpdateRecord) error {
	if rec.ID.IsZero() {
		rec.ID = models.NewUpdateID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if _, err := surrealdb.Create[models.UpdateRecord](ctx, s.db, "updates", rec); err != nil {
		return fmt.Errorf("failed to append update record: %w", err)
	}
	return nil
}

func (s *SurrealStore) ListUpdates(ctx context.Context, limit int) ([]*models.UpdateRecord, error) {
	query := "SELECT * FROM updates ORDER BY created_at DESC"
	params := map[string]any{}
	if limit > 0 {
		query += " LIMIT $limit"
		params["limit"] = limit
	}
	result, err := surrealdb.Query[[]*models.UpdateRecord](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list updates: %w", err)
	}
	var recs []*models.UpdateRecord
	if result != nil && len(*result) > 0 {
		recs = (*result)[0].Result
	}
	return recs, nil
}
