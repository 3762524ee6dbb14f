package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	surrealdb_models "github.com/surrealdb/surrealdb.go/pkg/models"
)

// ProvinceID is a typed ID for provinces
type ProvinceID struct {
	uuid uuid.UUID
}

func NewProvinceID() ProvinceID {
	return ProvinceID{uuid: uuid.New()}
}

func NewProvinceIDFromUUID(id uuid.UUID) ProvinceID {
	return ProvinceID{uuid: id}
}

func ParseProvinceID(s string) (ProvinceID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ProvinceID{}, fmt.Errorf("invalid province ID: %w", err)
	}
	return ProvinceID{uuid: id}, nil
}

func (p ProvinceID) UUID() uuid.UUID { return p.uuid }
func (p ProvinceID) String() string  { return p.uuid.String() }
func (p ProvinceID) IsZero() bool    { return p.uuid == uuid.Nil }

func (p ProvinceID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "provinces",
		ID:    p.uuid.String(),
	}
}

func (p ProvinceID) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.uuid.String())
}

func (p *ProvinceID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	p.uuid = id
	return nil
}

func (p ProvinceID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"provinces", p.uuid.String()},
	})
}

func (p *ProvinceID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "provinces", &p.uuid)
}

func (p ProvinceID) Value() (driver.Value, error) {
	if p.IsZero() {
		return nil, nil
	}
	return p.uuid.String(), nil
}

func (p *ProvinceID) Scan(value any) error {
	return scanUUID(value, &p.uuid)
}

func (ProvinceID) GormDataType() string { return "uuid" }

// DistrictID is a typed ID for districts
type DistrictID struct {
	uuid uuid.UUID
}

func NewDistrictID() DistrictID {
	return DistrictID{uuid: uuid.New()}
}

func NewDistrictIDFromUUID(id uuid.UUID) DistrictID {
	return DistrictID{uuid: id}
}

func ParseDistrictID(s string) (DistrictID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return DistrictID{}, fmt.Errorf("invalid district ID: %w", err)
	}
	return DistrictID{uuid: id}, nil
}

func (d DistrictID) UUID() uuid.UUID { return d.uuid }
func (d DistrictID) String() string  { return d.uuid.String() }
func (d DistrictID) IsZero() bool    { return d.uuid == uuid.Nil }

func (d DistrictID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "districts",
		ID:    d.uuid.String(),
	}
}

func (d DistrictID) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.uuid.String())
}

func (d *DistrictID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	d.uuid = id
	return nil
}

func (d DistrictID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"districts", d.uuid.String()},
	})
}

func (d *DistrictID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "districts", &d.uuid)
}

func (d DistrictID) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.uuid.String(), nil
}

func (d *DistrictID) Scan(value any) error {
	return scanUUID(value, &d.uuid)
}

func (DistrictID) GormDataType() string { return "uuid" }

// AdminID is a typed ID for administrator accounts
type AdminID struct {
	uuid uuid.UUID
}

func NewAdminID() AdminID {
	return AdminID{uuid: uuid.New()}
}

func NewAdminIDFromUUID(id uuid.UUID) AdminID {
	return AdminID{uuid: id}
}

func ParseAdminID(s string) (AdminID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return AdminID{}, fmt.Errorf("invalid admin ID: %w", err)
	}
	return AdminID{uuid: id}, nil
}

func (a AdminID) UUID() uuid.UUID { return a.uuid }
func (a AdminID) String() string  { return a.uuid.String() }
func (a AdminID) IsZero() bool    { return a.uuid == uuid.Nil }

func (a AdminID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "admins",
		ID:    a.uuid.String(),
	}
}

func (a AdminID) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.uuid.String())
}

func (a *AdminID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	a.uuid = id
	return nil
}

func (a AdminID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"admins", a.uuid.String()},
	})
}

func (a *AdminID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "admins", &a.uuid)
}

func (a AdminID) Value() (driver.Value, error) {
	if a.IsZero() {
		return nil, nil
	}
	return a.uuid.String(), nil
}

func (a *AdminID) Scan(value any) error {
	return scanUUID(value, &a.uuid)
}

func (AdminID) GormDataType() string { return "uuid" }

// RegistrationID is a typed ID for registration requests
type RegistrationID struct {
	uuid uuid.UUID
}

func NewRegistrationID() RegistrationID {
	return RegistrationID{uuid: uuid.New()}
}

func ParseRegistrationID(s string) (RegistrationID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return RegistrationID{}, fmt.Errorf("invalid registration ID: %w", err)
	}
	return RegistrationID{uuid: id}, nil
}

func (r RegistrationID) UUID() uuid.UUID { return r.uuid }
func (r RegistrationID) String() string  { return r.uuid.String() }
func (r RegistrationID) IsZero() bool    { return r.uuid == uuid.Nil }

func (r RegistrationID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "register",
		ID:    r.uuid.String(),
	}
}

func (r RegistrationID) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.uuid.String())
}

func (r *RegistrationID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	r.uuid = id
	return nil
}

func (r RegistrationID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"register", r.uuid.String()},
	})
}

func (r *RegistrationID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "register", &r.uuid)
}

func (r RegistrationID) Value() (driver.Value, error) {
	if r.IsZero() {
		return nil, nil
	}
	return r.uuid.String(), nil
}

func (r *RegistrationID) Scan(value any) error {
	return scanUUID(value, &r.uuid)
}

func (RegistrationID) GormDataType() string { return "uuid" }

// CollaborationID is a typed ID for collaboration requests
type CollaborationID struct {
	uuid uuid.UUID
}

func NewCollaborationID() CollaborationID {
	return CollaborationID{uuid: uuid.New()}
}

func ParseCollaborationID(s string) (CollaborationID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return CollaborationID{}, fmt.Errorf("invalid collaboration ID: %w", err)
	}
	return CollaborationID{uuid: id}, nil
}

func (c CollaborationID) UUID() uuid.UUID { return c.uuid }
func (c CollaborationID) String() string  { return c.uuid.String() }
func (c CollaborationID) IsZero() bool    { return c.uuid == uuid.Nil }

func (c CollaborationID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "collaborationRequests",
		ID:    c.uuid.String(),
	}
}

func (c CollaborationID) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.uuid.String())
}

func (c *CollaborationID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	c.uuid = id
	return nil
}

func (c CollaborationID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"collaborationRequests", c.uuid.String()},
	})
}

func (c *CollaborationID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "collaborationRequests", &c.uuid)
}

func (c CollaborationID) Value() (driver.Value, error) {
	if c.IsZero() {
		return nil, nil
	}
	return c.uuid.String(), nil
}

func (c *CollaborationID) Scan(value any) error {
	return scanUUID(value, &c.uuid)
}

func (CollaborationID) GormDataType() string { return "uuid" }

// UpdateID is a typed ID for update audit records
type UpdateID struct {
	uuid uuid.UUID
}

func NewUpdateID() UpdateID {
	return UpdateID{uuid: uuid.New()}
}

func ParseUpdateID(s string) (UpdateID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UpdateID{}, fmt.Errorf("invalid update ID: %w", err)
	}
	return UpdateID{uuid: id}, nil
}

func (u UpdateID) UUID() uuid.UUID { return u.uuid }
func (u UpdateID) String() string  { return u.uuid.String() }
func (u UpdateID) IsZero() bool    { return u.uuid == uuid.Nil }

func (u UpdateID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "updates",
		ID:    u.uuid.String(),
	}
}

func (u UpdateID) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.uuid.String())
}

func (u *UpdateID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	u.uuid = id
	return nil
}

func (u UpdateID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"updates", u.uuid.String()},
	})
}

func (u *UpdateID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "updates", &u.uuid)
}

func (u UpdateID) Value() (driver.Value, error) {
	if u.IsZero() {
		return nil, nil
	}
	return u.uuid.String(), nil
}

func (u *UpdateID) Scan(value any) error {
	return scanUUID(value, &u.uuid)
}

func (UpdateID) GormDataType() string { return "uuid" }

// Helper functions

// scanUUID is a helper for implementing sql.Scanner interface for PostgreSQL/GORM
func scanUUID(value any, target *uuid.UUID) error {
	if value == nil {
		*target = uuid.Nil
		return nil
	}

	switch v := value.(type) {
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return err
		}
		*target = id
	case []byte:
		id, err := uuid.ParseBytes(v)
		if err != nil {
			return err
		}
		*target = id
	default:
		return fmt.Errorf("cannot scan type %T into UUID", value)
	}
	return nil
}

// unmarshalCBORID is a helper for unmarshaling SurrealDB RecordID from CBOR.
// SurrealDB uses CBOR tag 8 to identify RecordID types in its binary protocol.
// The RecordID is encoded as [table_name, id_string] within the tag.
func unmarshalCBORID(data []byte, expectedTable string, target *uuid.UUID) error {
	if len(data) == 0 {
		return fmt.Errorf("empty CBOR data")
	}

	// Check if this is a CBOR tag (major type 6)
	majorType := data[0] >> 5
	if majorType != 6 {
		return fmt.Errorf("expected CBOR tag for RecordID, got major type %d", majorType)
	}

	var tag cbor.Tag
	if err := cbor.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("failed to unmarshal CBOR tag: %w", err)
	}

	// SurrealDB uses tag 8 for RecordID
	if tag.Number != 8 {
		return fmt.Errorf("expected RecordID tag (8), got %d", tag.Number)
	}

	arr, ok := tag.Content.([]any)
	if !ok || len(arr) != 2 {
		return fmt.Errorf("invalid RecordID format: expected [table, id] array")
	}

	table, ok := arr[0].(string)
	if !ok {
		return fmt.Errorf("invalid RecordID format: table name must be string")
	}

	if table != expectedTable {
		return fmt.Errorf("expected table %s, got %s", expectedTable, table)
	}

	idStr, ok := arr[1].(string)
	if !ok {
		return fmt.Errorf("invalid RecordID format: ID must be string")
	}

	parsedUUID, err := uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("invalid UUID in RecordID: %w", err)
	}

	*target = parsedUUID
	return nil
}
