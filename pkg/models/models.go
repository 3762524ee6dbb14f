package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// MediaType distinguishes the supported kinds of attached media.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// CollaboratorRole represents the access level granted to a collaborator
// on a province or district.
type CollaboratorRole string

const (
	RoleEditor CollaboratorRole = "editor"
	RoleViewer CollaboratorRole = "viewer"
)

// AdminRole gates access to the /admin API surface.
type AdminRole string

const (
	AdminRoleAdmin  AdminRole = "admin"
	AdminRoleMaster AdminRole = "master"
)

// RequestStatus is the lifecycle state of registration and collaboration
// requests. Transitions are operator-triggered only; there is no automatic
// expiry or escalation.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusRejected RequestStatus = "rejected"
)

// Media describes a single image or video attached to a historical period,
// district map, or province background. URL points at the media host and is
// durable once returned by the upload endpoint.
type Media struct {
	Type         MediaType `json:"type"`
	URL          string    `json:"url"`
	Alt          string    `json:"alt,omitempty"`
	Description  string    `json:"description,omitempty"`
	License      string    `json:"license,omitempty"`
	DurationSec  int       `json:"duration_sec,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
}

// HistoricalPeriod is a labeled date range with narrative content attached
// to a province or district. Events, Landmarks, Media and Sources are
// ordered; order is preserved through storage round-trips.
type HistoricalPeriod struct {
	Era         string   `json:"era"`
	StartYear   int      `json:"start_year"`
	EndYear     int      `json:"end_year"`
	Description string   `json:"description,omitempty"`
	Events      []string `json:"events,omitempty"`
	Landmarks   []string `json:"landmarks,omitempty"`
	Media       []Media  `json:"media,omitempty"`
	Sources     []string `json:"sources,omitempty"`
}

// Clone returns a structural copy sharing no slices with the receiver.
func (h HistoricalPeriod) Clone() HistoricalPeriod {
	out := h
	out.Events = append([]string(nil), h.Events...)
	out.Landmarks = append([]string(nil), h.Landmarks...)
	out.Media = append([]Media(nil), h.Media...)
	out.Sources = append([]string(nil), h.Sources...)
	return out
}

// Collaborator is an entry in an entity's editor list. Role "editor" grants
// mutation through the permission gate; "viewer" does not.
type Collaborator struct {
	ID   AdminID          `json:"id"`
	Name string           `json:"name"`
	Role CollaboratorRole `json:"role"`
}

// Bounds is the rectangular placement of a district shape on the map canvas.
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Province represents a geographic administrative entity being documented.
//
// Invariants maintained by the stores and handlers:
//   - Version increments by exactly 1 on every accepted mutation.
//   - Locked=true blocks mutation except by an ID listed in CreatedBy.
type Province struct {
	ID              ProvinceID       `gorm:"type:uuid;primary_key" json:"id"`
	NameTH          string           `gorm:"not null" json:"name_th"`
	NameEN          string           `gorm:"not null" json:"name_en"`
	AreaKm2         float64          `json:"area_km2"`
	Periods         PeriodList       `gorm:"type:jsonb" json:"periods,omitempty"`
	CreatedBy       AdminIDList      `gorm:"type:jsonb" json:"created_by"`
	Editors         CollaboratorList `gorm:"type:jsonb" json:"editor,omitempty"`
	Locked          bool             `json:"lock"`
	Version         int64            `json:"version"`
	BackgroundImage *Media           `gorm:"type:jsonb;serializer:json" json:"background_image,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DeletedAt       gorm.DeletedAt   `gorm:"index" json:"deleted_at,omitempty"`

	// Districts are stored as their own documents and loaded on demand.
	Districts []*District `gorm:"-" json:"districts,omitempty"`
}

// BeforeCreate hook to generate ID if not set
func (p *Province) BeforeCreate(tx *gorm.DB) error {
	if p.ID.IsZero() {
		p.ID = NewProvinceID()
	}
	return nil
}

// Clone returns a deep copy with no shared slices, suitable for history
// snapshots that must never alias the live entity store.
func (p *Province) Clone() *Province {
	if p == nil {
		return nil
	}
	out := *p
	out.Periods = clonePeriods(p.Periods)
	out.CreatedBy = append(AdminIDList(nil), p.CreatedBy...)
	out.Editors = append(CollaboratorList(nil), p.Editors...)
	if p.BackgroundImage != nil {
		bg := *p.BackgroundImage
		out.BackgroundImage = &bg
	}
	out.Districts = nil
	for _, d := range p.Districts {
		out.Districts = append(out.Districts, d.Clone())
	}
	return &out
}

// IsCreator reports whether the given admin originally created the province.
func (p *Province) IsCreator(id AdminID) bool {
	return p.CreatedBy.Contains(id)
}

// Creators returns the creator ID list.
func (p *Province) Creators() AdminIDList { return p.CreatedBy }

// Collaborators returns the editor list.
func (p *Province) Collaborators() CollaboratorList { return p.Editors }

// IsLocked reports whether the lock flag is set.
func (p *Province) IsLocked() bool { return p.Locked }

// District represents a sub-division of a province with its own geometry,
// historical periods and collaborator lists. Districts obey the same
// Version and Locked invariants as provinces.
type District struct {
	ID          DistrictID       `gorm:"type:uuid;primary_key" json:"id"`
	ProvinceID  ProvinceID       `gorm:"type:uuid;not null;index" json:"province_id"`
	NameTH      string           `gorm:"not null" json:"name_th"`
	NameEN      string           `gorm:"not null" json:"name_en"`
	Bounds      Bounds           `gorm:"embedded;embeddedPrefix:bounds_" json:"coordinates"`
	Color       string           `json:"color,omitempty"`
	Periods     PeriodList       `gorm:"type:jsonb" json:"periods,omitempty"`
	MapImageURL string           `json:"map_image_url,omitempty"`
	CreatedBy   AdminIDList      `gorm:"type:jsonb" json:"created_by"`
	Editors     CollaboratorList `gorm:"type:jsonb" json:"editor,omitempty"`
	Locked      bool             `json:"lock"`
	Version     int64            `json:"version"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate hook to generate ID if not set
func (d *District) BeforeCreate(tx *gorm.DB) error {
	if d.ID.IsZero() {
		d.ID = NewDistrictID()
	}
	return nil
}

// Clone returns a deep copy with no shared slices.
func (d *District) Clone() *District {
	if d == nil {
		return nil
	}
	out := *d
	out.Periods = clonePeriods(d.Periods)
	out.CreatedBy = append(AdminIDList(nil), d.CreatedBy...)
	out.Editors = append(CollaboratorList(nil), d.Editors...)
	return &out
}

// IsCreator reports whether the given admin originally created the district.
func (d *District) IsCreator(id AdminID) bool {
	return d.CreatedBy.Contains(id)
}

// Creators returns the creator ID list.
func (d *District) Creators() AdminIDList { return d.CreatedBy }

// Collaborators returns the editor list.
func (d *District) Collaborators() CollaboratorList { return d.Editors }

// IsLocked reports whether the lock flag is set.
func (d *District) IsLocked() bool { return d.Locked }

// Admin is an authenticated operator account. PasswordHash holds a bcrypt
// hash and is never serialized to API responses.
type Admin struct {
	ID           AdminID        `gorm:"type:uuid;primary_key" json:"id"`
	Username     string         `gorm:"unique;not null" json:"username"`
	Email        string         `gorm:"unique;not null" json:"email"`
	DisplayName  string         `json:"display_name,omitempty"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Role         AdminRole      `gorm:"not null" json:"role"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate hook to generate ID if not set
func (a *Admin) BeforeCreate(tx *gorm.DB) error {
	if a.ID.IsZero() {
		a.ID = NewAdminID()
	}
	return nil
}

// RegistrationRequest is a pending application to become an administrator.
// The CV is uploaded to the media host; CVURL points at the stored object.
// Status transitions are performed manually by an admin.
type RegistrationRequest struct {
	ID        RegistrationID `gorm:"type:uuid;primary_key" json:"id"`
	FullName  string         `gorm:"not null" json:"full_name"`
	Email     string         `gorm:"not null" json:"email"`
	Username  string         `gorm:"not null" json:"username"`
	About     string         `json:"about,omitempty"`
	// PasswordHash is the bcrypt hash of the applicant's chosen password,
	// copied to the Admin account when the request is accepted.
	PasswordHash string `gorm:"not null" json:"-"`
	CVURL     string         `json:"cv_url,omitempty"`
	Status    RequestStatus  `gorm:"not null" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// BeforeCreate hook to generate ID if not set
func (r *RegistrationRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID.IsZero() {
		r.ID = NewRegistrationID()
	}
	return nil
}

// TargetKind identifies which entity type a collaboration request refers to.
type TargetKind string

const (
	TargetProvince TargetKind = "province"
	TargetDistrict TargetKind = "district"
)

// CollaborationRequest is an append-only record asking for editor or viewer
// access on an entity. Accepting one appends a Collaborator to the target's
// editor list; the record itself keeps its terminal status for audit.
type CollaborationRequest struct {
	ID            CollaborationID  `gorm:"type:uuid;primary_key" json:"id"`
	TargetKind    TargetKind       `gorm:"not null" json:"target_kind"`
	TargetID      string           `gorm:"not null;index" json:"target_id"`
	RequesterID   AdminID          `gorm:"type:uuid;not null" json:"requester_id"`
	RequesterName string           `json:"requester_name"`
	Role          CollaboratorRole `gorm:"not null" json:"role"`
	Message       string           `json:"message,omitempty"`
	Status        RequestStatus    `gorm:"not null" json:"status"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// BeforeCreate hook to generate ID if not set
func (c *CollaborationRequest) BeforeCreate(tx *gorm.DB) error {
	if c.ID.IsZero() {
		c.ID = NewCollaborationID()
	}
	return nil
}

// UpdateRecord is an append-only audit entry written after every accepted
// mutation. The public updates feed is served straight from these records.
type UpdateRecord struct {
	ID         UpdateID  `gorm:"type:uuid;primary_key" json:"id"`
	ActorID    AdminID   `gorm:"type:uuid" json:"actor_id"`
	ActorName  string    `json:"actor_name,omitempty"`
	EntityKind string    `gorm:"index" json:"entity_kind"`
	EntityID   string    `gorm:"index" json:"entity_id"`
	Action     string    `json:"action"`
	Summary    string    `json:"summary,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// BeforeCreate hook to generate ID if not set
func (u *UpdateRecord) BeforeCreate(tx *gorm.DB) error {
	if u.ID.IsZero() {
		u.ID = NewUpdateID()
	}
	return nil
}

// JSON-backed slice types. The GORM backend stores these columns as JSONB;
// the SurrealDB backend marshals them as native arrays through CBOR.

// PeriodList is an ordered list of historical periods.
type PeriodList []HistoricalPeriod

// Value implements the driver.Valuer interface for database storage
func (l PeriodList) Value() (driver.Value, error) { return jsonValue(l) }

// Scan implements the sql.Scanner interface for database retrieval
func (l *PeriodList) Scan(value any) error { return jsonScan(value, l) }

func (PeriodList) GormDataType() string { return "jsonb" }

// AdminIDList is a list of creator IDs.
type AdminIDList []AdminID

// Value implements the driver.Valuer interface for database storage
func (l AdminIDList) Value() (driver.Value, error) { return jsonValue(l) }

// Scan implements the sql.Scanner interface for database retrieval
func (l *AdminIDList) Scan(value any) error { return jsonScan(value, l) }

func (AdminIDList) GormDataType() string { return "jsonb" }

// Contains reports whether id appears in the list.
func (l AdminIDList) Contains(id AdminID) bool {
	for _, c := range l {
		if c == id {
			return true
		}
	}
	return false
}

// CollaboratorList is an entity's editor list.
type CollaboratorList []Collaborator

// Value implements the driver.Valuer interface for database storage
func (l CollaboratorList) Value() (driver.Value, error) { return jsonValue(l) }

// Scan implements the sql.Scanner interface for database retrieval
func (l *CollaboratorList) Scan(value any) error { return jsonScan(value, l) }

func (CollaboratorList) GormDataType() string { return "jsonb" }

// HasRole reports whether id appears in the list with exactly the given role.
func (l CollaboratorList) HasRole(id AdminID, role CollaboratorRole) bool {
	for _, c := range l {
		if c.ID == id && c.Role == role {
			return true
		}
	}
	return false
}

func clonePeriods(in PeriodList) PeriodList {
	if in == nil {
		return nil
	}
	out := make(PeriodList, 0, len(in))
	for _, p := range in {
		out = append(out, p.Clone())
	}
	return out
}

func jsonValue(v any) (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func jsonScan(value any, target any) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		bytes = []byte(value.(string))
	}
	return json.Unmarshal(bytes, target)
}
