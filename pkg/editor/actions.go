package editor

import (
	"time"

	"github.com/siamatlas/siamatlas/pkg/models"
)

// ActionKind discriminates history entries.
type ActionKind string

const (
	KindUpdateProvince ActionKind = "update_province"
	KindUpdateDistrict ActionKind = "update_district"
	KindAddDistrict    ActionKind = "add_district"
	KindDeleteDistrict ActionKind = "delete_district"
	KindSetMapImage    ActionKind = "set_map_image"
	KindAttachMedia    ActionKind = "attach_media"
	KindAddPeriod      ActionKind = "add_period"
	KindUpdatePeriod   ActionKind = "update_period"
	KindDeletePeriod   ActionKind = "delete_period"
)

// EditAction is a recorded, reversible mutation. Each variant carries exactly
// the fields its inverse needs; snapshots are deep copies and never alias the
// live entity store.
type EditAction interface {
	Kind() ActionKind
	// Target identifies the mutated entity for audit display.
	Target() string
	OccurredAt() time.Time

	apply(s *EntityStore)
	revert(s *EntityStore)
}

// TargetRef addresses either the loaded province or one of its districts.
type TargetRef struct {
	Kind       models.TargetKind
	DistrictID models.DistrictID
}

// ProvinceTarget addresses the loaded province.
func ProvinceTarget() TargetRef {
	return TargetRef{Kind: models.TargetProvince}
}

// DistrictTarget addresses a district by ID.
func DistrictTarget(id models.DistrictID) TargetRef {
	return TargetRef{Kind: models.TargetDistrict, DistrictID: id}
}

// UpdateProvince replaces the province's scalar fields. Districts are not
// part of the snapshot; district edits have their own kinds.
type UpdateProvince struct {
	Before *models.Province
	After  *models.Province
	At     time.Time
}

func (a *UpdateProvince) Kind() ActionKind      { return KindUpdateProvince }
func (a *UpdateProvince) Target() string        { return a.After.ID.String() }
func (a *UpdateProvince) OccurredAt() time.Time { return a.At }

func (a *UpdateProvince) apply(s *EntityStore)  { s.replaceProvince(a.After) }
func (a *UpdateProvince) revert(s *EntityStore) { s.replaceProvince(a.Before) }

// UpdateDistrict replaces one district's fields.
type UpdateDistrict struct {
	Before *models.District
	After  *models.District
	At     time.Time
}

func (a *UpdateDistrict) Kind() ActionKind      { return KindUpdateDistrict }
func (a *UpdateDistrict) Target() string        { return a.After.ID.String() }
func (a *UpdateDistrict) OccurredAt() time.Time { return a.At }

func (a *UpdateDistrict) apply(s *EntityStore)  { s.replaceDistrict(a.After) }
func (a *UpdateDistrict) revert(s *EntityStore) { s.replaceDistrict(a.Before) }

// AddDistrict appends a district. Index records where it landed so a
// redo after undo reinserts at the same position.
type AddDistrict struct {
	District *models.District
	Index    int
	At       time.Time
}

func (a *AddDistrict) Kind() ActionKind      { return KindAddDistrict }
func (a *AddDistrict) Target() string        { return a.District.ID.String() }
func (a *AddDistrict) OccurredAt() time.Time { return a.At }

func (a *AddDistrict) apply(s *EntityStore)  { s.insertDistrict(a.District.Clone(), a.Index) }
func (a *AddDistrict) revert(s *EntityStore) { s.removeDistrict(a.District.ID) }

// DeleteDistrict removes a district, keeping the full snapshot and its
// position for reinsertion on undo.
type DeleteDistrict struct {
	District *models.District
	Index    int
	At       time.Time
}

func (a *DeleteDistrict) Kind() ActionKind      { return KindDeleteDistrict }
func (a *DeleteDistrict) Target() string        { return a.District.ID.String() }
func (a *DeleteDistrict) OccurredAt() time.Time { return a.At }

func (a *DeleteDistrict) apply(s *EntityStore)  { s.removeDistrict(a.District.ID) }
func (a *DeleteDistrict) revert(s *EntityStore) { s.insertDistrict(a.District.Clone(), a.Index) }

// SetMapImage swaps a district's map image URL.
type SetMapImage struct {
	DistrictID models.DistrictID
	Before     string
	After      string
	At         time.Time
}

func (a *SetMapImage) Kind() ActionKind      { return KindSetMapImage }
func (a *SetMapImage) Target() string        { return a.DistrictID.String() }
func (a *SetMapImage) OccurredAt() time.Time { return a.At }

func (a *SetMapImage) apply(s *EntityStore) {
	if d := s.district(a.DistrictID); d != nil {
		d.MapImageURL = a.After
	}
}

func (a *SetMapImage) revert(s *EntityStore) {
	if d := s.district(a.DistrictID); d != nil {
		d.MapImageURL = a.Before
	}
}

// AttachMedia appends one media item to a period's media list.
type AttachMedia struct {
	Ref         TargetRef
	PeriodIndex int
	Media       models.Media
	At          time.Time
}

func (a *AttachMedia) Kind() ActionKind      { return KindAttachMedia }
func (a *AttachMedia) Target() string        { return a.Ref.String() }
func (a *AttachMedia) OccurredAt() time.Time { return a.At }

func (a *AttachMedia) apply(s *EntityStore) {
	periods := s.periods(a.Ref)
	if periods == nil || a.PeriodIndex < 0 || a.PeriodIndex >= len(*periods) {
		return
	}
	p := &(*periods)[a.PeriodIndex]
	p.Media = append(p.Media, a.Media)
}

func (a *AttachMedia) revert(s *EntityStore) {
	periods := s.periods(a.Ref)
	if periods == nil || a.PeriodIndex < 0 || a.PeriodIndex >= len(*periods) {
		return
	}
	p := &(*periods)[a.PeriodIndex]
	for i := len(p.Media) - 1; i >= 0; i-- {
		if p.Media[i].URL == a.Media.URL {
			p.Media = append(p.Media[:i], p.Media[i+1:]...)
			return
		}
	}
}

// AddPeriod inserts a historical period at Index.
type AddPeriod struct {
	Ref    TargetRef
	Index  int
	Period models.HistoricalPeriod
	At     time.Time
}

func (a *AddPeriod) Kind() ActionKind      { return KindAddPeriod }
func (a *AddPeriod) Target() string        { return a.Ref.String() }
func (a *AddPeriod) OccurredAt() time.Time { return a.At }

func (a *AddPeriod) apply(s *EntityStore)  { s.insertPeriod(a.Ref, a.Index, a.Period.Clone()) }
func (a *AddPeriod) revert(s *EntityStore) { s.removePeriod(a.Ref, a.Index) }

// UpdatePeriod replaces the period at Index.
type UpdatePeriod struct {
	Ref    TargetRef
	Index  int
	Before models.HistoricalPeriod
	After  models.HistoricalPeriod
	At     time.Time
}

func (a *UpdatePeriod) Kind() ActionKind      { return KindUpdatePeriod }
func (a *UpdatePeriod) Target() string        { return a.Ref.String() }
func (a *UpdatePeriod) OccurredAt() time.Time { return a.At }

func (a *UpdatePeriod) apply(s *EntityStore)  { s.setPeriod(a.Ref, a.Index, a.After.Clone()) }
func (a *UpdatePeriod) revert(s *EntityStore) { s.setPeriod(a.Ref, a.Index, a.Before.Clone()) }

// DeletePeriod removes the period at Index, keeping the snapshot for undo.
type DeletePeriod struct {
	Ref    TargetRef
	Index  int
	Period models.HistoricalPeriod
	At     time.Time
}

func (a *DeletePeriod) Kind() ActionKind      { return KindDeletePeriod }
func (a *DeletePeriod) Target() string        { return a.Ref.String() }
func (a *DeletePeriod) OccurredAt() time.Time { return a.At }

func (a *DeletePeriod) apply(s *EntityStore)  { s.removePeriod(a.Ref, a.Index) }
func (a *DeletePeriod) revert(s *EntityStore) { s.insertPeriod(a.Ref, a.Index, a.Period.Clone()) }

// String renders the ref as "province" or the district ID.
func (r TargetRef) String() string {
	if r.Kind == models.TargetDistrict {
		return r.DistrictID.String()
	}
	return string(models.TargetProvince)
}
