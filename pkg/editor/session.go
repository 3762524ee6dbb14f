package editor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/siamatlas/siamatlas/pkg/models"
)

// ErrNotPermitted is returned when the permission gate denies a mutation.
var ErrNotPermitted = errors.New("not permitted")

// ErrNotLoaded is returned when no province is loaded into the session.
var ErrNotLoaded = errors.New("no province loaded")

// ErrNoSuchDistrict is returned when a mutation targets an unknown district.
var ErrNoSuchDistrict = errors.New("no such district")

// ErrNoSuchPeriod is returned when a period index is out of range.
var ErrNoSuchPeriod = errors.New("no such period")

// Session ties one user's editing of one province together: entity store,
// history, permission gate and viewport. Every mutation runs the same way:
// the gate approves, the store is mutated, then the action is recorded.
// Sessions are single-user and not safe for concurrent use.
type Session struct {
	Store    *EntityStore
	History  *History
	Viewport *Viewport

	gate *Gate
	now  func() time.Time
}

// NewSession returns a session for the given user, which may be nil for a
// read-only viewer.
func NewSession(u *User) *Session {
	store := NewEntityStore()
	history := NewHistory(DefaultHistoryCapacity)
	gate := NewGate(u)
	return &Session{
		Store:    store,
		History:  history,
		Viewport: NewViewport(store, gate, history),
		gate:     gate,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Gate exposes the session's permission gate.
func (s *Session) Gate() *Gate { return s.gate }

// LoadProvince replaces the session graph and clears history.
func (s *Session) LoadProvince(p *models.Province) {
	s.Store.Load(p)
	s.History = NewHistory(DefaultHistoryCapacity)
	s.Viewport.history = s.History
}

// Undo rolls back the most recent action. No-op when nothing to undo.
func (s *Session) Undo() bool { return s.History.Undo(s.Store) }

// Redo re-applies the most recently undone action. No-op at the tip.
func (s *Session) Redo() bool { return s.History.Redo(s.Store) }

// UpdateProvince replaces the province's fields after a gate check. The
// district list is managed by Add/DeleteDistrict and left untouched.
func (s *Session) UpdateProvince(after *models.Province) error {
	if !s.Store.Loaded() {
		return ErrNotLoaded
	}
	live := s.Store.province
	if !CanMutate(s.gate.User(), live) {
		return ErrNotPermitted
	}
	if after == nil || after.ID != live.ID {
		return fmt.Errorf("province mismatch")
	}
	before := live.Clone()
	before.Districts = nil
	snap := after.Clone()
	snap.Districts = nil
	s.Store.replaceProvince(snap)
	s.History.Record(&UpdateProvince{Before: before, After: snap.Clone(), At: s.now()})
	return nil
}

// AddDistrict appends a district to the loaded province.
func (s *Session) AddDistrict(d *models.District) error {
	if !s.Store.Loaded() {
		return ErrNotLoaded
	}
	if !CanMutate(s.gate.User(), s.Store.province) {
		return ErrNotPermitted
	}
	if d == nil {
		return fmt.Errorf("nil district")
	}
	snap := d.Clone()
	if snap.ID.IsZero() {
		snap.ID = models.NewDistrictID()
	}
	snap.ProvinceID = s.Store.province.ID
	index := len(s.Store.province.Districts)
	s.Store.insertDistrict(snap.Clone(), index)
	s.History.Record(&AddDistrict{District: snap, Index: index, At: s.now()})
	return nil
}

// UpdateDistrict replaces a district's fields after a gate check on that
// district.
func (s *Session) UpdateDistrict(after *models.District) error {
	if after == nil {
		return fmt.Errorf("nil district")
	}
	live := s.Store.district(after.ID)
	if live == nil {
		return ErrNoSuchDistrict
	}
	if !CanMutate(s.gate.User(), live) {
		return ErrNotPermitted
	}
	before := live.Clone()
	s.Store.replaceDistrict(after)
	s.History.Record(&UpdateDistrict{Before: before, After: after.Clone(), At: s.now()})
	return nil
}

// DeleteDistrict removes a district; the gate check runs against the
// province since removal changes the province's composition.
func (s *Session) DeleteDistrict(id models.DistrictID) error {
	if !s.Store.Loaded() {
		return ErrNotLoaded
	}
	if !CanMutate(s.gate.User(), s.Store.province) {
		return ErrNotPermitted
	}
	removed, index := s.Store.removeDistrict(id)
	if removed == nil {
		return ErrNoSuchDistrict
	}
	s.History.Record(&DeleteDistrict{District: removed.Clone(), Index: index, At: s.now()})
	return nil
}

// SetMapImage swaps a district's map image URL.
func (s *Session) SetMapImage(id models.DistrictID, url string) error {
	live := s.Store.district(id)
	if live == nil {
		return ErrNoSuchDistrict
	}
	if !CanMutate(s.gate.User(), live) {
		return ErrNotPermitted
	}
	action := &SetMapImage{DistrictID: id, Before: live.MapImageURL, After: url, At: s.now()}
	action.apply(s.Store)
	s.History.Record(action)
	return nil
}

// AttachMedia appends a media item to a period on the province or a
// district.
func (s *Session) AttachMedia(ref TargetRef, periodIndex int, m models.Media) error {
	target, err := s.editableFor(ref)
	if err != nil {
		return err
	}
	if !CanMutate(s.gate.User(), target) {
		return ErrNotPermitted
	}
	list := s.Store.periods(ref)
	if periodIndex < 0 || periodIndex >= len(*list) {
		return ErrNoSuchPeriod
	}
	action := &AttachMedia{Ref: ref, PeriodIndex: periodIndex, Media: m, At: s.now()}
	action.apply(s.Store)
	s.History.Record(action)
	return nil
}

// AddPeriod inserts a historical period. index beyond the list appends.
func (s *Session) AddPeriod(ref TargetRef, index int, p models.HistoricalPeriod) error {
	target, err := s.editableFor(ref)
	if err != nil {
		return err
	}
	if !CanMutate(s.gate.User(), target) {
		return ErrNotPermitted
	}
	list := s.Store.periods(ref)
	if index < 0 || index > len(*list) {
		index = len(*list)
	}
	action := &AddPeriod{Ref: ref, Index: index, Period: p.Clone(), At: s.now()}
	action.apply(s.Store)
	s.History.Record(action)
	return nil
}

// UpdatePeriod replaces the period at index.
func (s *Session) UpdatePeriod(ref TargetRef, index int, p models.HistoricalPeriod) error {
	target, err := s.editableFor(ref)
	if err != nil {
		return err
	}
	if !CanMutate(s.gate.User(), target) {
		return ErrNotPermitted
	}
	list := s.Store.periods(ref)
	if index < 0 || index >= len(*list) {
		return ErrNoSuchPeriod
	}
	action := &UpdatePeriod{Ref: ref, Index: index, Before: (*list)[index].Clone(), After: p.Clone(), At: s.now()}
	action.apply(s.Store)
	s.History.Record(action)
	return nil
}

// DeletePeriod removes the period at index.
func (s *Session) DeletePeriod(ref TargetRef, index int) error {
	target, err := s.editableFor(ref)
	if err != nil {
		return err
	}
	if !CanMutate(s.gate.User(), target) {
		return ErrNotPermitted
	}
	list := s.Store.periods(ref)
	if index < 0 || index >= len(*list) {
		return ErrNoSuchPeriod
	}
	action := &DeletePeriod{Ref: ref, Index: index, Period: (*list)[index].Clone(), At: s.now()}
	action.apply(s.Store)
	s.History.Record(action)
	return nil
}

// Save writes the session snapshot through the bridge and clears the dirty
// flag when every document was written.
func (s *Session) Save(ctx context.Context, b *Bridge) (*SaveResult, error) {
	if !s.Store.Loaded() {
		return nil, ErrNotLoaded
	}
	res, err := b.SaveProvince(ctx, s.Store.province)
	if err != nil {
		return nil, err
	}
	if res.Ok() {
		s.History.MarkSaved()
	}
	return res, nil
}

func (s *Session) editableFor(ref TargetRef) (Editable, error) {
	if !s.Store.Loaded() {
		return nil, ErrNotLoaded
	}
	if ref.Kind == models.TargetDistrict {
		d := s.Store.district(ref.DistrictID)
		if d == nil {
			return nil, ErrNoSuchDistrict
		}
		return d, nil
	}
	return s.Store.province, nil
}
