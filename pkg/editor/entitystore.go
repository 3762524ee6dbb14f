package editor

import (
	"github.com/siamatlas/siamatlas/pkg/models"
)

// EntityStore exclusively owns the in-memory province/district graph for one
// editing session. Entities enter and leave by deep copy; history entries
// hold snapshots by value and never reference back into the live graph.
type EntityStore struct {
	province *models.Province
}

// NewEntityStore returns an empty store.
func NewEntityStore() *EntityStore { return &EntityStore{} }

// Load replaces the session graph with a deep copy of p.
func (s *EntityStore) Load(p *models.Province) {
	s.province = p.Clone()
}

// Loaded reports whether a province is currently loaded.
func (s *EntityStore) Loaded() bool { return s.province != nil }

// Snapshot returns a deep copy of the current graph, nil when empty.
func (s *EntityStore) Snapshot() *models.Province {
	return s.province.Clone()
}

// DistrictSnapshot returns a deep copy of one district, nil when absent.
func (s *EntityStore) DistrictSnapshot(id models.DistrictID) *models.District {
	return s.district(id).Clone()
}

// Districts returns deep copies of the loaded districts in order.
func (s *EntityStore) Districts() []*models.District {
	if s.province == nil {
		return nil
	}
	out := make([]*models.District, 0, len(s.province.Districts))
	for _, d := range s.province.Districts {
		out = append(out, d.Clone())
	}
	return out
}

// district returns the live district, for mutation by actions only.
func (s *EntityStore) district(id models.DistrictID) *models.District {
	if s.province == nil {
		return nil
	}
	for _, d := range s.province.Districts {
		if d.ID == id {
			return d
		}
	}
	return nil
}

func (s *EntityStore) districtIndex(id models.DistrictID) int {
	if s.province == nil {
		return -1
	}
	for i, d := range s.province.Districts {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// replaceProvince swaps scalar province fields, preserving the live district
// slice. Used by update actions whose snapshots exclude districts.
func (s *EntityStore) replaceProvince(p *models.Province) {
	if s.province == nil || p == nil {
		return
	}
	districts := s.province.Districts
	next := p.Clone()
	next.Districts = districts
	s.province = next
}

func (s *EntityStore) replaceDistrict(d *models.District) {
	if d == nil {
		return
	}
	if i := s.districtIndex(d.ID); i >= 0 {
		s.province.Districts[i] = d.Clone()
	}
}

func (s *EntityStore) insertDistrict(d *models.District, index int) {
	if s.province == nil || d == nil {
		return
	}
	if s.districtIndex(d.ID) >= 0 {
		return
	}
	ds := s.province.Districts
	if index < 0 || index > len(ds) {
		index = len(ds)
	}
	ds = append(ds, nil)
	copy(ds[index+1:], ds[index:])
	ds[index] = d
	s.province.Districts = ds
}

func (s *EntityStore) removeDistrict(id models.DistrictID) (*models.District, int) {
	i := s.districtIndex(id)
	if i < 0 {
		return nil, -1
	}
	d := s.province.Districts[i]
	s.province.Districts = append(s.province.Districts[:i], s.province.Districts[i+1:]...)
	return d, i
}

// periods resolves the live period list a ref points at, nil when the
// target is absent.
func (s *EntityStore) periods(ref TargetRef) *models.PeriodList {
	if ref.Kind == models.TargetDistrict {
		d := s.district(ref.DistrictID)
		if d == nil {
			return nil
		}
		return &d.Periods
	}
	if s.province == nil {
		return nil
	}
	return &s.province.Periods
}

func (s *EntityStore) insertPeriod(ref TargetRef, index int, p models.HistoricalPeriod) {
	list := s.periods(ref)
	if list == nil {
		return
	}
	if index < 0 || index > len(*list) {
		index = len(*list)
	}
	next := append(*list, models.HistoricalPeriod{})
	copy(next[index+1:], next[index:])
	next[index] = p
	*list = next
}

func (s *EntityStore) setPeriod(ref TargetRef, index int, p models.HistoricalPeriod) {
	list := s.periods(ref)
	if list == nil || index < 0 || index >= len(*list) {
		return
	}
	(*list)[index] = p
}

func (s *EntityStore) removePeriod(ref TargetRef, index int) {
	list := s.periods(ref)
	if list == nil || index < 0 || index >= len(*list) {
		return
	}
	*list = append((*list)[:index], (*list)[index+1:]...)
}
