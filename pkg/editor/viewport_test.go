package editor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siamatlas/siamatlas/pkg/models"
)

func TestScaleClampedUnderArbitraryWheel(t *testing.T) {
	s, _ := newTestSession(t)
	v := s.Viewport

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		v.Wheel((rng.Float64() - 0.5) * 4)
		require.GreaterOrEqual(t, v.Scale, MinScale)
		require.LessOrEqual(t, v.Scale, MaxScale)
	}

	for i := 0; i < 20; i++ {
		v.Wheel(1)
	}
	assert.Equal(t, MaxScale, v.Scale)
	for i := 0; i < 20; i++ {
		v.Wheel(-1)
	}
	assert.Equal(t, MinScale, v.Scale)
}

func TestWheelZoomsByFixedStep(t *testing.T) {
	s, _ := newTestSession(t)
	v := s.Viewport

	v.Wheel(137.5)
	assert.Equal(t, 1+ZoomStep, v.Scale, "delta magnitude is ignored")
	v.Wheel(-0.001)
	assert.Equal(t, 1.0, v.Scale)
	v.Wheel(0)
	assert.Equal(t, 1.0, v.Scale, "zero delta is a no-op")
}

func TestZoomStepsSaturate(t *testing.T) {
	s, _ := newTestSession(t)
	v := s.Viewport

	for i := 0; i < 20; i++ {
		v.ZoomIn()
	}
	assert.Equal(t, MaxScale, v.Scale)
	for i := 0; i < 20; i++ {
		v.ZoomOut()
	}
	assert.Equal(t, MinScale, v.Scale)
}

func TestPanAccumulatesPointerDeltas(t *testing.T) {
	s, _ := newTestSession(t)
	v := s.Viewport

	v.PointerDown(100, 100, nil)
	assert.True(t, v.Panning())
	v.PointerMove(110, 95)
	v.PointerMove(120, 90)
	v.PointerUp()

	assert.Equal(t, 20.0, v.OffsetX)
	assert.Equal(t, -10.0, v.OffsetY)
	assert.False(t, v.Panning())
}

func TestDragScalesDeltaByInverseZoom(t *testing.T) {
	s, _ := newTestSession(t)
	v := s.Viewport
	d := s.Store.Districts()[0]
	startX := d.Bounds.X

	v.SetScale(2)
	v.PointerDown(0, 0, &d.ID)
	require.True(t, v.Dragging())
	v.PointerMove(10, 0)
	v.PointerUp()

	got := s.Store.DistrictSnapshot(d.ID)
	assert.Equal(t, startX+5, got.Bounds.X, "screen delta divided by scale")
	assert.Equal(t, 0.0, v.OffsetX, "district drag never pans")
}

func TestDragRecordsOneHistoryEntry(t *testing.T) {
	s, _ := newTestSession(t)
	v := s.Viewport
	d := s.Store.Districts()[0]
	start := d.Bounds

	v.PointerDown(0, 0, &d.ID)
	v.PointerMove(4, 4)
	v.PointerMove(8, 8)
	v.PointerUp()

	require.Equal(t, 1, s.History.Len(), "one entry per completed gesture")
	require.True(t, s.Undo())
	assert.Equal(t, start, s.Store.DistrictSnapshot(d.ID).Bounds)
}

func TestDragWithoutMovementRecordsNothing(t *testing.T) {
	s, _ := newTestSession(t)
	d := s.Store.Districts()[0]

	s.Viewport.PointerDown(5, 5, &d.ID)
	s.Viewport.PointerUp()
	assert.Equal(t, 0, s.History.Len())
}

func TestPointerDownOnDistrictSuppressesPan(t *testing.T) {
	owner := testUser()
	p := testProvince(owner.ID)
	p.Districts = []*models.District{testDistrict(p.ID, owner.ID, "Mueang")}

	s := NewSession(testUser()) // no edit rights
	s.LoadProvince(p)
	v := s.Viewport
	d := s.Store.Districts()[0]

	v.PointerDown(0, 0, &d.ID)
	assert.False(t, v.Dragging(), "gate denies the drag")
	v.PointerMove(50, 50)
	v.PointerUp()

	assert.Equal(t, 0.0, v.OffsetX, "district hit never falls back to panning")
	assert.Equal(t, d.Bounds, s.Store.DistrictSnapshot(d.ID).Bounds)
}
