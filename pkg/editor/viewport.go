package editor

import (
	"time"

	"github.com/siamatlas/siamatlas/pkg/models"
)

// Zoom limits and step for the map canvas.
const (
	MinScale = 0.5
	MaxScale = 3.5
	ZoomStep = 0.25
)

type pointerMode int

const (
	modeIdle pointerMode = iota
	modePanning
	modeDragging
)

// Viewport is the pan/zoom/drag state machine for the map canvas. It mutates
// only the session's in-memory graph; completed drags are recorded on the
// history so they participate in undo/redo.
type Viewport struct {
	Scale   float64
	OffsetX float64
	OffsetY float64

	store   *EntityStore
	gate    *Gate
	history *History

	mode       pointerMode
	dragID     models.DistrictID
	dragBefore *models.District
	lastX      float64
	lastY      float64
}

// NewViewport returns a viewport at scale 1 with no offset.
func NewViewport(store *EntityStore, gate *Gate, history *History) *Viewport {
	return &Viewport{Scale: 1, store: store, gate: gate, history: history}
}

func clampScale(s float64) float64 {
	if s < MinScale {
		return MinScale
	}
	if s > MaxScale {
		return MaxScale
	}
	return s
}

// SetScale clamps and applies an absolute scale.
func (v *Viewport) SetScale(s float64) { v.Scale = clampScale(s) }

// ZoomIn steps the scale up, saturating at MaxScale.
func (v *Viewport) ZoomIn() { v.SetScale(v.Scale + ZoomStep) }

// ZoomOut steps the scale down, saturating at MinScale.
func (v *Viewport) ZoomOut() { v.SetScale(v.Scale - ZoomStep) }

// Wheel zooms by one fixed step in the direction of the scroll delta. The
// delta magnitude is device-dependent and carries no meaning here.
func (v *Viewport) Wheel(delta float64) {
	switch {
	case delta > 0:
		v.ZoomIn()
	case delta < 0:
		v.ZoomOut()
	}
}

// PointerDown starts a pan, or a district drag when district is non-nil.
// Pointer-down on a district suppresses panning even when the gate denies
// the drag.
func (v *Viewport) PointerDown(x, y float64, district *models.DistrictID) {
	v.lastX, v.lastY = x, y
	if district == nil {
		v.mode = modePanning
		return
	}
	v.mode = modeIdle
	d := v.store.district(*district)
	if d == nil || !v.gate.CanEditDistrict(d) {
		return
	}
	v.mode = modeDragging
	v.dragID = *district
	v.dragBefore = d.Clone()
}

// PointerMove pans the canvas or moves the dragged district. Drag deltas are
// divided by the scale so screen-space motion maps to canvas coordinates.
func (v *Viewport) PointerMove(x, y float64) {
	dx, dy := x-v.lastX, y-v.lastY
	v.lastX, v.lastY = x, y
	switch v.mode {
	case modePanning:
		v.OffsetX += dx
		v.OffsetY += dy
	case modeDragging:
		if d := v.store.district(v.dragID); d != nil {
			d.Bounds.X += dx / v.Scale
			d.Bounds.Y += dy / v.Scale
		}
	}
}

// PointerUp ends the gesture. A completed drag that actually moved the
// district records one history entry covering the whole gesture.
func (v *Viewport) PointerUp() {
	if v.mode == modeDragging && v.dragBefore != nil {
		after := v.store.district(v.dragID)
		if after != nil && after.Bounds != v.dragBefore.Bounds {
			v.history.Record(&UpdateDistrict{
				Before: v.dragBefore,
				After:  after.Clone(),
				At:     time.Now().UTC(),
			})
		}
	}
	v.mode = modeIdle
	v.dragBefore = nil
	v.dragID = models.DistrictID{}
}

// Dragging reports whether a district drag is in progress.
func (v *Viewport) Dragging() bool { return v.mode == modeDragging }

// Panning reports whether a pan is in progress.
func (v *Viewport) Panning() bool { return v.mode == modePanning }
