// Package legs groups line segments into continuous polylines per
// visibility class.
package legs

import "github.com/dyuri/cave3d/internal/model"

// Accumulator collects segments keyed by LegKey. Segments of different
// keys may interleave; each key keeps its own active run.
type Accumulator struct {
	legs  map[model.LegKey]model.Leg
	order []model.LegKey
}

// New creates an empty accumulator
func New() *Accumulator {
	return &Accumulator{legs: make(map[model.LegKey]model.Leg)}
}

// Add appends the segment from -> to under key. The active run is
// extended when it ends at from; otherwise a new run is started.
func (a *Accumulator) Add(key model.LegKey, from, to model.Point3) {
	leg, ok := a.legs[key]
	if !ok {
		a.order = append(a.order, key)
	}

	if n := len(leg); n > 0 {
		run := leg[n-1]
		if run[len(run)-1] == from {
			leg[n-1] = append(run, to)
			a.legs[key] = leg
			return
		}
	}

	a.legs[key] = append(leg, model.Run{from, to})
}

// Legs returns the accumulated legs. The map is owned by the accumulator.
func (a *Accumulator) Legs() map[model.LegKey]model.Leg {
	return a.legs
}

// Keys returns the keys in the order they were first seen
func (a *Accumulator) Keys() []model.LegKey {
	return a.order
}

// Segments returns the total number of segments added
func (a *Accumulator) Segments() int {
	n := 0
	for _, leg := range a.legs {
		for _, run := range leg {
			n += len(run) - 1
		}
	}
	return n
}
