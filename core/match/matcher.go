package match

import (
	"github.com/citydispatch/ridesim/core/geo"
	"github.com/citydispatch/ridesim/core/model"
)

// Matcher selects a vehicle for a pickup point. Implementations may build
// a spatial index for large fleets; the engine only depends on this
// interface.
type Matcher interface {
	Nearest(vehicles []model.Vehicle, typeName string, from geo.Point) (model.Vehicle, bool)
}

// NearestMatcher performs a linear scan over the fleet. At simulated fleet
// sizes an index buys nothing.
type NearestMatcher struct{}

// Nearest returns the available vehicle of the requested type closest to
// from. Ties break on fleet order, which is stable. The boolean is false
// when no available vehicle of that type exists.
func (NearestMatcher) Nearest(vehicles []model.Vehicle, typeName string, from geo.Point) (model.Vehicle, bool) {
	best := -1
	bestDist := 0.0
	for i, v := range vehicles {
		if !v.Available || v.Type != typeName {
			continue
		}
		d := geo.Distance(v.Pos, from)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return model.Vehicle{}, false
	}
	return vehicles[best], true
}
