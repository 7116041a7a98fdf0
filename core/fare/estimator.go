package fare

import (
	"math"

	"github.com/citydispatch/ridesim/core/geo"
	"github.com/citydispatch/ridesim/core/model"
)

// Estimator converts trip geometry into a quoted price and durations.
// PxToKm maps canvas distance to kilometers; it is a configuration
// constant, not derived from real geography.
type Estimator struct {
	PxToKm float64
}

// Estimate quotes a ride served by the given vehicle. It is a pure
// function of its inputs. ETAMinutes is floored at 2 and TripMinutes at 3
// so colocated points never produce a zero-duration quote. Minutes use
// math.Round (half away from zero); money is rounded to two decimals.
func (e Estimator) Estimate(v model.Vehicle, vt model.VehicleType, pickup, dropoff geo.Point) model.Estimate {
	approachKm := geo.Distance(v.Pos, pickup) * e.PxToKm
	tripKm := geo.Distance(pickup, dropoff) * e.PxToKm

	eta := int(math.Round(approachKm / vt.SpeedKmh * 60))
	if eta < 2 {
		eta = 2
	}
	trip := int(math.Round(tripKm / vt.SpeedKmh * 60))
	if trip < 3 {
		trip = 3
	}

	return model.Estimate{
		VehicleID:   v.ID,
		VehicleType: vt.Name,
		ETAMinutes:  eta,
		TripMinutes: trip,
		TripKm:      round2(tripKm),
		Price:       round2(vt.BaseFare + vt.PerKmRate*tripKm),
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
