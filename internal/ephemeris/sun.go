package ephemeris

import "math"

// Coordinate is a geocentric ecliptic position referred to the true
// equinox of date. Distance is in AU, angles in degrees.
type Coordinate struct {
	Distance  float64
	Longitude float64
	Latitude  float64
}

const (
	// aberration constant in arcseconds at 1 AU
	aberration = 20.4898

	minSunDistance = 0.98
	maxSunDistance = 1.02
)

// SolarApparentCoordinate returns the apparent geocentric position of the
// Sun at t Julian centuries TDB from J2000.0. ds must be a VSOP87 Earth
// dataset with L, B and R series.
func SolarApparentCoordinate(t float64, ds *Dataset) (Coordinate, error) {
	if err := ds.expect(ModelVSOP87); err != nil {
		return Coordinate{}, err
	}
	if err := checkEpoch(t); err != nil {
		return Coordinate{}, err
	}

	tau := t / 10
	l := sumVSOP(ds, "L", tau)
	b := sumVSOP(ds, "B", tau)
	r := sumVSOP(ds, "R", tau)

	if r < minSunDistance || r > maxSunDistance || math.IsNaN(r) {
		return Coordinate{}, &OutOfRangeError{Quantity: "sun distance (AU)", Value: r, Min: minSunDistance, Max: maxSunDistance}
	}

	// Heliocentric Earth to geocentric Sun.
	theta := wrap360(l/deg2rad + 180)
	beta := -b / deg2rad

	// FK5 frame.
	lp := (theta - 1.397*t - 0.00031*t*t) * deg2rad
	theta += -0.09033 * arcsecond
	beta += 0.03916 * arcsecond * (math.Cos(lp) - math.Sin(lp))

	lambda := theta + NutationLongitude(t) - aberration*arcsecond/r

	return Coordinate{
		Distance:  r,
		Longitude: wrap360(lambda),
		Latitude:  beta,
	}, nil
}

// sumVSOP evaluates Σ_k τ^k Σ A·cos(B + C·τ) for one quantity.
func sumVSOP(ds *Dataset, quantity string, tau float64) float64 {
	var total float64
	for k := ds.MaxPower(quantity); k >= 0; k-- {
		var s float64
		for _, term := range ds.Terms(quantity, k) {
			s += term.Amplitude * math.Cos(term.Phase+term.Frequencies[0]*tau)
		}
		total = total*tau + s
	}
	return total
}
