package ephemeris

import "math"

const (
	deg2rad   = math.Pi / 180
	arcsecond = 1.0 / 3600
)

// nutationTerm gives multipliers of D, M, M', F and Ω and the sine
// coefficients of Δψ, in units of 0.0001″.
type nutationTerm struct {
	d, m, mp, f, om float64
	s0, s1          float64
}

// IAU 1980 nutation in longitude, terms above 0.0003″.
var nutationTerms = []nutationTerm{
	{0, 0, 0, 0, 1, -171996, -174.2},
	{-2, 0, 0, 2, 2, -13187, -1.6},
	{0, 0, 0, 2, 2, -2274, -0.2},
	{0, 0, 0, 0, 2, 2062, 0.2},
	{0, 1, 0, 0, 0, 1426, -3.4},
	{0, 0, 1, 0, 0, 712, 0.1},
	{-2, 1, 0, 2, 2, -517, 1.2},
	{0, 0, 0, 2, 1, -386, -0.4},
	{0, 0, 1, 2, 2, -301, 0},
	{-2, -1, 0, 2, 2, 217, -0.5},
	{-2, 0, 1, 0, 0, -158, 0},
	{-2, 0, 0, 2, 1, 129, 0.1},
	{0, 0, -1, 2, 2, 123, 0},
	{2, 0, 0, 0, 0, 63, 0},
	{0, 0, 1, 0, 1, 63, 0.1},
	{2, 0, -1, 2, 2, -59, 0},
	{0, 0, -1, 0, 1, -58, -0.1},
	{0, 0, 1, 2, 1, -51, 0},
}

// NutationLongitude returns Δψ in degrees for T Julian centuries TDB.
func NutationLongitude(t float64) float64 {
	t2, t3 := t*t, t*t*t
	d := 297.85036 + 445267.111480*t - 0.0019142*t2 + t3/189474
	m := 357.52772 + 35999.050340*t - 0.0001603*t2 - t3/300000
	mp := 134.96298 + 477198.867398*t + 0.0086972*t2 + t3/56250
	f := 93.27191 + 483202.017538*t - 0.0036825*t2 + t3/327270
	om := 125.04452 - 1934.136261*t + 0.0020708*t2 + t3/450000

	var sum float64
	for _, n := range nutationTerms {
		arg := (n.d*d + n.m*m + n.mp*mp + n.f*f + n.om*om) * deg2rad
		sum += (n.s0 + n.s1*t) * math.Sin(arg)
	}
	return sum * 0.0001 * arcsecond
}

// wrap360 maps an angle in degrees into [0, 360).
func wrap360(x float64) float64 {
	x = math.Mod(x, 360)
	if x < 0 {
		x += 360
	}
	return x
}
