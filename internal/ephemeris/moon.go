package ephemeris

import "math"

const (
	// AstronomicalUnit in kilometres.
	AstronomicalUnit = 149597870.7

	// SpeedOfLight in kilometres per second.
	SpeedOfLight = 299792.458

	moonMeanDistance = 385000.56 // km
	minMoonDistance  = 350000.0
	maxMoonDistance  = 410000.0

	// mean motion of L' in degrees per second
	moonMeanMotion = 481267.88123421 / (36525 * 86400)
)

// lunarArguments holds the fundamental arguments of the lunar theory in
// degrees, together with T and the eccentricity factor E.
type lunarArguments struct {
	lp, d, m, mp, f float64
	t               float64
	e               float64
}

func newLunarArguments(t float64) lunarArguments {
	t2, t3, t4 := t*t, t*t*t, t*t*t*t
	return lunarArguments{
		lp: 218.3164477 + 481267.88123421*t - 0.0015786*t2 + t3/538841 - t4/65194000,
		d:  297.8501921 + 445267.1114034*t - 0.0018819*t2 + t3/545868 - t4/113065000,
		m:  357.5291092 + 35999.0502909*t - 0.0001536*t2 + t3/24490000,
		mp: 134.9633964 + 477198.8675055*t + 0.0087414*t2 + t3/69699 - t4/14712000,
		f:  93.2720950 + 483202.0175233*t - 0.0036539*t2 - t3/3526000 + t4/863310000,
		t:  t,
		e:  1 - 0.002516*t - 0.0000074*t2,
	}
}

// LunarApparentCoordinate returns the apparent geocentric position of the
// Moon at t Julian centuries TDB. r, v and u are the ELP distance,
// longitude and latitude datasets.
func LunarApparentCoordinate(t float64, r, v, u *Dataset) (Coordinate, error) {
	for _, ds := range []*Dataset{r, v, u} {
		if err := ds.expect(ModelELP); err != nil {
			return Coordinate{}, err
		}
	}
	if err := checkEpoch(t); err != nil {
		return Coordinate{}, err
	}

	args := newLunarArguments(t)
	sl := sumELP(v, "V", args)
	sb := sumELP(u, "U", args)
	sr := sumELP(r, "R", args)

	distance := moonMeanDistance + sr
	if distance < minMoonDistance || distance > maxMoonDistance || math.IsNaN(distance) {
		return Coordinate{}, &OutOfRangeError{Quantity: "moon distance (km)", Value: distance, Min: minMoonDistance, Max: maxMoonDistance}
	}

	lambda := args.lp + sl
	lambda -= moonMeanMotion * distance / SpeedOfLight
	lambda += NutationLongitude(t)

	return Coordinate{
		Distance:  distance / AstronomicalUnit,
		Longitude: wrap360(lambda),
		Latitude:  sb,
	}, nil
}

// sumELP evaluates every series of a quantity, multiplying series k by T^k.
func sumELP(ds *Dataset, quantity string, a lunarArguments) float64 {
	var total float64
	for k := ds.MaxPower(quantity); k >= 0; k-- {
		s := ds.find(quantity, k)
		var sum float64
		if s != nil {
			for _, term := range s.Terms {
				sum += elpTerm(term, s.Trig, a)
			}
		}
		total = total*a.t + sum
	}
	return total
}

func elpTerm(term Term, trig Trig, a lunarArguments) float64 {
	fr := term.Frequencies
	arg := term.Phase + fr[0]*a.d + fr[1]*a.m + fr[2]*a.mp + fr[3]*a.f + fr[4]*a.lp + fr[5]*a.t

	amp := term.Amplitude
	for n := math.Abs(fr[1]); n >= 1; n-- {
		amp *= a.e
	}

	if trig == Sin {
		return amp * math.Sin(arg*deg2rad)
	}
	return amp * math.Cos(arg*deg2rad)
}
