package ephemeris

import "fmt"

// Oracle adapts a dataset Set to the Sun/Moon interface the event locator
// consumes.
type Oracle struct {
	*Set
}

// NewOracle validates the set and wraps it.
func NewOracle(set *Set) (*Oracle, error) {
	if set == nil {
		return nil, fmt.Errorf("%w: nil dataset set", ErrModelMismatch)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &Oracle{Set: set}, nil
}

// Sun returns the apparent position of the Sun at t Julian centuries TDB.
func (o *Oracle) Sun(t float64) (Coordinate, error) {
	return SolarApparentCoordinate(t, o.Solar)
}

// Moon returns the apparent position of the Moon at t Julian centuries TDB.
func (o *Oracle) Moon(t float64) (Coordinate, error) {
	return LunarApparentCoordinate(t, o.LunarR, o.LunarV, o.LunarU)
}
