package timescale

// DeltaT returns ΔT in seconds for a decimal year using the Espenak–Meeus
// piecewise polynomials (NASA Five Millennium Canon). Years outside the
// table extrapolate with the outermost parabola.
func DeltaT(y float64) float64 {
	switch {
	case y < -500:
		u := (y - 1820) / 100
		return -20 + 32*u*u
	case y < 500:
		u := y / 100
		return poly(u, 10583.6, -1014.41, 33.78311, -5.952053, -0.1798452, 0.022174192, 0.0090316521)
	case y < 1600:
		u := (y - 1000) / 100
		return poly(u, 1574.2, -556.01, 71.23472, 0.319781, -0.8503463, -0.005050998, 0.0083572073)
	case y < 1700:
		u := y - 1600
		return poly(u, 120, -0.9808, -0.01532, 1.0/7129)
	case y < 1800:
		u := y - 1700
		return poly(u, 8.83, 0.1603, -0.0059285, 0.00013336, -1.0/1174000)
	case y < 1860:
		u := y - 1800
		return poly(u, 13.72, -0.332447, 0.0068612, 0.0041116, -0.00037436, 0.0000121272, -0.0000001699, 0.000000000875)
	case y < 1900:
		u := y - 1860
		return poly(u, 7.62, 0.5737, -0.251754, 0.01680668, -0.0004473624, 1.0/233174)
	case y < 1920:
		u := y - 1900
		return poly(u, -2.79, 1.494119, -0.0598939, 0.0061966, -0.000197)
	case y < 1941:
		u := y - 1920
		return poly(u, 21.20, 0.84493, -0.076100, 0.0020936)
	case y < 1961:
		u := y - 1950
		return poly(u, 29.07, 0.407, -1.0/233, 1.0/2547)
	case y < 1986:
		u := y - 1975
		return poly(u, 45.45, 1.067, -1.0/260, -1.0/718)
	case y < 2005:
		u := y - 2000
		return poly(u, 63.86, 0.3345, -0.060374, 0.0017275, 0.000651814, 0.00002373599)
	case y < 2050:
		u := y - 2000
		return poly(u, 62.92, 0.32217, 0.005589)
	case y < 2150:
		u := (y - 1820) / 100
		return -20 + 32*u*u - 0.5628*(2150-y)
	default:
		u := (y - 1820) / 100
		return -20 + 32*u*u
	}
}

// DecimalYear approximates the calendar year of a Julian Day as a real
// number, which keeps ΔT continuous within each polynomial segment.
func DecimalYear(jd float64) float64 {
	return 2000 + (jd-J2000)/365.25
}

// poly evaluates c[0] + c[1]u + c[2]u² + ... by Horner's rule.
func poly(u float64, c ...float64) float64 {
	var sum float64
	for i := len(c) - 1; i >= 0; i-- {
		sum = sum*u + c[i]
	}
	return sum
}
