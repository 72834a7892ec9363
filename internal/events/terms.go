// Package events locates solar terms and new moons by root-finding on the
// apparent longitudes of the Sun and the Moon.
package events

import (
	"fmt"

	"github.com/zapponejosh/lunisolar-api/internal/timescale"
)

// SolarTerm is one of the 24 points where the Sun's apparent longitude is
// a multiple of 15°, numbered from the spring equinox. Even-numbered terms
// are major terms (zhongqi).
type SolarTerm int

const (
	SpringEquinox SolarTerm = iota
	ClearAndBright
	GrainRain
	StartOfSummer
	GrainBuds
	GrainInEar
	SummerSolstice
	MinorHeat
	MajorHeat
	StartOfAutumn
	EndOfHeat
	WhiteDew
	AutumnEquinox
	ColdDew
	FrostDescent
	StartOfWinter
	MinorSnow
	MajorSnow
	WinterSolstice
	MinorCold
	MajorCold
	StartOfSpring
	RainWater
	AwakeningOfInsects
)

// TermCount is the number of solar terms in a tropical year.
const TermCount = 24

type termName struct {
	english string
	chinese string
}

var termNames = [TermCount]termName{
	{"Spring Equinox", "春分"},
	{"Clear and Bright", "清明"},
	{"Grain Rain", "谷雨"},
	{"Start of Summer", "立夏"},
	{"Grain Buds", "小满"},
	{"Grain in Ear", "芒种"},
	{"Summer Solstice", "夏至"},
	{"Minor Heat", "小暑"},
	{"Major Heat", "大暑"},
	{"Start of Autumn", "立秋"},
	{"End of Heat", "处暑"},
	{"White Dew", "白露"},
	{"Autumn Equinox", "秋分"},
	{"Cold Dew", "寒露"},
	{"Frost's Descent", "霜降"},
	{"Start of Winter", "立冬"},
	{"Minor Snow", "小雪"},
	{"Major Snow", "大雪"},
	{"Winter Solstice", "冬至"},
	{"Minor Cold", "小寒"},
	{"Major Cold", "大寒"},
	{"Start of Spring", "立春"},
	{"Rain Water", "雨水"},
	{"Awakening of Insects", "惊蛰"},
}

// Valid reports whether t is one of the 24 terms.
func (t SolarTerm) Valid() bool {
	return t >= 0 && t < TermCount
}

// Longitude returns the apparent solar longitude of the term in degrees.
func (t SolarTerm) Longitude() float64 {
	return float64(t) * 15
}

// IsMajor reports whether the term is a major term (zhongqi).
func (t SolarTerm) IsMajor() bool {
	return t%2 == 0
}

// Next returns the following term, wrapping after AwakeningOfInsects.
func (t SolarTerm) Next() SolarTerm {
	return (t + 1) % TermCount
}

// Name returns the English name.
func (t SolarTerm) Name() string {
	if !t.Valid() {
		return fmt.Sprintf("SolarTerm(%d)", int(t))
	}
	return termNames[t].english
}

// ChineseName returns the simplified Chinese name.
func (t SolarTerm) ChineseName() string {
	if !t.Valid() {
		return ""
	}
	return termNames[t].chinese
}

func (t SolarTerm) String() string {
	return t.Name()
}

// TermAt returns the term whose longitude is lon degrees. lon must be a
// multiple of 15.
func TermAt(lon float64) (SolarTerm, error) {
	n := int(lon) / 15
	if float64(n*15) != lon || n < 0 || n >= TermCount {
		return 0, fmt.Errorf("longitude %g is not a solar term", lon)
	}
	return SolarTerm(n), nil
}

// TermEvent is a solar term located in time.
type TermEvent struct {
	Term    SolarTerm
	Instant timescale.Instant
}
