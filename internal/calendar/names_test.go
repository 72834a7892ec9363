package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonthName(t *testing.T) {
	tests := []struct {
		n      int
		leap   bool
		locale Locale
		want   string
	}{
		{1, false, Chinese, "正月"},
		{6, true, Chinese, "闰六月"},
		{11, false, Chinese, "冬月"},
		{12, false, Chinese, "腊月"},
		{6, true, English, "Leap Month 6"},
		{3, false, English, "Month 3"},
		{13, false, English, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MonthName(tt.n, tt.leap, tt.locale))
	}
}

func TestDayName(t *testing.T) {
	want := map[int]string{
		1: "初一", 9: "初九", 10: "初十", 11: "十一", 19: "十九",
		20: "二十", 21: "廿一", 29: "廿九", 30: "三十",
	}
	for d, name := range want {
		assert.Equal(t, name, DayName(d, Chinese), "day %d", d)
	}
	assert.Equal(t, "Day 19", DayName(19, English))
	assert.Equal(t, "", DayName(31, Chinese))
}

func TestYearName(t *testing.T) {
	assert.Equal(t, "乙巳(蛇)", YearName(2025, Chinese))
	assert.Equal(t, "Yi-Si (Wood Snake)", YearName(2025, English))
	assert.Equal(t, "甲辰(龙)", YearName(2024, Chinese))
	assert.Equal(t, "Geng-Zi (Metal Rat)", YearName(2020, English))
	assert.Equal(t, "甲子(鼠)", YearName(4, Chinese))
	assert.Equal(t, "Horse", Zodiac(2026, English))
}

func TestDescribe(t *testing.T) {
	d := LunarDate{Year: 2025, Month: 6, Day: 19, IsLeap: true}
	assert.Equal(t, "乙巳年闰六月十九", Describe(d, Chinese))
	assert.Equal(t, "Day 19, Leap Month 6, year Yi-Si (Wood Snake)", Describe(d, English))
}
