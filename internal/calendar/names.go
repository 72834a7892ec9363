package calendar

import (
	"fmt"
	"strings"
)

// Locale selects the language of display names.
type Locale int

const (
	English Locale = iota
	Chinese
)

func (l Locale) String() string {
	if l == Chinese {
		return "zh"
	}
	return "en"
}

var (
	chineseMonths = [...]string{"正", "二", "三", "四", "五", "六", "七", "八", "九", "十", "冬", "腊"}
	chineseDigits = [...]string{"", "一", "二", "三", "四", "五", "六", "七", "八", "九", "十"}

	stems    = [...]string{"甲", "乙", "丙", "丁", "戊", "己", "庚", "辛", "壬", "癸"}
	stemsEn  = [...]string{"Jia", "Yi", "Bing", "Ding", "Wu", "Ji", "Geng", "Xin", "Ren", "Gui"}
	elements = [...]string{"Wood", "Fire", "Earth", "Metal", "Water"}
	branches = [...]string{"子", "丑", "寅", "卯", "辰", "巳", "午", "未", "申", "酉", "戌", "亥"}
	branchEn = [...]string{"Zi", "Chou", "Yin", "Mao", "Chen", "Si", "Wu", "Wei", "Shen", "You", "Xu", "Hai"}
	zodiac   = [...]string{"鼠", "牛", "虎", "兔", "龙", "蛇", "马", "羊", "猴", "鸡", "狗", "猪"}
	zodiacEn = [...]string{"Rat", "Ox", "Tiger", "Rabbit", "Dragon", "Snake", "Horse", "Goat", "Monkey", "Rooster", "Dog", "Pig"}
)

// MonthName returns the display name of a lunar month.
func MonthName(n int, leap bool, locale Locale) string {
	if n < 1 || n > 12 {
		return ""
	}
	if locale == Chinese {
		name := chineseMonths[n-1] + "月"
		if leap {
			name = "闰" + name
		}
		return name
	}
	if leap {
		return fmt.Sprintf("Leap Month %d", n)
	}
	return fmt.Sprintf("Month %d", n)
}

// DayName returns the display name of a day of a lunar month.
func DayName(d int, locale Locale) string {
	if d < 1 || d > 30 {
		return ""
	}
	if locale != Chinese {
		return fmt.Sprintf("Day %d", d)
	}

	switch {
	case d <= 10:
		return "初" + chineseDigits[d]
	case d < 20:
		return "十" + chineseDigits[d-10]
	case d == 20:
		return "二十"
	case d < 30:
		return "廿" + chineseDigits[d-20]
	}
	return "三十"
}

// YearName returns the sexagenary name of a lunar year with its zodiac
// animal, e.g. 乙巳(蛇) or "Yi-Si (Wood Snake)".
func YearName(year int, locale Locale) string {
	stem := mod(year-4, 10)
	branch := mod(year-4, 12)

	if locale == Chinese {
		return stems[stem] + branches[branch] + "(" + zodiac[branch] + ")"
	}
	return fmt.Sprintf("%s-%s (%s %s)", stemsEn[stem], branchEn[branch], elements[stem/2], zodiacEn[branch])
}

// Zodiac returns the zodiac animal of a lunar year.
func Zodiac(year int, locale Locale) string {
	if locale == Chinese {
		return zodiac[mod(year-4, 12)]
	}
	return zodiacEn[mod(year-4, 12)]
}

// Describe renders a lunar date in full, e.g. 乙巳年闰六月十九.
func Describe(d LunarDate, locale Locale) string {
	if locale == Chinese {
		year := YearName(d.Year, Chinese)
		year = year[:strings.IndexByte(year, '(')]
		return year + "年" + MonthName(d.Month, d.IsLeap, Chinese) + DayName(d.Day, Chinese)
	}
	return fmt.Sprintf("%s, %s, year %s", DayName(d.Day, English), MonthName(d.Month, d.IsLeap, English), YearName(d.Year, English))
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}
