package api

import (
	"net/http"

	"golang.org/x/text/language"

	"github.com/zapponejosh/lunisolar-api/internal/calendar"
)

// supported is ordered to match the calendar.Locale values.
var supported = []language.Tag{
	language.English, // calendar.English
	language.Chinese, // calendar.Chinese
}

var matcher = language.NewMatcher(supported)

// requestLocale picks the display locale from ?lang= or, failing that,
// Accept-Language. English is the fallback.
func requestLocale(r *http.Request) calendar.Locale {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		if tag, err := language.Parse(lang); err == nil {
			return match(tag)
		}
	}

	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return calendar.English
	}
	return match(tags...)
}

func match(tags ...language.Tag) calendar.Locale {
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return calendar.English
	}
	return calendar.Locale(idx)
}
