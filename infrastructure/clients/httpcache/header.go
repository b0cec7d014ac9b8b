package httpcache

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/akihito104/yttt-sub001/domain/model"
)

// FromHeader builds a freshness record from a response. FetchedAt is the Date
// header when present, else now. MaxAge is taken from Cache-Control max-age and
// left unset when the response carries none, or forbids caching.
func FromHeader(h http.Header, now time.Time) model.CacheControl {
	fetchedAt := now
	if date := h.Get("Date"); date != "" {
		if t, err := http.ParseTime(date); err == nil {
			fetchedAt = t.UTC()
		}
	}
	cc := model.CacheControl{FetchedAt: &fetchedAt}
	if maxAge, ok := MaxAge(h.Get("Cache-Control")); ok {
		cc.MaxAge = &maxAge
	}
	return cc
}

// MaxAge extracts the max-age directive. no-store and no-cache yield zero.
func MaxAge(cacheControl string) (time.Duration, bool) {
	if cacheControl == "" {
		return 0, false
	}
	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.ToLower(strings.TrimSpace(directive))
		switch {
		case directive == "no-store" || directive == "no-cache":
			return 0, true
		case strings.HasPrefix(directive, "max-age="):
			secs, err := strconv.Atoi(strings.Trim(strings.TrimPrefix(directive, "max-age="), `"`))
			if err != nil || secs < 0 {
				return 0, false
			}
			return time.Duration(secs) * time.Second, true
		}
	}
	return 0, false
}
