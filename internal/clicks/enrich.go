package clicks

import (
	"unicode/utf8"

	"github.com/mileusna/useragent"
)

// unknownValue fills enrichment fields that could not be determined.
const unknownValue = "unknown"

// deviceInfo holds what user agent parsing yields.
type deviceInfo struct {
	DeviceType     string
	Browser        string
	BrowserVersion string
	OS             string
	OSVersion      string
}

// parseUserAgent classifies a raw user agent string. Every field falls back
// to "unknown" rather than empty so analytics grouping stays uniform.
func parseUserAgent(raw string) deviceInfo {
	info := deviceInfo{
		DeviceType:     unknownValue,
		Browser:        unknownValue,
		BrowserVersion: unknownValue,
		OS:             unknownValue,
		OSVersion:      unknownValue,
	}
	if raw == "" {
		return info
	}

	ua := useragent.Parse(raw)

	switch {
	case ua.Bot:
		info.DeviceType = "bot"
	case ua.Tablet:
		info.DeviceType = "tablet"
	case ua.Mobile:
		info.DeviceType = "mobile"
	case ua.Desktop:
		info.DeviceType = "desktop"
	}

	if ua.Name != "" {
		info.Browser = ua.Name
	}
	if ua.Version != "" {
		info.BrowserVersion = ua.Version
	}
	if ua.OS != "" {
		info.OS = ua.OS
	}
	if ua.OSVersion != "" {
		info.OSVersion = ua.OSVersion
	}

	return info
}

// truncate clips s to at most maxFieldLength bytes without splitting a
// rune. Postgres rejects invalid UTF-8 text, which would cost the whole row.
func truncate(s string) string {
	if len(s) <= maxFieldLength {
		return s
	}
	cut := maxFieldLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// enrich turns a raw hit into a full click row using ua parsing and GeoIP.
func enrich(hit RawHit, locator Locator) Click {
	info := parseUserAgent(hit.UserAgent)
	loc := locator.Locate(hit.IP)

	return Click{
		ShortCode:      hit.ShortCode,
		IPAddress:      hit.IP,
		UserAgent:      truncate(hit.UserAgent),
		Referer:        truncate(hit.Referer),
		Country:        loc.Country,
		City:           loc.City,
		DeviceType:     info.DeviceType,
		Browser:        info.Browser,
		BrowserVersion: info.BrowserVersion,
		OS:             info.OS,
		OSVersion:      info.OSVersion,
		ClickedAt:      hit.Time,
	}
}
