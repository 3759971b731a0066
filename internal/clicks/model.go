// Package clicks records and enriches redirect traffic off the hot path.
package clicks

import (
	"time"

	"github.com/google/uuid"
)

// maxFieldLength bounds stored user agent and referer strings.
const maxFieldLength = 500

// RawHit is what the redirect handler captures before handing off. It holds
// only what can be read from the request cheaply.
type RawHit struct {
	ShortCode string
	IP        string
	UserAgent string
	Referer   string
	Time      time.Time
}

// Click is a fully enriched click log row.
type Click struct {
	ID             uuid.UUID
	ShortCode      string
	IPAddress      string
	UserAgent      string
	Referer        string
	Country        string
	City           string
	DeviceType     string
	Browser        string
	BrowserVersion string
	OS             string
	OSVersion      string
	ClickedAt      time.Time
}
