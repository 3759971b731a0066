// Package analytics aggregates click logs into per-link reports.
package analytics

import "time"

// CountRow is a labelled count, e.g. "Germany": 42.
type CountRow struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// DayCount is the click total for one calendar day.
type DayCount struct {
	Day   time.Time `json:"day"`
	Count int64     `json:"count"`
}

// HourCount is the click total for one hour of day (0-23), aggregated
// across the reporting window.
type HourCount struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

// RecentClick is a single recent click, trimmed for display.
type RecentClick struct {
	Country    string    `json:"country,omitempty"`
	City       string    `json:"city,omitempty"`
	DeviceType string    `json:"device_type"`
	Browser    string    `json:"browser"`
	OS         string    `json:"os"`
	Referer    string    `json:"referer,omitempty"`
	ClickedAt  time.Time `json:"clicked_at"`
}

// Summary is the full analytics report for one short code.
type Summary struct {
	ShortCode        string        `json:"short_code"`
	TotalClicks      int64         `json:"total_clicks"`
	UniqueVisitors   int64         `json:"unique_visitors"`
	ClicksToday      int64         `json:"clicks_today"`
	ClicksPerDay     float64       `json:"clicks_per_day"`
	Countries        []CountRow    `json:"countries"`
	Devices          []CountRow    `json:"devices"`
	Browsers         []CountRow    `json:"browsers"`
	OperatingSystems []CountRow    `json:"operating_systems"`
	Referers         []CountRow    `json:"referers"`
	Daily            []DayCount    `json:"daily"`
	Hourly           []HourCount   `json:"hourly"`
	Recent           []RecentClick `json:"recent"`
}
