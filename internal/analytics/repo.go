package analytics

import (
	"context"
	"time"
)

// Totals holds the headline counters for a short code. TotalClicks comes
// from the link's own counter, so it covers clicks whose detailed log row
// was dropped or lost.
type Totals struct {
	TotalClicks    int64
	UniqueVisitors int64
	ClicksToday    int64
	CreatedAt      time.Time
}

// Repository defines the read operations over click logs.
type Repository interface {
	Totals(ctx context.Context, code string) (Totals, error)
	CountryCounts(ctx context.Context, code string, limit int) ([]CountRow, error)
	DeviceCounts(ctx context.Context, code string, limit int) ([]CountRow, error)
	BrowserCounts(ctx context.Context, code string, limit int) ([]CountRow, error)
	OSCounts(ctx context.Context, code string, limit int) ([]CountRow, error)
	// RefererCounts returns raw referer URLs with counts; domain folding
	// happens in the service.
	RefererCounts(ctx context.Context, code string) ([]CountRow, error)
	DailyCounts(ctx context.Context, code string, days int) ([]DayCount, error)
	HourlyCounts(ctx context.Context, code string, days int) ([]HourCount, error)
	RecentClicks(ctx context.Context, code string, limit int) ([]RecentClick, error)
}
