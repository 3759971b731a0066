package analytics

import (
	"context"
	"errors"
	"math"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sundayezeilo/shortlink/internal/errx"
)

const (
	// topN bounds every grouped breakdown.
	topN = 10
	// dailyWindowDays is the reporting window for per-day totals.
	dailyWindowDays = 30
	// hourlyWindowDays is the reporting window for hour-of-day totals.
	hourlyWindowDays = 7
	// recentLimit bounds the recent clicks list.
	recentLimit = 50
)

// Service assembles analytics summaries.
type Service interface {
	Summarize(ctx context.Context, code string) (Summary, error)
}

type service struct {
	repo Repository
}

// NewService creates a new analytics service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Summarize(ctx context.Context, code string) (Summary, error) {
	const op = "analytics.service.Summarize"

	if code == "" {
		return Summary{}, errx.E(op, errx.Invalid, errors.New("code cannot be empty"))
	}

	totals, err := s.repo.Totals(ctx, code)
	if err != nil {
		return Summary{}, errx.E(op, errx.KindOf(err), err)
	}

	countries, err := s.repo.CountryCounts(ctx, code, topN)
	if err != nil {
		return Summary{}, errx.E(op, errx.KindOf(err), err)
	}

	devices, err := s.repo.DeviceCounts(ctx, code, topN)
	if err != nil {
		return Summary{}, errx.E(op, errx.KindOf(err), err)
	}

	browsers, err := s.repo.BrowserCounts(ctx, code, topN)
	if err != nil {
		return Summary{}, errx.E(op, errx.KindOf(err), err)
	}

	oses, err := s.repo.OSCounts(ctx, code, topN)
	if err != nil {
		return Summary{}, errx.E(op, errx.KindOf(err), err)
	}

	referers, err := s.repo.RefererCounts(ctx, code)
	if err != nil {
		return Summary{}, errx.E(op, errx.KindOf(err), err)
	}

	daily, err := s.repo.DailyCounts(ctx, code, dailyWindowDays)
	if err != nil {
		return Summary{}, errx.E(op, errx.KindOf(err), err)
	}

	hourly, err := s.repo.HourlyCounts(ctx, code, hourlyWindowDays)
	if err != nil {
		return Summary{}, errx.E(op, errx.KindOf(err), err)
	}

	recent, err := s.repo.RecentClicks(ctx, code, recentLimit)
	if err != nil {
		return Summary{}, errx.E(op, errx.KindOf(err), err)
	}

	return Summary{
		ShortCode:        code,
		TotalClicks:      totals.TotalClicks,
		UniqueVisitors:   totals.UniqueVisitors,
		ClicksToday:      totals.ClicksToday,
		ClicksPerDay:     clicksPerDay(totals.TotalClicks, totals.CreatedAt),
		Countries:        countries,
		Devices:          devices,
		Browsers:         browsers,
		OperatingSystems: oses,
		Referers:         foldRefererDomains(referers, topN),
		Daily:            daily,
		Hourly:           hourly,
		Recent:           recent,
	}, nil
}

// clicksPerDay averages the total over whole days since the link was
// created, rounded to two decimals. Links younger than a day count as one.
func clicksPerDay(total int64, createdAt time.Time) float64 {
	days := int64(time.Since(createdAt).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return math.Round(float64(total)/float64(days)*100) / 100
}

// foldRefererDomains collapses full referer URLs into their domains and
// returns the top n by count. Distinct URLs from the same site count
// together; unparseable referers are dropped.
func foldRefererDomains(rows []CountRow, n int) []CountRow {
	byDomain := make(map[string]int64)
	for _, row := range rows {
		domain := refererDomain(row.Label)
		if domain == "" {
			continue
		}
		byDomain[domain] += row.Count
	}

	out := make([]CountRow, 0, len(byDomain))
	for domain, count := range byDomain {
		out = append(out, CountRow{Label: domain, Count: count})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})

	if len(out) > n {
		out = out[:n]
	}
	return out
}

// refererDomain extracts the lowercased host from a referer URL, with any
// "www." prefix stripped. Returns "" when no host can be determined.
func refererDomain(referer string) string {
	u, err := url.Parse(referer)
	if err != nil {
		return ""
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	return host
}
