package analytics

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sundayezeilo/shortlink/internal/errx"
)

const totalsSQL = `
SELECT
	l.clicks,
	l.created_at,
	COUNT(DISTINCT c.ip_address),
	COUNT(c.id) FILTER (WHERE c.clicked_at >= date_trunc('day', now()))
FROM links l
LEFT JOIN click_logs c ON c.short_code = l.short_code
WHERE l.short_code = $1
GROUP BY l.id`

const countryCountsSQL = `
SELECT country, COUNT(*)
FROM click_logs
WHERE short_code = $1 AND country IS NOT NULL
GROUP BY country
ORDER BY COUNT(*) DESC, country
LIMIT $2`

const deviceCountsSQL = `
SELECT device_type, COUNT(*)
FROM click_logs
WHERE short_code = $1
GROUP BY device_type
ORDER BY COUNT(*) DESC, device_type
LIMIT $2`

const browserCountsSQL = `
SELECT browser, COUNT(*)
FROM click_logs
WHERE short_code = $1
GROUP BY browser
ORDER BY COUNT(*) DESC, browser
LIMIT $2`

const osCountsSQL = `
SELECT os, COUNT(*)
FROM click_logs
WHERE short_code = $1
GROUP BY os
ORDER BY COUNT(*) DESC, os
LIMIT $2`

const refererCountsSQL = `
SELECT referer, COUNT(*)
FROM click_logs
WHERE short_code = $1 AND referer IS NOT NULL
GROUP BY referer`

const dailyCountsSQL = `
SELECT date_trunc('day', clicked_at) AS day, COUNT(*)
FROM click_logs
WHERE short_code = $1 AND clicked_at >= now() - make_interval(days => $2)
GROUP BY day
ORDER BY day`

const hourlyCountsSQL = `
SELECT EXTRACT(HOUR FROM clicked_at)::int AS hour, COUNT(*)
FROM click_logs
WHERE short_code = $1 AND clicked_at >= now() - make_interval(days => $2)
GROUP BY hour
ORDER BY hour`

const recentClicksSQL = `
SELECT
	COALESCE(country, ''), COALESCE(city, ''),
	device_type, browser, os,
	COALESCE(referer, ''), clicked_at
FROM click_logs
WHERE short_code = $1
ORDER BY clicked_at DESC
LIMIT $2`

type pgxRepo struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Repository backed by PostgreSQL.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepo{pool: pool}
}

func repoErr(op string, err error) error {
	return errx.E(op, errx.Unavailable, err)
}

func (r *pgxRepo) Totals(ctx context.Context, code string) (Totals, error) {
	const op = "analytics.repo.Totals"

	var t Totals
	err := r.pool.QueryRow(ctx, totalsSQL, code).Scan(
		&t.TotalClicks, &t.CreatedAt, &t.UniqueVisitors, &t.ClicksToday,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Totals{}, errx.E(op, errx.NotFound, err)
		}
		return Totals{}, repoErr(op, err)
	}
	return t, nil
}

func (r *pgxRepo) CountryCounts(ctx context.Context, code string, limit int) ([]CountRow, error) {
	return r.grouped(ctx, "analytics.repo.CountryCounts", countryCountsSQL, code, limit)
}

func (r *pgxRepo) DeviceCounts(ctx context.Context, code string, limit int) ([]CountRow, error) {
	return r.grouped(ctx, "analytics.repo.DeviceCounts", deviceCountsSQL, code, limit)
}

func (r *pgxRepo) BrowserCounts(ctx context.Context, code string, limit int) ([]CountRow, error) {
	return r.grouped(ctx, "analytics.repo.BrowserCounts", browserCountsSQL, code, limit)
}

func (r *pgxRepo) OSCounts(ctx context.Context, code string, limit int) ([]CountRow, error) {
	return r.grouped(ctx, "analytics.repo.OSCounts", osCountsSQL, code, limit)
}

func (r *pgxRepo) grouped(ctx context.Context, op, sql, code string, limit int) ([]CountRow, error) {
	rows, err := r.pool.Query(ctx, sql, code, limit)
	if err != nil {
		return nil, repoErr(op, err)
	}
	defer rows.Close()

	return collectCountRows(op, rows)
}

func (r *pgxRepo) RefererCounts(ctx context.Context, code string) ([]CountRow, error) {
	const op = "analytics.repo.RefererCounts"

	rows, err := r.pool.Query(ctx, refererCountsSQL, code)
	if err != nil {
		return nil, repoErr(op, err)
	}
	defer rows.Close()

	return collectCountRows(op, rows)
}

func collectCountRows(op string, rows pgx.Rows) ([]CountRow, error) {
	var out []CountRow
	for rows.Next() {
		var row CountRow
		if err := rows.Scan(&row.Label, &row.Count); err != nil {
			return nil, repoErr(op, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, repoErr(op, err)
	}
	return out, nil
}

func (r *pgxRepo) DailyCounts(ctx context.Context, code string, days int) ([]DayCount, error) {
	const op = "analytics.repo.DailyCounts"

	rows, err := r.pool.Query(ctx, dailyCountsSQL, code, days)
	if err != nil {
		return nil, repoErr(op, err)
	}
	defer rows.Close()

	var out []DayCount
	for rows.Next() {
		var row DayCount
		if err := rows.Scan(&row.Day, &row.Count); err != nil {
			return nil, repoErr(op, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, repoErr(op, err)
	}
	return out, nil
}

func (r *pgxRepo) HourlyCounts(ctx context.Context, code string, days int) ([]HourCount, error) {
	const op = "analytics.repo.HourlyCounts"

	rows, err := r.pool.Query(ctx, hourlyCountsSQL, code, days)
	if err != nil {
		return nil, repoErr(op, err)
	}
	defer rows.Close()

	var out []HourCount
	for rows.Next() {
		var row HourCount
		if err := rows.Scan(&row.Hour, &row.Count); err != nil {
			return nil, repoErr(op, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, repoErr(op, err)
	}
	return out, nil
}

func (r *pgxRepo) RecentClicks(ctx context.Context, code string, limit int) ([]RecentClick, error) {
	const op = "analytics.repo.RecentClicks"

	rows, err := r.pool.Query(ctx, recentClicksSQL, code, limit)
	if err != nil {
		return nil, repoErr(op, err)
	}
	defer rows.Close()

	var out []RecentClick
	for rows.Next() {
		var row RecentClick
		err := rows.Scan(
			&row.Country, &row.City,
			&row.DeviceType, &row.Browser, &row.OS,
			&row.Referer, &row.ClickedAt,
		)
		if err != nil {
			return nil, repoErr(op, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, repoErr(op, err)
	}
	return out, nil
}
