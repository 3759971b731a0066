package clicks

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const insertClickSQL = `
INSERT INTO click_logs (
	id, short_code, ip_address, user_agent, referer, country, city,
	device_type, browser, browser_version, os, os_version, clicked_at
) VALUES (
	$1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''),
	$8, $9, $10, $11, $12, $13
)`

type pgxRepo struct {
	pool *pgxpool.Pool
}

// NewRepo returns a Repo backed by PostgreSQL.
func NewRepo(pool *pgxpool.Pool) Repo {
	return &pgxRepo{pool: pool}
}

func (r *pgxRepo) Insert(ctx context.Context, click Click) error {
	_, err := r.pool.Exec(ctx, insertClickSQL,
		click.ID,
		click.ShortCode,
		click.IPAddress,
		click.UserAgent,
		click.Referer,
		click.Country,
		click.City,
		click.DeviceType,
		click.Browser,
		click.BrowserVersion,
		click.OS,
		click.OSVersion,
		click.ClickedAt,
	)
	if err != nil {
		return fmt.Errorf("insert click log: %w", err)
	}
	return nil
}
