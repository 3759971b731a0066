package shortener

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sundayezeilo/shortlink/internal/errx"
	"github.com/sundayezeilo/shortlink/internal/idgen"
)

const linkColumns = `id, short_code, long_url, is_custom, owner_id, clicks,
	disabled, disable_reason, disabled_at, created_at, updated_at`

const createLinkSQL = `
INSERT INTO links (id, short_code, long_url, is_custom, owner_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + linkColumns

const getLinkSQL = `
SELECT ` + linkColumns + `
FROM links
WHERE short_code = $1`

const incrementClicksSQL = `
UPDATE links
SET clicks = clicks + 1, updated_at = now()
WHERE short_code = $1`

const disableLinkSQL = `
UPDATE links
SET disabled = TRUE, disable_reason = $2, disabled_at = now(), updated_at = now()
WHERE short_code = $1
RETURNING ` + linkColumns

const enableLinkSQL = `
UPDATE links
SET disabled = FALSE, disable_reason = NULL, disabled_at = NULL, updated_at = now()
WHERE short_code = $1
RETURNING ` + linkColumns

const deleteLinkSQL = `
DELETE FROM links
WHERE short_code = $1`

const topByClicksSQL = `
SELECT ` + linkColumns + `
FROM links
WHERE disabled = FALSE
ORDER BY clicks DESC
LIMIT $1`

const listByOwnerSQL = `
SELECT ` + linkColumns + `
FROM links
WHERE owner_id = $1
ORDER BY created_at DESC`

// dbtx is the subset of pgxpool.Pool the repository uses.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repo struct {
	db  dbtx
	ids idgen.Generator
}

// RepositoryConfig holds configuration for the repository.
type RepositoryConfig struct {
	IDGenerator idgen.Generator
}

// NewRepository creates a new Repository implementation.
func NewRepository(db dbtx, config *RepositoryConfig) Repository {
	if config == nil {
		config = &RepositoryConfig{}
	}

	// Default: UUID v7 (good for DB locality). Retry once by default inside idgen.NewV7.
	if config.IDGenerator == nil {
		config.IDGenerator = idgen.NewV7(idgen.WithRetries(1))
	}

	return &repo{
		db:  db,
		ids: config.IDGenerator,
	}
}

func scanLink(row pgx.Row) (Link, error) {
	var link Link
	err := row.Scan(
		&link.ID,
		&link.ShortCode,
		&link.LongURL,
		&link.IsCustom,
		&link.OwnerID,
		&link.Clicks,
		&link.Disabled,
		&link.DisableReason,
		&link.DisabledAt,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
	if err != nil {
		return Link{}, err
	}
	return link, nil
}

func mapRepoError(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return errx.E(op, errx.NotFound, err)

	case isShortCodeUniqueViolation(err):
		return errx.E(op, errx.Conflict, err)

	default:
		return errx.E(op, errx.Unavailable, err)
	}
}

func (r *repo) Create(ctx context.Context, link Link) (Link, error) {
	const op = "shortener.repo.Create"

	// Generate ID if not provided
	if link.ID == uuid.Nil {
		id, err := r.ids.Generate()
		if err != nil {
			return Link{}, errx.E(op, errx.Unavailable, err)
		}
		link.ID = id
	}

	row := r.db.QueryRow(ctx, createLinkSQL,
		link.ID,
		link.ShortCode,
		link.LongURL,
		link.IsCustom,
		link.OwnerID,
	)

	created, err := scanLink(row)
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}
	return created, nil
}

func (r *repo) GetByShortCode(ctx context.Context, code string) (Link, error) {
	const op = "shortener.repo.GetByShortCode"

	link, err := scanLink(r.db.QueryRow(ctx, getLinkSQL, code))
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}
	return link, nil
}

func (r *repo) IncrementClicks(ctx context.Context, code string) error {
	const op = "shortener.repo.IncrementClicks"

	tag, err := r.db.Exec(ctx, incrementClicksSQL, code)
	if err != nil {
		return mapRepoError(op, err)
	}
	if tag.RowsAffected() == 0 {
		return errx.E(op, errx.NotFound, fmt.Errorf("link %q not found", code))
	}
	return nil
}

func (r *repo) Disable(ctx context.Context, code, reason string) (Link, error) {
	const op = "shortener.repo.Disable"

	link, err := scanLink(r.db.QueryRow(ctx, disableLinkSQL, code, reason))
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}
	return link, nil
}

func (r *repo) Enable(ctx context.Context, code string) (Link, error) {
	const op = "shortener.repo.Enable"

	link, err := scanLink(r.db.QueryRow(ctx, enableLinkSQL, code))
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}
	return link, nil
}

func (r *repo) Delete(ctx context.Context, code string) error {
	const op = "shortener.repo.Delete"

	tag, err := r.db.Exec(ctx, deleteLinkSQL, code)
	if err != nil {
		return mapRepoError(op, err)
	}
	if tag.RowsAffected() == 0 {
		return errx.E(op, errx.NotFound, fmt.Errorf("link %q not found", code))
	}
	return nil
}

func (r *repo) TopByClicks(ctx context.Context, limit int) ([]Link, error) {
	const op = "shortener.repo.TopByClicks"

	rows, err := r.db.Query(ctx, topByClicksSQL, limit)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	defer rows.Close()

	return collectLinks(op, rows)
}

func (r *repo) ListByOwner(ctx context.Context, ownerID int64) ([]Link, error) {
	const op = "shortener.repo.ListByOwner"

	rows, err := r.db.Query(ctx, listByOwnerSQL, ownerID)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	defer rows.Close()

	return collectLinks(op, rows)
}

func collectLinks(op string, rows pgx.Rows) ([]Link, error) {
	var links []Link
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, mapRepoError(op, err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, mapRepoError(op, err)
	}
	return links, nil
}
