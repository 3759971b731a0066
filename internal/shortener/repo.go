package shortener

import "context"

// Repository defines the persistence operations for Link entities.
// It abstracts the underlying data store and is responsible for
// creating, retrieving, updating, and deleting links, as well as
// maintaining the click counter.
type Repository interface {
	Create(ctx context.Context, link Link) (Link, error)
	GetByShortCode(ctx context.Context, code string) (Link, error)
	IncrementClicks(ctx context.Context, code string) error
	Disable(ctx context.Context, code, reason string) (Link, error)
	Enable(ctx context.Context, code string) (Link, error)
	Delete(ctx context.Context, code string) error
	TopByClicks(ctx context.Context, limit int) ([]Link, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]Link, error)
}
