package clicks

import "context"

// Repo persists click logs.
type Repo interface {
	Insert(ctx context.Context, click Click) error
}
