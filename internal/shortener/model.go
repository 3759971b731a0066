package shortener

import (
	"time"

	"github.com/google/uuid"
)

type Link struct {
	ID            uuid.UUID
	ShortCode     string
	LongURL       string
	IsCustom      bool
	OwnerID       *int64
	Clicks        int64
	Disabled      bool
	DisableReason *string
	DisabledAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
