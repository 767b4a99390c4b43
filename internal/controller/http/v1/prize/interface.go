package prize

import (
	"context"
	"time"

	"eventdesk/backend/internal/repository/postgres/prize"
)

type Prize interface {
	Search(ctx context.Context, employeeID string) (prize.SearchResponse, error)
	Redeem(ctx context.Context, employeeID, prizeID, photoPath string, at time.Time) (prize.RedeemResponse, error)
}

// Linker issues expiring links to stored media.
type Linker interface {
	Hash(file string) (string, error)
}
