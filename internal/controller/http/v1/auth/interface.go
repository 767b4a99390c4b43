package auth

import (
	"context"

	"eventdesk/backend/internal/entity"
)

type Staff interface {
	GetByEmail(ctx context.Context, email string) (entity.Staff, error)
}
