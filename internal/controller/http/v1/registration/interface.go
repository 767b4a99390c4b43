package registration

import (
	"context"
	"time"

	"eventdesk/backend/internal/repository/postgres/registration"
	"eventdesk/backend/internal/service/checkin"
)

type Reconciler interface {
	CheckIn(ctx context.Context, raw string) checkin.Outcome
}

type Registration interface {
	GetList(ctx context.Context, filter registration.Filter) ([]registration.GetListResponse, int, error)
	CountBySession(ctx context.Context, day time.Time) (map[checkin.Session]int, error)
	Delete(ctx context.Context, employeeID string) (checkin.Record, error)
}

type Stats interface {
	Counts(ctx context.Context, day time.Time) (map[checkin.Session]int, error)
	Unregistered(ctx context.Context, rec checkin.Record) error
	Seed(ctx context.Context, day time.Time, counts map[checkin.Session]int) error
}
