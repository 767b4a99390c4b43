package staff

import (
	"context"

	"eventdesk/backend/internal/repository/postgres/staff"
)

type Staff interface {
	GetList(ctx context.Context, filter staff.Filter) ([]staff.GetListResponse, int, error)
	Create(ctx context.Context, request staff.CreateRequest) (staff.CreateResponse, error)
	Delete(ctx context.Context, id int) error
}
