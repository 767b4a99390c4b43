package employee

import (
	"context"

	"eventdesk/backend/internal/entity"
	"eventdesk/backend/internal/repository/postgres/employee"
)

type Employee interface {
	Import(ctx context.Context, rows []employee.ImportRow) (employee.ImportResponse, error)
	GetByEmployeeID(ctx context.Context, employeeID string) (entity.Employee, error)
	GetList(ctx context.Context, filter employee.Filter) ([]employee.GetListResponse, int, error)
	All(ctx context.Context) ([]entity.Employee, error)
}
