package employee

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"eventdesk/backend/foundation/web"
	"eventdesk/backend/internal/auth"
	"eventdesk/backend/internal/entity"
	"eventdesk/backend/internal/pkg/repository/postgresql"
	"eventdesk/backend/internal/repository/postgres"
)

type Repository struct {
	*postgresql.Database
}

func NewRepository(database *postgresql.Database) *Repository {
	return &Repository{Database: database}
}

// Import upserts rows keyed by employee_id. Rows without an id are skipped.
func (r Repository) Import(ctx context.Context, rows []ImportRow) (ImportResponse, error) {
	if _, err := r.CheckClaims(ctx, auth.RoleAdmin); err != nil {
		return ImportResponse{}, err
	}

	now := time.Now()
	models := make([]entity.Employee, 0, len(rows))
	seen := make(map[string]int, len(rows))

	for _, row := range rows {
		id := strings.TrimSpace(row.EmployeeID)
		if id == "" {
			continue
		}
		m := entity.Employee{
			EmployeeID: id,
			FullName:   nullable(row.FullName),
			Department: nullable(row.Department),
		}
		m.UpdatedAt = &now

		// ON CONFLICT cannot touch the same row twice in one statement.
		if i, ok := seen[id]; ok {
			models[i] = m
			continue
		}
		seen[id] = len(models)
		models = append(models, m)
	}

	if len(models) == 0 {
		return ImportResponse{}, web.NewRequestError(errors.New("no employees in file"), http.StatusBadRequest)
	}

	_, err := r.NewInsert().
		Model(&models).
		On("CONFLICT (employee_id) DO UPDATE").
		Set("full_name = EXCLUDED.full_name").
		Set("department = EXCLUDED.department").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return ImportResponse{}, web.NewRequestError(errors.Wrap(err, "importing employees"), http.StatusInternalServerError)
	}

	return ImportResponse{Imported: len(models)}, nil
}

func (r Repository) GetByEmployeeID(ctx context.Context, employeeID string) (entity.Employee, error) {
	if _, err := r.CheckClaims(ctx); err != nil {
		return entity.Employee{}, err
	}

	var detail entity.Employee

	err := r.NewSelect().Model(&detail).Where("employee_id = ?", strings.TrimSpace(employeeID)).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Employee{}, web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
	}
	if err != nil {
		return entity.Employee{}, web.NewRequestError(errors.Wrap(err, "selecting employee"), http.StatusInternalServerError)
	}

	return detail, nil
}

func (r Repository) GetList(ctx context.Context, filter Filter) ([]GetListResponse, int, error) {
	if _, err := r.CheckClaims(ctx); err != nil {
		return nil, 0, err
	}

	q := r.NewSelect().
		TableExpr("employees AS e").
		ColumnExpr("e.id, e.employee_id, e.full_name, e.department").
		ColumnExpr("EXISTS (SELECT 1 FROM registrations rg WHERE rg.employee_id = e.employee_id) AS registered")

	if filter.Search != nil {
		search := "%" + strings.TrimSpace(*filter.Search) + "%"
		q.Where("(e.employee_id ILIKE ? OR e.full_name ILIKE ? OR e.department ILIKE ?)", search, search, search)
	}

	q.Order("e.employee_id")

	if filter.Page != nil && filter.Limit != nil {
		offset := (*filter.Page - 1) * (*filter.Limit)
		filter.Offset = &offset
	}
	if filter.Limit != nil {
		q.Limit(*filter.Limit)
	}
	if filter.Offset != nil && *filter.Offset > 0 {
		q.Offset(*filter.Offset)
	}

	var list []GetListResponse
	count, err := q.ScanAndCount(ctx, &list)
	if err != nil {
		return nil, 0, web.NewRequestError(errors.Wrap(err, "selecting employees"), http.StatusInternalServerError)
	}

	return list, count, nil
}

// All returns every employee ordered by id, for badge printing.
func (r Repository) All(ctx context.Context) ([]entity.Employee, error) {
	if _, err := r.CheckClaims(ctx); err != nil {
		return nil, err
	}

	var list []entity.Employee
	if err := r.NewSelect().Model(&list).Order("employee_id").Scan(ctx); err != nil {
		return nil, web.NewRequestError(errors.Wrap(err, "selecting employees"), http.StatusInternalServerError)
	}

	return list, nil
}

func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
