package registration

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"eventdesk/backend/foundation/web"
	"eventdesk/backend/internal/auth"
	"eventdesk/backend/internal/entity"
	"eventdesk/backend/internal/pkg/repository/postgresql"
	"eventdesk/backend/internal/repository/postgres"
	"eventdesk/backend/internal/service/checkin"
)

type Repository struct {
	*postgresql.Database
	loc *time.Location
}

func NewRepository(database *postgresql.Database, loc *time.Location) *Repository {
	return &Repository{Database: database, loc: loc}
}

// Insert writes a new registration. The UNIQUE constraint on employee_id
// rejects a second registration with checkin.ErrDuplicate.
func (r Repository) Insert(ctx context.Context, rec checkin.Record) error {
	row := entity.Registration{
		EmployeeID:   rec.EmployeeID,
		FullName:     nullable(rec.FullName),
		Department:   nullable(rec.Department),
		Session:      string(rec.Session),
		RegisteredAt: rec.RegisteredAt,
	}

	if claims, err := r.CheckClaims(ctx); err == nil {
		row.RegisteredBy = &claims.UserId
	}

	_, err := r.NewInsert().Model(&row).Returning("id").Exec(ctx)
	if postgresql.IsUniqueViolation(err) {
		return errors.Wrapf(checkin.ErrDuplicate, "employee %s", rec.EmployeeID)
	}
	if err != nil {
		return errors.Wrap(err, "creating registration")
	}

	return nil
}

func (r Repository) GetByEmployeeID(ctx context.Context, employeeID string) (checkin.Record, error) {
	var row entity.Registration

	err := r.NewSelect().Model(&row).Where("employee_id = ?", employeeID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return checkin.Record{}, checkin.ErrNotFound
	}
	if err != nil {
		return checkin.Record{}, errors.Wrap(err, "selecting registration")
	}

	return toRecord(row), nil
}

func (r Repository) GetList(ctx context.Context, filter Filter) ([]GetListResponse, int, error) {
	if _, err := r.CheckClaims(ctx); err != nil {
		return nil, 0, err
	}

	var rows []entity.Registration
	q := r.NewSelect().Model(&rows)

	if filter.Search != nil {
		search := "%" + strings.TrimSpace(*filter.Search) + "%"
		q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("employee_id ILIKE ?", search).WhereOr("full_name ILIKE ?", search)
		})
	}
	if filter.Session != nil {
		if !checkin.Session(*filter.Session).Valid() {
			return nil, 0, web.NewRequestError(errors.Errorf("unknown session %q", *filter.Session), http.StatusBadRequest)
		}
		q.Where("session = ?", *filter.Session)
	}
	if filter.Date != nil {
		from, to := r.dayBounds(time.Date(filter.Date.Year(), filter.Date.Month(), filter.Date.Day(), 12, 0, 0, 0, r.loc))
		q.Where("registered_at >= ? AND registered_at < ?", from, to)
	}

	q.Order("registered_at DESC")

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

	count, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, web.NewRequestError(errors.Wrap(err, "selecting registrations"), http.StatusInternalServerError)
	}

	list := make([]GetListResponse, 0, len(rows))
	for _, row := range rows {
		at := row.RegisteredAt.In(r.loc)
		list = append(list, GetListResponse{
			ID:           row.ID,
			EmployeeID:   row.EmployeeID,
			FullName:     row.FullName,
			Department:   row.Department,
			Session:      row.Session,
			WorkDay:      at.Format("2006-01-02"),
			RegisteredAt: at.Format(checkin.TimeLayout),
			RegisteredBy: row.RegisteredBy,
		})
	}

	return list, count, nil
}

// CountBySession counts registrations made on the business day containing day.
func (r Repository) CountBySession(ctx context.Context, day time.Time) (map[checkin.Session]int, error) {
	from, to := r.dayBounds(day)

	var rows []struct {
		Session string `bun:"session"`
		Count   int    `bun:"count"`
	}
	err := r.NewSelect().
		Table("registrations").
		Column("session").
		ColumnExpr("count(*) AS count").
		Where("registered_at >= ? AND registered_at < ?", from, to).
		Group("session").
		Scan(ctx, &rows)
	if err != nil {
		return nil, web.NewRequestError(errors.Wrap(err, "counting registrations"), http.StatusInternalServerError)
	}

	counts := make(map[checkin.Session]int, len(checkin.Sessions))
	for _, s := range checkin.Sessions {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[checkin.Session(row.Session)] = row.Count
	}

	return counts, nil
}

// Delete removes the registration so the employee can be scanned again.
func (r Repository) Delete(ctx context.Context, employeeID string) (checkin.Record, error) {
	if _, err := r.CheckClaims(ctx, auth.RoleAdmin); err != nil {
		return checkin.Record{}, err
	}

	rec, err := r.GetByEmployeeID(ctx, employeeID)
	if errors.Is(err, checkin.ErrNotFound) {
		return checkin.Record{}, web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
	}
	if err != nil {
		return checkin.Record{}, web.NewRequestError(err, http.StatusInternalServerError)
	}

	n, err := r.DeleteRow(ctx, "registrations", "employee_id", employeeID)
	if err != nil {
		return checkin.Record{}, err
	}
	if n == 0 {
		return checkin.Record{}, web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
	}

	return rec, nil
}

func (r Repository) dayBounds(day time.Time) (time.Time, time.Time) {
	local := day.In(r.loc)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.loc)
	return from, from.AddDate(0, 0, 1)
}

func toRecord(row entity.Registration) checkin.Record {
	rec := checkin.Record{
		EmployeeID:   row.EmployeeID,
		Session:      checkin.Session(row.Session),
		RegisteredAt: row.RegisteredAt,
	}
	if row.FullName != nil {
		rec.FullName = *row.FullName
	}
	if row.Department != nil {
		rec.Department = *row.Department
	}
	return rec
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
