package staff

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

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

func (r Repository) GetByEmail(ctx context.Context, email string) (entity.Staff, error) {
	var detail entity.Staff

	err := r.NewSelect().Model(&detail).Where("lower(email) = lower(?)", strings.TrimSpace(email)).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Staff{}, web.NewRequestError(errors.New("staff not found"), http.StatusUnauthorized)
	}
	if err != nil {
		return entity.Staff{}, web.NewRequestError(errors.Wrap(err, "selecting staff"), http.StatusInternalServerError)
	}

	return detail, nil
}

func (r Repository) GetList(ctx context.Context, filter Filter) ([]GetListResponse, int, error) {
	if _, err := r.CheckClaims(ctx, auth.RoleAdmin); err != nil {
		return nil, 0, err
	}

	var rows []entity.Staff
	q := r.NewSelect().Model(&rows)

	if filter.Search != nil {
		search := "%" + strings.TrimSpace(*filter.Search) + "%"
		q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("email ILIKE ?", search).WhereOr("full_name ILIKE ?", search)
		})
	}

	q.Order("created_at DESC")

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
		return nil, 0, web.NewRequestError(errors.Wrap(err, "selecting staff"), http.StatusInternalServerError)
	}

	list := make([]GetListResponse, 0, len(rows))
	for _, row := range rows {
		list = append(list, GetListResponse{
			ID:       row.ID,
			Email:    row.Email,
			FullName: row.FullName,
			Role:     row.Role,
		})
	}

	return list, count, nil
}

func (r Repository) Create(ctx context.Context, request CreateRequest) (CreateResponse, error) {
	if _, err := r.CheckClaims(ctx, auth.RoleAdmin); err != nil {
		return CreateResponse{}, err
	}

	if err := r.ValidateStruct(&request, "Email", "Password", "Role"); err != nil {
		return CreateResponse{}, err
	}

	role := strings.ToUpper(strings.TrimSpace(*request.Role))
	if role != auth.RoleAdmin && role != auth.RoleStaff {
		return CreateResponse{}, web.NewRequestError(errors.New("incorrect role. role should be STAFF or ADMIN"), http.StatusBadRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*request.Password), bcrypt.DefaultCost)
	if err != nil {
		return CreateResponse{}, web.NewRequestError(errors.Wrap(err, "hashing password"), http.StatusInternalServerError)
	}
	hashed := string(hash)
	email := strings.ToLower(strings.TrimSpace(*request.Email))

	response := CreateResponse{
		Email:    &email,
		FullName: request.FullName,
		Password: &hashed,
		Role:     &role,
	}

	_, err = r.NewInsert().Model(&response).Returning("id").Exec(ctx, &response.ID)
	if postgresql.IsUniqueViolation(err) {
		return CreateResponse{}, web.NewRequestError(errors.New("email is used"), http.StatusBadRequest)
	}
	if err != nil {
		return CreateResponse{}, web.NewRequestError(errors.Wrap(err, "creating staff"), http.StatusInternalServerError)
	}

	response.Password = nil

	return response, nil
}

func (r Repository) Delete(ctx context.Context, id int) error {
	claims, err := r.CheckClaims(ctx, auth.RoleAdmin)
	if err != nil {
		return err
	}
	if claims.UserId == id {
		return web.NewRequestError(errors.New("cannot delete yourself"), http.StatusBadRequest)
	}

	n, err := r.DeleteRow(ctx, "staff", "id", id)
	if err != nil {
		return err
	}
	if n == 0 {
		return web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
	}

	return nil
}
