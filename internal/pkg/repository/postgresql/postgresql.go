// Package postgresql opens the bun database handle that every repository
// embeds and provides the helpers they share.
package postgresql

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"eventdesk/backend/foundation/web"
	"eventdesk/backend/internal/auth"
)

// SQLSTATE codes the repositories branch on.
const (
	CodeUniqueViolation = "23505"
)

type Config struct {
	User       string
	Password   string
	Host       string
	Port       string
	Name       string
	DisableTLS bool
	Debug      bool
}

type Database struct {
	*bun.DB
}

// New opens the connection pool and verifies it with a ping.
func New(ctx context.Context, cfg Config) (*Database, error) {
	connector := pgdriver.NewConnector(
		pgdriver.WithAddr(net.JoinHostPort(cfg.Host, cfg.Port)),
		pgdriver.WithUser(cfg.User),
		pgdriver.WithPassword(cfg.Password),
		pgdriver.WithDatabase(cfg.Name),
		pgdriver.WithInsecure(cfg.DisableTLS),
		pgdriver.WithTimeout(5*time.Second),
	)

	sqldb := sql.OpenDB(connector)
	sqldb.SetMaxOpenConns(25)
	sqldb.SetMaxIdleConns(5)
	sqldb.SetConnMaxLifetime(time.Hour)

	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "pinging database")
	}

	return &Database{DB: db}, nil
}

// CheckClaims returns the caller's claims, failing with 401 when none are on
// ctx and 403 when the caller lacks every listed role.
func (d Database) CheckClaims(ctx context.Context, roles ...string) (auth.Claims, error) {
	claims, ok := auth.GetClaims(ctx)
	if !ok {
		return auth.Claims{}, web.NewRequestError(errors.New("claims missing from context"), http.StatusUnauthorized)
	}

	if len(roles) > 0 && !claims.Authorized(roles...) {
		return auth.Claims{}, web.NewRequestError(errors.New("attempted action is not allowed"), http.StatusForbidden)
	}

	return claims, nil
}

// ValidateStruct checks the named fields of request are set.
func (d Database) ValidateStruct(request interface{}, fields ...string) error {
	return web.ValidateFields(request, fields...)
}

// DeleteRow hard deletes the row with the given key column value.
func (d Database) DeleteRow(ctx context.Context, table, column string, value interface{}) (int64, error) {
	res, err := d.NewDelete().
		Table(table).
		Where("? = ?", bun.Ident(column), value).
		Exec(ctx)
	if err != nil {
		return 0, web.NewRequestError(errors.Wrapf(err, "deleting %s", table), http.StatusInternalServerError)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "rows affected")
	}

	return n, nil
}

// IsUniqueViolation reports whether err carries SQLSTATE 23505.
func IsUniqueViolation(err error) bool {
	return Code(err) == CodeUniqueViolation
}

// Code extracts the SQLSTATE from a pgdriver error, "" otherwise.
func Code(err error) string {
	if err == nil {
		return ""
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C')
	}

	return ""
}
