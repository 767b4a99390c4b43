package commands

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"eventdesk/backend/internal/auth"
	"eventdesk/backend/internal/pkg/repository/postgresql"
)

// ErrHelp provides context that help was given.
var ErrHelp = errors.New("provided help")

type Scheme struct {
	Index       int
	Description string
	Query       string
}

var scheme = []Scheme{
	{
		Index:       1,
		Description: "CREATE TYPE \"staff_role\" AS ENUM",
		Query: `
        DO $$ BEGIN
            CREATE TYPE "staff_role" AS ENUM ('ADMIN', 'STAFF');
        EXCEPTION WHEN duplicate_object THEN null;
        END $$;`,
	},
	{
		Index:       2,
		Description: "Create table: staff.",
		Query: `
        CREATE TABLE IF NOT EXISTS staff (
            id serial primary key,
            email text not null unique,
            full_name text,
            password text not null,
            role staff_role not null default 'STAFF',
            created_at timestamptz default now(),
            updated_at timestamptz
        );`,
	},
	{
		Index:       3,
		Description: "Create table: employees.",
		Query: `
        CREATE TABLE IF NOT EXISTS employees (
            id serial primary key,
            employee_id text not null unique,
            full_name text,
            department text,
            created_at timestamptz default now(),
            updated_at timestamptz
        );`,
	},
	{
		Index:       4,
		Description: "Create table: registrations.",
		Query: `
        CREATE TABLE IF NOT EXISTS registrations (
            id serial primary key,
            employee_id text not null,
            full_name text,
            department text,
            session text not null check (session in ('Day', 'Night')),
            registered_at timestamptz not null default now(),
            registered_by int references staff(id) on delete set null,
            constraint registrations_employee_id_key unique (employee_id)
        );`,
	},
	{
		Index:       5,
		Description: "Create index: registrations.registered_at.",
		Query: `
        CREATE INDEX IF NOT EXISTS registrations_registered_at_idx ON registrations (registered_at);`,
	},
	{
		Index:       6,
		Description: "Create table: prizes.",
		Query: `
        CREATE TABLE IF NOT EXISTS prizes (
            id text primary key,
            name text not null,
            description text
        );`,
	},
	{
		Index:       7,
		Description: "Create table: winners.",
		Query: `
        CREATE TABLE IF NOT EXISTS winners (
            id serial primary key,
            employee_id text not null unique,
            prize_id text not null references prizes(id),
            redemption_status text not null default 'pending' check (redemption_status in ('pending', 'redeemed')),
            redeemed_at timestamptz,
            redemption_photo_path text,
            redeemed_by_staff int references staff(id) on delete set null
        );`,
	},
}

// MigrateUP applies every scheme entry newer than the recorded version. A
// failed entry is recorded as dirty and retried on the next run.
func MigrateUP(ctx context.Context, db *postgresql.Database, log *zap.Logger) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version int not null, dirty bool not null, error text)`); err != nil {
		return errors.Wrap(err, "creating schema_migrations")
	}

	var (
		version int
		dirty   bool
		er      *string
	)
	err := db.QueryRowContext(ctx, `SELECT version, dirty, error FROM schema_migrations`).Scan(&version, &dirty, &er)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err = db.ExecContext(ctx, `INSERT INTO schema_migrations (version, dirty) VALUES (0, false)`); err != nil {
			return errors.Wrap(err, "initialising schema_migrations")
		}
		version, dirty = 0, false
	} else if err != nil {
		return errors.Wrap(err, "reading schema_migrations")
	}

	if dirty {
		log.Warn("retrying dirty migration", zap.Int("version", version), zap.Stringp("error", er))
		version--
	}

	for _, s := range pending(version) {
		if _, err := db.ExecContext(ctx, s.Query); err != nil {
			if _, uErr := db.ExecContext(ctx, `UPDATE schema_migrations SET error = ?, version = ?, dirty = true`, err.Error(), s.Index); uErr != nil {
				return errors.Wrap(uErr, "recording migration failure")
			}
			return errors.Wrapf(err, "migrate version %d (%s)", s.Index, s.Description)
		}

		if _, err := db.ExecContext(ctx, `UPDATE schema_migrations SET version = ?, dirty = false, error = null`, s.Index); err != nil {
			return errors.Wrap(err, "recording migration")
		}

		log.Info("migrated", zap.Int("version", s.Index), zap.String("description", s.Description))
	}

	return nil
}

// pending returns the scheme entries newer than version in order.
func pending(version int) []Scheme {
	var out []Scheme
	for _, s := range scheme {
		if s.Index > version {
			out = append(out, s)
		}
	}
	return out
}

// SeedAdmin creates the initial admin account when no staff with email
// exists yet.
func SeedAdmin(ctx context.Context, db *postgresql.Database, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, errors.Wrap(err, "hashing admin password")
	}

	res, err := db.ExecContext(ctx, `
        INSERT INTO staff (email, full_name, password, role)
        SELECT ?, 'Administrator', ?, ?
        WHERE NOT EXISTS (SELECT 1 FROM staff WHERE email = ?)`,
		email, string(hash), auth.RoleAdmin, email)
	if err != nil {
		return false, errors.Wrap(err, "seeding admin")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "rows affected")
	}

	return n > 0, nil
}
