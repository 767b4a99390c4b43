package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Registration is one participant check-in. employee_id is unique.
type Registration struct {
	bun.BaseModel `bun:"table:registrations"`

	ID           int       `json:"id"            bun:"id,pk,autoincrement"`
	EmployeeID   string    `json:"employee_id"   bun:"employee_id,notnull"`
	FullName     *string   `json:"full_name"     bun:"full_name"`
	Department   *string   `json:"department"    bun:"department"`
	Session      string    `json:"session"       bun:"session,notnull"`
	RegisteredAt time.Time `json:"registered_at" bun:"registered_at,notnull"`
	RegisteredBy *int      `json:"registered_by" bun:"registered_by"`
}
