package entity

import (
	"github.com/uptrace/bun"
)

type Employee struct {
	bun.BaseModel `bun:"table:employees"`

	BasicEntity
	EmployeeID string  `json:"employee_id" bun:"employee_id,notnull"`
	FullName   *string `json:"full_name"   bun:"full_name"`
	Department *string `json:"department"  bun:"department"`
}
