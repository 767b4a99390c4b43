package entity

import (
	"github.com/uptrace/bun"
)

type Staff struct {
	bun.BaseModel `bun:"table:staff"`

	BasicEntity
	Email    *string `json:"email"     bun:"email"`
	FullName *string `json:"full_name" bun:"full_name"`
	Password *string `json:"-"         bun:"password"`
	Role     *string `json:"role"      bun:"role"`
}
