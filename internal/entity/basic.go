package entity

import "time"

type BasicEntity struct {
	ID        int        `json:"id"         bun:"id,pk,autoincrement"`
	CreatedAt time.Time  `json:"created_at" bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt *time.Time `json:"updated_at" bun:"updated_at"`
}
