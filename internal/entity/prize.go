package entity

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	RedemptionPending  = "pending"
	RedemptionRedeemed = "redeemed"
)

type Prize struct {
	bun.BaseModel `bun:"table:prizes"`

	ID          string  `json:"id"          bun:"id,pk"`
	Name        string  `json:"name"        bun:"name,notnull"`
	Description *string `json:"description" bun:"description"`
}

// Winner links an employee to the prize they won and tracks redemption.
type Winner struct {
	bun.BaseModel `bun:"table:winners"`

	ID                  int        `json:"id"                    bun:"id,pk,autoincrement"`
	EmployeeID          string     `json:"employee_id"           bun:"employee_id,notnull"`
	PrizeID             string     `json:"prize_id"              bun:"prize_id,notnull"`
	RedemptionStatus    string     `json:"redemption_status"     bun:"redemption_status,notnull"`
	RedeemedAt          *time.Time `json:"redeemed_at"           bun:"redeemed_at"`
	RedemptionPhotoPath *string    `json:"redemption_photo_path" bun:"redemption_photo_path"`
	RedeemedByStaff     *int       `json:"redeemed_by_staff"     bun:"redeemed_by_staff"`
}
