package prize

import (
	"time"

	"eventdesk/backend/internal/entity"
)

type SearchResponse struct {
	EmployeeID          string     `json:"employee_id"`
	PrizeID             string     `json:"prize_id"`
	Name                string     `json:"name"`
	Description         *string    `json:"description"`
	RedemptionStatus    string     `json:"redemption_status"`
	RedeemedAt          *time.Time `json:"redeemed_at,omitempty"`
	RedemptionPhotoPath *string    `json:"redeemed_photo_path,omitempty"`
}

// Redeemed reports whether the prize was already handed over.
func (s SearchResponse) Redeemed() bool {
	return s.RedemptionStatus == entity.RedemptionRedeemed
}

type RedeemRequest struct {
	EmployeeID string `json:"employee_id" form:"employee_id"`
	PrizeID    string `json:"prize_id"    form:"prize_id"`
	Photo      string `json:"photo"       form:"photo"`
}

type RedeemResponse struct {
	EmployeeID          string    `json:"employee_id"`
	PrizeID             string    `json:"prize_id"`
	RedeemedAt          time.Time `json:"redeemed_at"`
	RedemptionPhotoPath string    `json:"redeemed_photo_path"`
}
