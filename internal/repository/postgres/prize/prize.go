package prize

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"eventdesk/backend/internal/entity"
	"eventdesk/backend/internal/pkg/repository/postgresql"
)

var (
	ErrNoPrize      = errors.New("no prize for employee")
	ErrPrizeMissing = errors.New("prize details not found")
	ErrRedeemed     = errors.New("prize already redeemed")
)

type Repository struct {
	*postgresql.Database
}

func NewRepository(database *postgresql.Database) *Repository {
	return &Repository{Database: database}
}

// Search returns the prize won by employeeID together with its redemption
// state. Prize details are only loaded while the prize is still pending.
func (r Repository) Search(ctx context.Context, employeeID string) (SearchResponse, error) {
	if _, err := r.CheckClaims(ctx); err != nil {
		return SearchResponse{}, err
	}

	var winner entity.Winner
	err := r.NewSelect().Model(&winner).Where("employee_id = ?", strings.TrimSpace(employeeID)).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return SearchResponse{}, ErrNoPrize
	}
	if err != nil {
		return SearchResponse{}, errors.Wrap(err, "selecting winner")
	}

	response := SearchResponse{
		EmployeeID:          winner.EmployeeID,
		PrizeID:             winner.PrizeID,
		RedemptionStatus:    winner.RedemptionStatus,
		RedeemedAt:          winner.RedeemedAt,
		RedemptionPhotoPath: winner.RedemptionPhotoPath,
	}
	if response.Redeemed() {
		return response, nil
	}

	var detail entity.Prize
	err = r.NewSelect().Model(&detail).Where("id = ?", winner.PrizeID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return response, ErrPrizeMissing
	}
	if err != nil {
		return SearchResponse{}, errors.Wrap(err, "selecting prize")
	}

	response.Name = detail.Name
	response.Description = detail.Description

	return response, nil
}

// Redeem marks the prize as handed over. Only a pending row is updated, so
// two concurrent redemptions cannot both succeed.
func (r Repository) Redeem(ctx context.Context, employeeID, prizeID, photoPath string, at time.Time) (RedeemResponse, error) {
	claims, err := r.CheckClaims(ctx)
	if err != nil {
		return RedeemResponse{}, err
	}

	res, err := r.NewUpdate().
		Model((*entity.Winner)(nil)).
		Set("redemption_status = ?", entity.RedemptionRedeemed).
		Set("redeemed_at = ?", at).
		Set("redemption_photo_path = ?", photoPath).
		Set("redeemed_by_staff = ?", claims.UserId).
		Where("employee_id = ?", employeeID).
		Where("prize_id = ?", prizeID).
		Where("redemption_status <> ?", entity.RedemptionRedeemed).
		Exec(ctx)
	if err != nil {
		return RedeemResponse{}, errors.Wrap(err, "updating winner")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return RedeemResponse{}, errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return RedeemResponse{}, ErrRedeemed
	}

	return RedeemResponse{
		EmployeeID:          employeeID,
		PrizeID:             prizeID,
		RedeemedAt:          at,
		RedemptionPhotoPath: photoPath,
	}, nil
}
