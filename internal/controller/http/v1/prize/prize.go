package prize

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"eventdesk/backend/foundation/web"
	"eventdesk/backend/internal/pkg/i18n"
	"eventdesk/backend/internal/repository/postgres/prize"
	"eventdesk/backend/internal/service"
	"eventdesk/backend/internal/service/checkin"
)

type Controller struct {
	prize    Prize
	linker   Linker
	mediaDir string
	clock    checkin.Clock
	log      *zap.Logger
}

func NewController(prize Prize, linker Linker, mediaDir string, clock checkin.Clock, log *zap.Logger) *Controller {
	if clock == nil {
		clock = checkin.SystemClock
	}
	return &Controller{prize: prize, linker: linker, mediaDir: mediaDir, clock: clock, log: log}
}

func (uc Controller) Search(c *web.Context) error {
	employeeID, ok := c.GetQueryFunc(reflect.String, "employee_id").(*string)
	if !ok || strings.TrimSpace(*employeeID) == "" {
		return c.RespondError(web.NewRequestError(errors.New("employee_id: is required"), http.StatusBadRequest))
	}

	result, err := uc.prize.Search(c.Ctx, strings.TrimSpace(*employeeID))
	if err != nil {
		return c.RespondError(uc.searchError(c, err))
	}

	if result.Redeemed() {
		return c.Respond(map[string]interface{}{
			"error":  i18n.T(c.Ctx, i18n.MsgPrizeReceived),
			"data":   uc.withLink(result),
			"status": false,
		}, http.StatusConflict)
	}

	return c.Respond(map[string]interface{}{
		"data":   result,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) Redeem(c *web.Context) error {
	var data prize.RedeemRequest

	if err := c.BindFunc(&data, "EmployeeID", "PrizeID", "Photo"); err != nil {
		return c.RespondError(err)
	}
	data.EmployeeID = strings.TrimSpace(data.EmployeeID)
	data.PrizeID = strings.TrimSpace(data.PrizeID)

	current, err := uc.prize.Search(c.Ctx, data.EmployeeID)
	if err != nil {
		return c.RespondError(uc.searchError(c, err))
	}
	if current.PrizeID != data.PrizeID {
		return c.RespondError(web.NewRequestError(errors.New(i18n.T(c.Ctx, i18n.MsgNoPrize)), http.StatusBadRequest))
	}
	if current.Redeemed() {
		return c.RespondError(web.NewRequestError(errors.New(i18n.T(c.Ctx, i18n.MsgPrizeRedeemed)), http.StatusConflict))
	}

	at := uc.clock.Now()

	path, err := service.SavePhoto(uc.mediaDir, data.Photo, data.EmployeeID, data.PrizeID, at)
	if errors.Is(err, service.ErrInvalidPhoto) {
		return c.RespondError(web.NewRequestError(errors.New(i18n.T(c.Ctx, i18n.MsgInvalidPhoto)), http.StatusBadRequest))
	}
	if err != nil {
		return c.RespondError(web.NewRequestError(errors.Wrap(err, "saving photo"), http.StatusInternalServerError))
	}

	response, err := uc.prize.Redeem(c.Ctx, data.EmployeeID, data.PrizeID, path, at)
	if err != nil {
		if rmErr := service.RemovePhoto(uc.mediaDir, path); rmErr != nil {
			uc.log.Warn("removing orphan photo", zap.String("path", path), zap.Error(rmErr))
		}
		if errors.Is(err, prize.ErrRedeemed) {
			return c.RespondError(web.NewRequestError(errors.New(i18n.T(c.Ctx, i18n.MsgPrizeRedeemed)), http.StatusConflict))
		}
		return c.RespondError(err)
	}

	result := map[string]interface{}{
		"redemption": response,
	}
	if link, err := uc.linker.Hash(path); err == nil {
		result["photo_link"] = "/media/" + link
	}

	return c.Respond(map[string]interface{}{
		"data":   result,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) searchError(c *web.Context, err error) error {
	switch {
	case errors.Is(err, prize.ErrNoPrize):
		return web.NewRequestError(errors.New(i18n.T(c.Ctx, i18n.MsgNoPrize)), http.StatusNotFound)
	case errors.Is(err, prize.ErrPrizeMissing):
		return web.NewRequestError(errors.New(i18n.T(c.Ctx, i18n.MsgPrizeMissing)), http.StatusNotFound)
	default:
		return err
	}
}

func (uc Controller) withLink(result prize.SearchResponse) map[string]interface{} {
	data := map[string]interface{}{
		"employee_id":         result.EmployeeID,
		"prize_id":            result.PrizeID,
		"redeemed_at":         result.RedeemedAt,
		"redeemed_photo_path": result.RedemptionPhotoPath,
	}

	if result.RedemptionPhotoPath != nil {
		if link, err := uc.linker.Hash(*result.RedemptionPhotoPath); err == nil {
			data["photo_link"] = "/media/" + link
		}
	}

	return data
}
