package auth

import (
	"net/http"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"eventdesk/backend/foundation/web"
	"eventdesk/backend/internal/auth"
	"eventdesk/backend/internal/repository/postgres/staff"
)

type Controller struct {
	staff Staff
	auth  *auth.Auth
}

func NewController(staff Staff, a *auth.Auth) *Controller {
	return &Controller{staff: staff, auth: a}
}

func (uc Controller) SignIn(c *web.Context) error {
	var data staff.SignInRequest

	if err := c.BindFunc(&data, "Email", "Password"); err != nil {
		return c.RespondError(err)
	}

	detail, err := uc.staff.GetByEmail(c.Ctx, data.Email)
	if err != nil {
		return c.RespondError(err)
	}

	if detail.Password == nil || detail.Role == nil {
		return c.RespondError(web.NewRequestError(errors.New("staff account is not activated"), http.StatusUnauthorized))
	}

	if err = bcrypt.CompareHashAndPassword([]byte(*detail.Password), []byte(data.Password)); err != nil {
		return c.RespondError(web.NewRequestError(errors.New("incorrect email or password"), http.StatusUnauthorized))
	}

	accessToken, refreshToken, err := uc.auth.GenToken(detail.ID, *detail.Role)
	if err != nil {
		return c.RespondError(web.NewRequestError(errors.Wrap(err, "generating tokens"), http.StatusInternalServerError))
	}

	return c.Respond(map[string]interface{}{
		"status": true,
		"data": map[string]interface{}{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
			"role":          *detail.Role,
			"full_name":     detail.FullName,
		},
		"error": nil,
	}, http.StatusOK)
}

func (uc Controller) RefreshToken(c *web.Context) error {
	var data staff.RefreshTokenRequest

	if err := c.BindFunc(&data, "AccessToken", "RefreshToken"); err != nil {
		return c.RespondError(err)
	}

	claims, err := uc.auth.VerifyTokens(data.AccessToken, data.RefreshToken)
	if err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusUnauthorized))
	}

	accessToken, refreshToken, err := uc.auth.GenToken(claims.UserId, claims.Role)
	if err != nil {
		return c.RespondError(web.NewRequestError(errors.Wrap(err, "generating new tokens"), http.StatusInternalServerError))
	}

	return c.Respond(map[string]interface{}{
		"status": true,
		"data": map[string]string{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
		},
		"error": nil,
	}, http.StatusOK)
}
