package staff

import (
	"github.com/uptrace/bun"
)

type Filter struct {
	Limit  *int
	Offset *int
	Page   *int
	Search *string
}

type SignInRequest struct {
	Email    string `json:"email"    form:"email"`
	Password string `json:"password" form:"password"`
}

type RefreshTokenRequest struct {
	AccessToken  string `json:"access_token"  form:"access_token"`
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

type GetListResponse struct {
	ID       int     `json:"id"`
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	Role     *string `json:"role"`
}

type CreateRequest struct {
	Email    *string `json:"email"     form:"email"`
	Password *string `json:"password"  form:"password"`
	FullName *string `json:"full_name" form:"full_name"`
	Role     *string `json:"role"      form:"role"`
}

type CreateResponse struct {
	bun.BaseModel `bun:"table:staff"`

	ID       int     `json:"id"        bun:"id,pk,autoincrement"`
	Email    *string `json:"email"     bun:"email"`
	FullName *string `json:"full_name" bun:"full_name"`
	Password *string `json:"-"         bun:"password"`
	Role     *string `json:"role"      bun:"role"`
}
