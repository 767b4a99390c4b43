// Package auth issues and validates the JWTs staff use to call the API.
package auth

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

// Roles a staff account can hold.
const (
	RoleAdmin = "ADMIN"
	RoleStaff = "STAFF"
)

const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

type ctxKey int

// Key is used to store/retrieve a Claims value from a context.Context.
const Key ctxKey = 1

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	UserId int    `json:"user_id"`
	Role   string `json:"role"`
	Type   string `json:"type"`
}

// Authorized returns true if the claims has at least one of the provided roles.
func (c Claims) Authorized(roles ...string) bool {
	for _, has := range roles {
		if c.Role == has {
			return true
		}
	}
	return false
}

// GetClaims returns the claims stored on ctx by the authentication middleware.
func GetClaims(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(Key).(Claims)
	return claims, ok
}

// Auth signs and verifies tokens with a shared HMAC key.
type Auth struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	method     jwt.SigningMethod
	parser     *jwt.Parser
}

func New(key string, accessTTL, refreshTTL time.Duration) (*Auth, error) {
	if len(key) < 16 {
		return nil, errors.New("jwt key must be at least 16 characters")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}

	return &Auth{
		key:        []byte(key),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		method:     jwt.SigningMethodHS256,
		parser:     &jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Name}},
	}, nil
}

// GenToken returns a fresh access/refresh pair for the staff member.
func (a *Auth) GenToken(userID int, role string) (access string, refresh string, err error) {
	now := time.Now().UTC()

	access, err = a.sign(Claims{
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(a.accessTTL).Unix(),
		},
		UserId: userID,
		Role:   role,
		Type:   TokenAccess,
	})
	if err != nil {
		return "", "", errors.Wrap(err, "signing access token")
	}

	refresh, err = a.sign(Claims{
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(a.refreshTTL).Unix(),
		},
		UserId: userID,
		Role:   role,
		Type:   TokenRefresh,
	})
	if err != nil {
		return "", "", errors.Wrap(err, "signing refresh token")
	}

	return access, refresh, nil
}

// ValidateToken verifies an access token.
func (a *Auth) ValidateToken(tokenStr string) (Claims, error) {
	return a.validate(tokenStr, TokenAccess)
}

// VerifyTokens checks that refresh is a valid refresh token issued to the same
// user as access. The access token may already be expired.
func (a *Auth) VerifyTokens(access, refresh string) (Claims, error) {
	refreshClaims, err := a.validate(refresh, TokenRefresh)
	if err != nil {
		return Claims{}, errors.Wrap(err, "refresh token")
	}

	var accessClaims Claims
	parser := &jwt.Parser{ValidMethods: a.parser.ValidMethods, SkipClaimsValidation: true}
	if _, err := parser.ParseWithClaims(access, &accessClaims, a.keyFunc); err != nil {
		return Claims{}, errors.Wrap(err, "access token")
	}

	if accessClaims.UserId != refreshClaims.UserId || accessClaims.Type != TokenAccess {
		return Claims{}, errors.New("token pair mismatch")
	}

	return refreshClaims, nil
}

func (a *Auth) validate(tokenStr, typ string) (Claims, error) {
	var claims Claims
	token, err := a.parser.ParseWithClaims(tokenStr, &claims, a.keyFunc)
	if err != nil {
		return Claims{}, errors.Wrap(err, "parsing token")
	}
	if !token.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if claims.Type != typ {
		return Claims{}, errors.Errorf("expected %s token", typ)
	}

	return claims, nil
}

func (a *Auth) sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(a.method, claims).SignedString(a.key)
}

func (a *Auth) keyFunc(t *jwt.Token) (interface{}, error) {
	if t.Method.Alg() != a.method.Alg() {
		return nil, errors.Errorf("unexpected signing method %s", t.Method.Alg())
	}
	return a.key, nil
}
