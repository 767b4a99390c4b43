// Package hashing issues and opens expiring links to stored media files.
package hashing

import (
	"path"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

var (
	ErrIncorrectLink = errors.New("incorrect link")
	ErrExpiredLink   = errors.New("expired link")
)

type linkClaims struct {
	jwt.StandardClaims
	Path string `json:"p"`
}

type Signer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewSigner(key string, ttl time.Duration) *Signer {
	return &Signer{key: []byte(key), ttl: ttl, now: time.Now}
}

// Hash returns a token granting access to file until the signer's ttl
// elapses.
func (s *Signer) Hash(file string) (string, error) {
	file = Clean(file)
	if file == "" {
		return "", ErrIncorrectLink
	}

	claims := linkClaims{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: s.now().Add(s.ttl).Unix(),
			Subject:   "media",
		},
		Path: file,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", errors.Wrap(err, "signing link")
	}

	return token, nil
}

// OpenHash verifies token and returns the file it grants access to.
func (s *Signer) OpenHash(token string) (string, error) {
	var claims linkClaims

	parser := jwt.Parser{SkipClaimsValidation: true}
	_, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrIncorrectLink
		}
		return s.key, nil
	})
	if err != nil || claims.Subject != "media" {
		return "", ErrIncorrectLink
	}

	if !claims.VerifyExpiresAt(s.now().Unix(), true) {
		return "", ErrExpiredLink
	}

	file := Clean(claims.Path)
	if file == "" {
		return "", ErrIncorrectLink
	}

	return file, nil
}

// Clean normalises a media path relative to the media root and rejects
// paths escaping it.
func Clean(file string) string {
	p := path.Clean("/" + strings.TrimSpace(file))
	if p == "/" {
		return ""
	}
	return strings.TrimPrefix(p, "/")
}
