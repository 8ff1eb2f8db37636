package user

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

var (
	NowFunc = time.Now // mockable

	ErrInvalidToken = errors.New("invalid token")
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Name        string   `json:"name,omitempty"`
	Username    string   `json:"username,omitempty"`
	Email       string   `json:"email,omitempty"`
	IsAdmin     bool     `json:"is_admin,omitempty"` // -> ADMIN PORTAL
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// NewClaims returns the claims of usr, valid for ttl.
func NewClaims(usr User, issuer string, ttl time.Duration) *Claims {
	now := NowFunc()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    issuer,
			Subject:   usr.ID,
			Audience:  "Campus",
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:        usr.Name,
		Username:    usr.Username,
		Email:       usr.Email,
		IsAdmin:     usr.IsAdmin(),
		Roles:       usr.Roles,
		Permissions: usr.Permissions,
	}
}

// User returns the user described by the claims.
func (c *Claims) User() *User {
	return &User{
		ID:          c.Subject,
		Name:        c.Name,
		Username:    c.Username,
		Email:       c.Email,
		Roles:       c.Roles,
		Permissions: c.Permissions,
	}
}

// SignToken generates a signed HS256 JWT token string representing the claims.
func SignToken(claims *Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// ParseToken reads the claims of a token.
// With an empty secret the signature is not verified: the console only reads the
// claims the API issued, the API remains the one enforcing them.
func ParseToken(tokenStr, secret string) (*Claims, error) {
	claims := new(Claims)
	if secret == "" {
		if _, _, err := new(jwt.Parser).ParseUnverified(tokenStr, claims); err != nil {
			return nil, errors.Wrap(ErrInvalidToken, err.Error())
		}
		if err := claims.Valid(); err != nil {
			return nil, errors.Wrap(ErrInvalidToken, err.Error())
		}
		return claims, nil
	}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		msg := "token not valid"
		if err != nil {
			msg = err.Error()
		}
		return nil, errors.Wrap(ErrInvalidToken, msg)
	}
	return claims, nil
}

// FromToken returns the current user described by a bearer token.
func FromToken(tokenStr, secret string) (*User, error) {
	claims, err := ParseToken(tokenStr, secret)
	if err != nil {
		return nil, err
	}
	return claims.User(), nil
}
