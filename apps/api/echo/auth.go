package echoapi

import (
	"net/http"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/trezcool/campus/core/user"
)

const (
	contextTokenKey = "userToken"
	contextGateKey  = "gate"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound  = echo.NewHTTPError(http.StatusNotFound, "not found")
)

func newJWTConfig(secret string) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(secret),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(user.Claims),
	}
}

func getContextClaims(ctx echo.Context) (*user.Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*user.Claims); ok {
			return claims, nil
		}
	}
	return nil, errUnauthorized
}

// getContextGate returns the permission gate of the authenticated user, built once per request.
func getContextGate(ctx echo.Context) (user.Gate, error) {
	if gate, ok := ctx.Get(contextGateKey).(user.Gate); ok {
		return gate, nil
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.Gate{}, err
	}
	gate := user.NewGate(claims.User())
	ctx.Set(contextGateKey, gate)
	return gate, nil
}
