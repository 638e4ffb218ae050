package utils

import (
	"errors"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// TokenData carries the caller identity asserted by the voice bridge.
// The phone number doubles as the customer identifier.
type TokenData struct {
	PhoneNumber string
}

var ErrNoToken = errors.New("no bearer token present")

// ParseTokenDataCtx extracts and verifies the bridge token from the
// Authorization header. Returns ErrNoToken when the header is absent so
// callers can distinguish "anonymous" from "forged".
func ParseTokenDataCtx(c echo.Context) (*TokenData, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return nil, ErrNoToken
	}

	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil, errors.New("authorization header is not a bearer token")
	}
	return ParseTokenData(raw)
}

func ParseTokenData(raw string) (*TokenData, error) {
	secret := os.Getenv("BRIDGE_TOKEN_SECRET")
	if secret == "" {
		return nil, errors.New("BRIDGE_TOKEN_SECRET is not configured")
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("unexpected claims type")
	}

	phone, _ := claims["phone_number"].(string)
	if phone == "" {
		return nil, errors.New("token has no phone_number claim")
	}
	return &TokenData{PhoneNumber: phone}, nil
}
