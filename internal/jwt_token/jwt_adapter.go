package jwttoken

import (
	"refdata/internal/platform/middleware"
)

func ToMiddlewareClaims(claims *Claims) *middleware.TokenClaims {
	return &middleware.TokenClaims{
		Subject: claims.Subject,
		Scopes:  claims.Scopes(),
		TokenID: claims.ID,
	}
}

// JWTServiceAdapter lets the write guard validate tokens with a JWTService.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.TokenClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
