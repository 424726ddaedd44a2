package jwttoken

import (
	"inheritx/internal/platform/middleware"
)

func ToMiddlewareClaims(claims *Claims) (*middleware.JWTClaims, error) {
	caller, err := claims.caller()
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		Caller: caller,
		JTI:    claims.ID,
	}, nil
}

// JWTServiceAdapter lets RequireAuth validate tokens without importing jwt.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims)
}
