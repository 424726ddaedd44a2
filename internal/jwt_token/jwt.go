package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "inheritx/pkg/domain"
	dErrors "inheritx/pkg/domain-errors"
)

// Claims carries the caller identity. The signing layer is trusted as given:
// whoever holds a token for an address acts as that address.
type Claims struct {
	Caller string `json:"caller"`
	jwt.RegisteredClaims
}

// JWTService handles JWT creation and validation
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
	now        func() time.Time
}

func NewJWTService(signingKey string, issuer string, audience string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		now:        time.Now,
	}
}

func (s *JWTService) GenerateAccessToken(caller id.Address, expiresIn time.Duration) (string, error) {
	if caller.IsZero() {
		return "", dErrors.New(dErrors.CodeBadRequest, "caller address is required")
	}
	now := s.now()
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Caller: caller.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signedToken, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			return s.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// CallerFromToken validates the token and returns the caller address.
func (s *JWTService) CallerFromToken(tokenString string) (id.Address, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return id.Address{}, err
	}
	return claims.caller()
}

// caller parses the caller claim. A token minted for the zero address, or
// whose subject names someone else, is rejected even when correctly signed.
func (c *Claims) caller() (id.Address, error) {
	invalid := dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	addr, err := id.ParseAddress(c.Caller)
	if err != nil || addr.IsZero() {
		return id.Address{}, invalid
	}
	if c.Subject != "" {
		if sub, err := id.ParseAddress(c.Subject); err != nil || sub != addr {
			return id.Address{}, invalid
		}
	}
	return addr, nil
}
