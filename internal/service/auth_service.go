package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/servimatch/skilltest-backend/internal/config"
)

// ErrInvalidToken signals a token that failed validation for any reason.
var ErrInvalidToken = errors.New("invalid token")

// Claims carries the marketplace identity inside a JWT. Tokens are minted
// by the marketplace core; this service only validates them.
type Claims struct {
	jwt.RegisteredClaims
	ProviderID int    `json:"provider_id"`
	Role       string `json:"role"`
}

// RoleProvider is the only role allowed to take tests.
const RoleProvider = "provider"

// AuthService validates marketplace JWTs.
type AuthService struct {
	cfg *config.Config
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{cfg: cfg}
}

// ValidateToken parses and verifies a signed token string.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ProviderID <= 0 {
		return nil, fmt.Errorf("%w: missing provider id", ErrInvalidToken)
	}
	return claims, nil
}

// GenerateProviderToken mints a provider token. Used by the seed tool and
// integration setups; production tokens come from the marketplace core.
func (s *AuthService) GenerateProviderToken(providerID int) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("provider:%d", providerID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		ProviderID: providerID,
		Role:       RoleProvider,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
