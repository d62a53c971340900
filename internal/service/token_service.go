package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// internalTokenTTL bounds how long a service-to-service token stays valid.
// Tokens are minted per call, so the window only needs to cover retries.
const internalTokenTTL = 5 * time.Minute

// JWTTokenService implements ports.TokenService using HS256 JWT. User tokens
// and internal service-to-service tokens are signed with separate secrets.
type JWTTokenService struct {
	secret         []byte
	internalSecret []byte
	expiry         time.Duration
	issuer         string
}

// NewJWTTokenService creates a new JWT token service.
func NewJWTTokenService(secret, internalSecret string, expiry time.Duration, issuer string) *JWTTokenService {
	return &JWTTokenService{
		secret:         []byte(secret),
		internalSecret: []byte(internalSecret),
		expiry:         expiry,
		issuer:         issuer,
	}
}

// Generate creates a signed JWT for the given user.
func (s *JWTTokenService) Generate(userID uuid.UUID) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiry)

	claims := jwt.MapClaims{
		"sub": userID.String(),
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
		"iss": s.issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// Validate parses and validates a user JWT, returning the subject user ID.
func (s *JWTTokenService) Validate(tokenString string) (uuid.UUID, error) {
	claims, err := s.parse(tokenString, s.secret)
	if err != nil {
		return uuid.Nil, err
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("missing subject claim")
	}

	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user ID in token: %w", err)
	}

	return userID, nil
}

// GenerateInternal mints a short-lived service-to-service token for the
// internal wallet provisioning endpoint.
func (s *JWTTokenService) GenerateInternal() (string, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		"scope": "internal",
		"iat":   now.Unix(),
		"exp":   now.Add(internalTokenTTL).Unix(),
		"iss":   s.issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.internalSecret)
	if err != nil {
		return "", fmt.Errorf("signing internal token: %w", err)
	}

	return tokenString, nil
}

// ValidateInternal checks a service-to-service token.
func (s *JWTTokenService) ValidateInternal(tokenString string) error {
	claims, err := s.parse(tokenString, s.internalSecret)
	if err != nil {
		return err
	}

	scope, ok := claims["scope"].(string)
	if !ok || scope != "internal" {
		return fmt.Errorf("missing internal scope claim")
	}

	return nil
}

func (s *JWTTokenService) parse(tokenString string, secret []byte) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
