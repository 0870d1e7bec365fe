package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// GatewayRole grants full tournament control; guild moderators act through
// the gateway, which attaches the acting user to each request.
const (
	RoleGateway = "gateway"
)

type AuthService interface {
	// IssueToken exchanges the shared gateway API key for a short-lived JWT
	// the bot uses on every request.
	IssueToken(apiKey string) (string, time.Time, error)
}

type authService struct {
	jwtSecret  []byte
	apiKeyHash []byte
	tokenTTL   time.Duration
}

func NewAuthService(jwtSecret, apiKeyHash string) AuthService {
	return &authService{
		jwtSecret:  []byte(jwtSecret),
		apiKeyHash: []byte(apiKeyHash),
		tokenTTL:   12 * time.Hour,
	}
}

func (s *authService) IssueToken(apiKey string) (string, time.Time, error) {
	if err := bcrypt.CompareHashAndPassword(s.apiKeyHash, []byte(apiKey)); err != nil {
		return "", time.Time{}, ErrInvalidAPIKey
	}

	expiresAt := time.Now().Add(s.tokenTTL)
	claims := jwt.MapClaims{
		"role": RoleGateway,
		"iat":  time.Now().Unix(),
		"exp":  expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}
