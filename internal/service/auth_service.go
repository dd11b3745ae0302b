package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"docintake/internal/config"
	"docintake/internal/domain"
)

const sessionAudience = "session"

// Claims represents the JWT claims binding a bearer to one session.
type Claims struct {
	jwt.RegisteredClaims
	SessionID uuid.UUID `json:"session_id"`
}

// SessionToken is issued when a session is created.
type SessionToken struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthService issues and validates session tokens.
type AuthService interface {
	IssueToken(sessionID uuid.UUID) (*SessionToken, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	cfg config.SecurityConfig
	now func() time.Time
}

// NewAuthService creates a new AuthService implementation.
func NewAuthService(cfg config.SecurityConfig) AuthService {
	if cfg.TokenExpiry <= 0 {
		cfg.TokenExpiry = 12 * time.Hour
	}
	return &authService{cfg: cfg, now: time.Now}
}

func (s *authService) IssueToken(sessionID uuid.UUID) (*SessionToken, error) {
	now := s.now()
	expiry := now.Add(s.cfg.TokenExpiry)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID.String(),
			Issuer:    s.cfg.TokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{sessionAudience},
		},
		SessionID: sessionID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.TokenSecret))
	if err != nil {
		return nil, fmt.Errorf("signing session token: %w", err)
	}

	return &SessionToken{AccessToken: signed, ExpiresAt: expiry}, nil
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.TokenSecret), nil
	}, jwt.WithAudience(sessionAudience))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing token: %v", domain.ErrUnauthorized, err)
	}
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}
	if claims.Subject != claims.SessionID.String() {
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}
