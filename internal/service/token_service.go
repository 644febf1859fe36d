package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/examtrack/examtrack-backend/internal/config"
)

// Common token errors.
var (
	ErrAdmissionInvalid = errors.New("admission token invalid")
	ErrAdmissionExpired = errors.New("admission token expired")
)

// TokenType distinguishes participant vs instructor bearer tokens.
type TokenType string

const (
	TokenTypeParticipant TokenType = "participant"
	TokenTypeInstructor  TokenType = "instructor"
)

// Claims extends JWT standard claims with app-specific fields. Bearer
// tokens are issued by the platform's identity service; this process
// only validates them.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name,omitempty"`
}

// AdmissionClaims is the short-lived credential minted by room
// verification. It binds the assessment and the room code it was issued
// for; it is exchanged once for an attempt and is not a session token.
type AdmissionClaims struct {
	jwt.RegisteredClaims
	TokenType    TokenType `json:"token_type"`
	AssessmentID uuid.UUID `json:"assessment_id"`
	RoomCode     string    `json:"room_code"`
}

// TokenTypeAdmission marks an admission credential.
const TokenTypeAdmission TokenType = "admission"

// TokenService signs admission tokens and validates bearer tokens.
type TokenService struct {
	cfg *config.Config
}

// NewTokenService creates a new TokenService.
func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{cfg: cfg}
}

// ValidateToken parses and validates a bearer JWT, returning the claims.
func (s *TokenService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, s.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// MintAdmissionToken creates the short-lived admission credential for a
// verified room. Expiry is bounded by the configured admission TTL.
func (s *TokenService) MintAdmissionToken(assessmentID uuid.UUID, roomCode string) (string, error) {
	now := time.Now()

	claims := AdmissionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AdmissionTTL)),
		},
		TokenType:    TokenTypeAdmission,
		AssessmentID: assessmentID,
		RoomCode:     roomCode,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign admission token: %w", err)
	}
	return signed, nil
}

// VerifyAdmissionToken validates signature and expiry of an admission
// credential and returns its bound claims.
func (s *TokenService) VerifyAdmissionToken(tokenStr string) (*AdmissionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &AdmissionClaims{}, s.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrAdmissionExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrAdmissionInvalid, err)
	}

	claims, ok := token.Claims.(*AdmissionClaims)
	if !ok || !token.Valid || claims.TokenType != TokenTypeAdmission {
		return nil, ErrAdmissionInvalid
	}

	return claims, nil
}

func (s *TokenService) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return []byte(s.cfg.JWTSecret), nil
}
