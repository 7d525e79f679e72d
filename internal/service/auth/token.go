package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
	"github.com/Temutjin2k/ride-realtime/internal/domain/types"
	wrap "github.com/Temutjin2k/ride-realtime/pkg/logger/wrapper"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const accessTokenType = "access"

// TokenService is the identity provider: it turns a bearer token into a verified (user, role) pair.
type TokenService struct {
	secret    string
	AccessTTL time.Duration
	now       func() time.Time
}

func NewTokenService(secret string, accessTTL time.Duration) *TokenService {
	return &TokenService{
		secret:    secret,
		AccessTTL: accessTTL,
		now:       time.Now,
	}
}

// Issue signs an access token for the identity. Used by the dev token tool and tests.
func (s *TokenService) Issue(id models.Identity) (string, error) {
	if id.UserID == uuid.Nil || !id.Role.IsValid() {
		return "", ErrInvalidIdentity
	}

	issuedAt := s.now().UTC()
	claims := jwt.MapClaims{
		"typ":     accessTokenType,
		"jti":     uuid.NewString(),
		"user_id": id.UserID.String(),
		"role":    id.Role.String(),
		"iat":     issuedAt.Unix(),
		"exp":     issuedAt.Add(s.AccessTTL).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secret))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenGenerateFail, err)
	}
	return token, nil
}

// Validate parses and verifies token
func (s *TokenService) Validate(ctx context.Context, token string) (models.Identity, error) {
	ctx = wrap.WithAction(ctx, "validate_token")

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return []byte(s.secret), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Identity{}, wrap.Error(ctx, ErrExpToken)
		}
		return models.Identity{}, wrap.Error(ctx, ErrInvalidToken)
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return models.Identity{}, wrap.Error(ctx, ErrInvalidToken)
	}

	if typ, _ := mc["typ"].(string); typ != accessTokenType {
		return models.Identity{}, wrap.Error(ctx, ErrInvalidToken)
	}

	userIDStr, _ := mc["user_id"].(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return models.Identity{}, wrap.Error(ctx, fmt.Errorf("%w: invalid or missing 'user_id' claim", ErrInvalidToken))
	}

	roleStr, _ := mc["role"].(string)
	role := types.UserRole(roleStr)
	if !role.IsValid() {
		return models.Identity{}, wrap.Error(ctx, fmt.Errorf("%w: invalid 'role' claim", ErrInvalidToken))
	}

	return models.Identity{UserID: userID, Role: role}, nil
}
