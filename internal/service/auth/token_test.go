package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
	"github.com/Temutjin2k/ride-realtime/internal/domain/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestTokenService_IssueValidate(t *testing.T) {
	s := NewTokenService("secret", time.Hour)
	id := models.Identity{UserID: uuid.New(), Role: types.DriverRole}

	token, err := s.Issue(id)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	got, err := s.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got != id {
		t.Fatalf("Validate = %+v, want %+v", got, id)
	}
}

func TestTokenService_WrongSecret(t *testing.T) {
	token, err := NewTokenService("one", time.Hour).Issue(models.Identity{UserID: uuid.New(), Role: types.RiderRole})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := NewTokenService("two", time.Hour).Validate(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
}

func TestTokenService_Expired(t *testing.T) {
	s := NewTokenService("secret", time.Minute)
	s.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := s.Issue(models.Identity{UserID: uuid.New(), Role: types.RiderRole})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	s.now = time.Now
	if _, err := s.Validate(context.Background(), token); !errors.Is(err, ErrExpToken) {
		t.Fatalf("got %v, want ErrExpToken", err)
	}
}

func TestTokenService_RejectsUnknownRole(t *testing.T) {
	claims := jwt.MapClaims{
		"typ":     accessTokenType,
		"user_id": uuid.NewString(),
		"role":    "PASSENGER",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := NewTokenService("secret", time.Hour).Validate(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
}

func TestTokenService_IssueInvalidIdentity(t *testing.T) {
	if _, err := NewTokenService("secret", time.Hour).Issue(models.Identity{Role: types.RiderRole}); !errors.Is(err, ErrInvalidIdentity) {
		t.Fatalf("got %v, want ErrInvalidIdentity", err)
	}
}

func TestTokenService_Garbage(t *testing.T) {
	if _, err := NewTokenService("secret", time.Hour).Validate(context.Background(), "not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
}
