package middleware

import (
	"context"

	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
	"github.com/Temutjin2k/ride-realtime/pkg/logger"
)

type (
	AuthService interface {
		Validate(ctx context.Context, token string) (models.Identity, error)
	}

	Middleware struct {
		auth AuthService
		log  logger.Logger
	}
)

func NewMiddleware(auth AuthService, log logger.Logger) *Middleware {
	return &Middleware{
		auth: auth,
		log:  log,
	}
}
