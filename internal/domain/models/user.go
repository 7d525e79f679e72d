package models

import (
	"context"

	"github.com/Temutjin2k/ride-realtime/internal/domain/types"
	"github.com/google/uuid"
)

// Identity is the verified (user, role) pair produced by the identity provider
type Identity struct {
	UserID uuid.UUID
	Role   types.UserRole
}

type identityKey struct{}

func WithUser(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func UserFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
