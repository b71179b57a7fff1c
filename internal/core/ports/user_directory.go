package ports

import (
	"context"

	"github.com/unibague-gradework/orion-program/internal/core/domain"
)

// UserDirectory resolves a user id against the remote user service.
// A remote "not found" and any terminal transport failure both surface as
// (nil, nil); the lookup never hard-fails the calling operation.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}

// LeaderCache holds recently resolved leader records. A cache failure is
// never fatal; callers fall through to the directory.
type LeaderCache interface {
	Get(ctx context.Context, userID string) (*domain.User, bool)
	Put(ctx context.Context, user *domain.User)
}
