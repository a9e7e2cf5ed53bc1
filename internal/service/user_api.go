package service

import (
	"context"

	"github.com/gaetanof/frontegg-bulk-user-actions/internal/frontegg"
)

// UserAPI defines the provider operations the batch runner needs
type UserAPI interface {
	Authenticate(ctx context.Context) (string, error)
	ResolveUserID(ctx context.Context, identifier string) (string, bool)
	LockUser(ctx context.Context, userID string) bool
	DeleteUser(ctx context.Context, userID string) bool
}

// Ensure the Frontegg client satisfies the interface
var _ UserAPI = (*frontegg.Client)(nil)
