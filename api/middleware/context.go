package middleware

import (
	"context"

	"github.com/angelmondragon/pipeline-crm/internal/crm"
)

type contextKey string

const (
	ctxUserID    contextKey = "user_id"
	ctxWorkspace contextKey = "workspace"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WorkspaceFromContext returns the caller's store resolved by Workspace.
func WorkspaceFromContext(ctx context.Context) *crm.Store {
	if ctx == nil {
		return nil
	}
	store, _ := ctx.Value(ctxWorkspace).(*crm.Store)
	return store
}

// WithWorkspace injects the caller's store into the context.
func WithWorkspace(ctx context.Context, store *crm.Store) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxWorkspace, store)
}
