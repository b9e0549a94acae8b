package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/pipeline-crm/api/responses"
	"github.com/angelmondragon/pipeline-crm/internal/crm"
	pkgerrors "github.com/angelmondragon/pipeline-crm/pkg/errors"
	"github.com/angelmondragon/pipeline-crm/pkg/logger"
)

type WorkspaceResolver interface {
	Get(ctx context.Context, userID string) (*crm.Store, error)
}

// Workspace opens the authenticated caller's store. It must run after Auth.
func Workspace(resolver WorkspaceResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := UserIDFromContext(r.Context())
			if userID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "identity required"))
				return
			}
			store, err := resolver.Get(r.Context(), userID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithWorkspace(r.Context(), store)))
		})
	}
}
