package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/pipeline-crm/api/responses"
	"github.com/angelmondragon/pipeline-crm/internal/session"
	pkgerrors "github.com/angelmondragon/pipeline-crm/pkg/errors"
	"github.com/angelmondragon/pipeline-crm/pkg/logger"
)

type identitySigner interface {
	CurrentUser(ctx context.Context) (session.Identity, bool)
	SignOut(ctx context.Context, id session.Identity) error
}

// SessionLogout signs the caller out, which discards their in-memory
// workspace and denylists the presented token.
func SessionLogout(gate identitySigner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if gate == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session gate unavailable"))
			return
		}
		id, ok := gate.CurrentUser(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "identity required"))
			return
		}
		if err := gate.SignOut(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}
