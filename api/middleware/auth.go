package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/pipeline-crm/api/responses"
	"github.com/angelmondragon/pipeline-crm/internal/session"
	pkgAuth "github.com/angelmondragon/pipeline-crm/pkg/auth"
	"github.com/angelmondragon/pipeline-crm/pkg/config"
	pkgerrors "github.com/angelmondragon/pipeline-crm/pkg/errors"
	"github.com/angelmondragon/pipeline-crm/pkg/logger"
)

// IdentityGate is the session surface the auth middleware needs.
type IdentityGate interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	SignIn(ctx context.Context, id session.Identity) error
}

// Auth verifies the bearer token, rejects signed-out tokens, and seeds the
// request context with the caller's identity.
func Auth(cfg config.IdentityConfig, gate IdentityGate, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			id := session.Identity{
				UserID:  claims.UserID(),
				Email:   claims.Email,
				TokenID: claims.ID,
			}
			if claims.ExpiresAt != nil {
				id.ExpiresAt = claims.ExpiresAt.Time
			}

			if gate != nil {
				revoked, err := gate.IsRevoked(r.Context(), id.TokenID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				if revoked {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session signed out"))
					return
				}
				if err := gate.SignIn(r.Context(), id); err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
			}

			ctx := session.WithIdentity(r.Context(), id)
			ctx = WithUserID(ctx, id.UserID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, id.UserID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) >= 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = raw[7:]
	}
	return strings.TrimSpace(raw)
}
