// Package session tracks which identities have an active workspace and
// tells subscribers when one signs in or out.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/pipeline-crm/pkg/errors"
	"github.com/angelmondragon/pipeline-crm/pkg/logger"
)

// Identity is the verified caller behind a request.
type Identity struct {
	UserID    string
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// Change is delivered to subscribers on every sign-in or sign-out.
type Change struct {
	UserID   string
	SignedIn bool
}

type Listener func(ctx context.Context, change Change)

// Gate is safe for concurrent use. Listeners run synchronously on the
// goroutine that caused the change, outside the gate's lock.
type Gate struct {
	mu          sync.Mutex
	active      map[string]struct{}
	listeners   []Listener
	revocations Revocations
	logg        *logger.Logger
	now         func() time.Time
}

type GateParams struct {
	Revocations Revocations
	Logger      *logger.Logger
	Now         func() time.Time
}

func NewGate(params GateParams) (*Gate, error) {
	if params.Revocations == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "revocation store required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Gate{
		active:      map[string]struct{}{},
		revocations: params.Revocations,
		logg:        params.Logger,
		now:         now,
	}, nil
}

// CurrentUser returns the identity attached to the request context.
func (g *Gate) CurrentUser(ctx context.Context) (Identity, bool) {
	return IdentityFromContext(ctx)
}

// OnIdentityChange registers fn for all future changes.
func (g *Gate) OnIdentityChange(fn Listener) {
	if fn == nil {
		return
	}
	g.mu.Lock()
	g.listeners = append(g.listeners, fn)
	g.mu.Unlock()
}

// SignIn marks the identity active. Subscribers hear only about the first
// activation; repeat calls from later requests are silent.
func (g *Gate) SignIn(ctx context.Context, id Identity) error {
	userID := strings.TrimSpace(id.UserID)
	if userID == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "identity has no subject")
	}

	g.mu.Lock()
	_, already := g.active[userID]
	if !already {
		g.active[userID] = struct{}{}
	}
	listeners := g.snapshotListeners()
	g.mu.Unlock()

	if already {
		return nil
	}
	g.logg.Info(g.logg.WithUserID(ctx, userID), "identity signed in")
	g.notify(ctx, listeners, Change{UserID: userID, SignedIn: true})
	return nil
}

// SignOut deactivates the identity and denylists its token until expiry.
// Subscribers are notified even when the revocation write fails.
func (g *Gate) SignOut(ctx context.Context, id Identity) error {
	userID := strings.TrimSpace(id.UserID)
	if userID == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "identity has no subject")
	}

	var revokeErr error
	if id.TokenID != "" {
		until := id.ExpiresAt
		if until.IsZero() {
			until = g.now().Add(time.Hour)
		}
		if err := g.revocations.Revoke(ctx, id.TokenID, until); err != nil {
			revokeErr = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke token")
		}
	}

	g.mu.Lock()
	delete(g.active, userID)
	listeners := g.snapshotListeners()
	g.mu.Unlock()

	g.logg.Info(g.logg.WithUserID(ctx, userID), "identity signed out")
	g.notify(ctx, listeners, Change{UserID: userID, SignedIn: false})
	return revokeErr
}

// IsRevoked reports whether a token id was signed out.
func (g *Gate) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	revoked, err := g.revocations.IsRevoked(ctx, tokenID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check token revocation")
	}
	return revoked, nil
}

func (g *Gate) snapshotListeners() []Listener {
	return append([]Listener(nil), g.listeners...)
}

func (g *Gate) notify(ctx context.Context, listeners []Listener, change Change) {
	for _, fn := range listeners {
		fn(ctx, change)
	}
}
