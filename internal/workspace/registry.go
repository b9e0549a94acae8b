// Package workspace holds one open crm.Store per signed-in identity.
package workspace

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/pipeline-crm/internal/crm"
	"github.com/angelmondragon/pipeline-crm/internal/session"
	pkgerrors "github.com/angelmondragon/pipeline-crm/pkg/errors"
	"github.com/angelmondragon/pipeline-crm/pkg/logger"
	"github.com/angelmondragon/pipeline-crm/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

type Params struct {
	Persister crm.Persister
	Logger    *logger.Logger
	Metrics   *metrics.StoreMetrics
	Now       func() time.Time
	NewID     func() string
}

// Registry opens a workspace at most once per identity while it is signed in.
type Registry struct {
	mu      sync.Mutex
	stores  map[string]*crm.Store
	epochs  map[string]uint64
	group   singleflight.Group
	params  Params
	logg    *logger.Logger
	metrics *metrics.StoreMetrics
}

func NewRegistry(params Params) (*Registry, error) {
	if params.Persister == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "snapshot persister required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	r := &Registry{
		stores:  map[string]*crm.Store{},
		epochs:  map[string]uint64{},
		params:  params,
		logg:    params.Logger,
		metrics: params.Metrics,
	}
	if err := r.metrics.TrackOpenWorkspaces(r.Len); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register workspace gauge")
	}
	return r, nil
}

// Attach discards a user's workspace whenever the gate reports a sign-out.
func (r *Registry) Attach(gate *session.Gate) {
	gate.OnIdentityChange(func(ctx context.Context, change session.Change) {
		if !change.SignedIn {
			r.Discard(ctx, change.UserID)
		}
	})
}

// Get returns the user's open store, loading it from snapshots on first use.
// Concurrent first calls share a single load.
func (r *Registry) Get(ctx context.Context, userID string) (*crm.Store, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "identity required")
	}

	r.mu.Lock()
	if store, ok := r.stores[userID]; ok {
		r.mu.Unlock()
		return store, nil
	}
	epoch := r.epochs[userID]
	r.mu.Unlock()

	v, err, _ := r.group.Do(userID, func() (any, error) {
		return r.open(context.WithoutCancel(ctx), userID, epoch)
	})
	if err != nil {
		return nil, err
	}
	return v.(*crm.Store), nil
}

func (r *Registry) open(ctx context.Context, userID string, epoch uint64) (*crm.Store, error) {
	store, err := crm.Open(ctx, crm.OpenParams{
		UserID:    userID,
		Persister: r.params.Persister,
		Logger:    r.logg,
		Metrics:   r.metrics,
		Now:       r.params.Now,
		NewID:     r.params.NewID,
	})
	if err != nil {
		r.logg.Error(r.logg.WithUserID(ctx, userID), "workspace open failed", err)
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.stores[userID]; ok {
		return existing, nil
	}
	// A sign-out raced the load; hand the store to this caller only.
	if r.epochs[userID] != epoch {
		return store, nil
	}
	r.stores[userID] = store
	r.logg.Info(r.logg.WithUserID(ctx, userID), "workspace opened")
	return store, nil
}

// Discard drops the in-memory workspace. Persisted snapshots stay.
func (r *Registry) Discard(ctx context.Context, userID string) {
	r.mu.Lock()
	r.epochs[userID]++
	_, ok := r.stores[userID]
	delete(r.stores, userID)
	r.mu.Unlock()

	if !ok {
		return
	}
	r.logg.Info(r.logg.WithUserID(ctx, userID), "workspace closed")
}

// Len reports the number of open workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Close discards every workspace.
func (r *Registry) Close(ctx context.Context) {
	r.mu.Lock()
	users := make([]string, 0, len(r.stores))
	for userID := range r.stores {
		users = append(users, userID)
	}
	r.mu.Unlock()

	for _, userID := range users {
		r.Discard(ctx, userID)
	}
}
