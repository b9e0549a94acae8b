package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/pipeline-crm/pkg/errors"
	"github.com/angelmondragon/pipeline-crm/pkg/logger"
)

var fixedNow = time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)

type recordingRevocations struct {
	mu        sync.Mutex
	revoked   map[string]time.Time
	revokeErr error
}

func newRecordingRevocations() *recordingRevocations {
	return &recordingRevocations{revoked: map[string]time.Time{}}
}

func (r *recordingRevocations) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.revokeErr != nil {
		return r.revokeErr
	}
	r.revoked[tokenID] = until
	return nil
}

func (r *recordingRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[tokenID]
	return ok, nil
}

func newTestGate(t *testing.T, rev Revocations) *Gate {
	t.Helper()
	gate, err := NewGate(GateParams{
		Revocations: rev,
		Logger:      logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Now:         func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("new gate: %v", err)
	}
	return gate
}

func TestNewGateRequiresDependencies(t *testing.T) {
	if _, err := NewGate(GateParams{Logger: logger.New(logger.Options{Output: io.Discard})}); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error without revocations, got %v", err)
	}
	if _, err := NewGate(GateParams{Revocations: newRecordingRevocations()}); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error without logger, got %v", err)
	}
}

func TestSignInNotifiesOnce(t *testing.T) {
	gate := newTestGate(t, newRecordingRevocations())
	var changes []Change
	gate.OnIdentityChange(func(ctx context.Context, c Change) { changes = append(changes, c) })

	id := Identity{UserID: "u1", TokenID: "t1"}
	for i := 0; i < 3; i++ {
		if err := gate.SignIn(context.Background(), id); err != nil {
			t.Fatalf("sign in: %v", err)
		}
	}
	if len(changes) != 1 || changes[0] != (Change{UserID: "u1", SignedIn: true}) {
		t.Fatalf("expected one sign-in change, got %+v", changes)
	}
	if !isActive(gate, "u1") {
		t.Fatal("expected u1 to be active")
	}
}

func TestSignInRequiresSubject(t *testing.T) {
	gate := newTestGate(t, newRecordingRevocations())
	if err := gate.SignIn(context.Background(), Identity{UserID: "  "}); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestSignOutRevokesAndNotifies(t *testing.T) {
	rev := newRecordingRevocations()
	gate := newTestGate(t, rev)
	var changes []Change
	gate.OnIdentityChange(func(ctx context.Context, c Change) { changes = append(changes, c) })

	exp := fixedNow.Add(30 * time.Minute)
	id := Identity{UserID: "u1", TokenID: "t1", ExpiresAt: exp}
	_ = gate.SignIn(context.Background(), id)
	if err := gate.SignOut(context.Background(), id); err != nil {
		t.Fatalf("sign out: %v", err)
	}

	if isActive(gate, "u1") {
		t.Fatal("expected u1 to be inactive")
	}
	if got := rev.revoked["t1"]; !got.Equal(exp) {
		t.Fatalf("expected token revoked until %s, got %s", exp, got)
	}
	revoked, err := gate.IsRevoked(context.Background(), "t1")
	if err != nil || !revoked {
		t.Fatalf("expected t1 revoked, got %v %v", revoked, err)
	}
	if len(changes) != 2 || changes[1] != (Change{UserID: "u1", SignedIn: false}) {
		t.Fatalf("unexpected changes: %+v", changes)
	}

	// a fresh sign-in after sign-out is a new activation
	_ = gate.SignIn(context.Background(), Identity{UserID: "u1", TokenID: "t2"})
	if len(changes) != 3 || !changes[2].SignedIn {
		t.Fatalf("expected re-activation change, got %+v", changes)
	}
}

func TestSignOutStillNotifiesWhenRevocationFails(t *testing.T) {
	rev := newRecordingRevocations()
	rev.revokeErr = errors.New("redis down")
	gate := newTestGate(t, rev)
	notified := false
	gate.OnIdentityChange(func(ctx context.Context, c Change) { notified = !c.SignedIn })

	err := gate.SignOut(context.Background(), Identity{UserID: "u1", TokenID: "t1"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if !notified {
		t.Fatal("expected sign-out notification")
	}
}

func TestListenerMaySubscribeDuringNotify(t *testing.T) {
	gate := newTestGate(t, newRecordingRevocations())
	gate.OnIdentityChange(func(ctx context.Context, c Change) {
		gate.OnIdentityChange(func(context.Context, Change) {})
	})
	if err := gate.SignIn(context.Background(), Identity{UserID: "u1"}); err != nil {
		t.Fatalf("sign in: %v", err)
	}
}

func TestCurrentUser(t *testing.T) {
	gate := newTestGate(t, newRecordingRevocations())
	if _, ok := gate.CurrentUser(context.Background()); ok {
		t.Fatal("expected no identity on bare context")
	}
	ctx := WithIdentity(context.Background(), Identity{UserID: "u1", Email: "a@b.c"})
	id, ok := gate.CurrentUser(ctx)
	if !ok || id.UserID != "u1" || id.Email != "a@b.c" {
		t.Fatalf("unexpected identity %+v %v", id, ok)
	}
}

func TestMemoryRevocations(t *testing.T) {
	rev := NewMemoryRevocations(0)
	rev.now = func() time.Time { return time.Now() }
	ctx := context.Background()

	if err := rev.Revoke(ctx, "t1", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := rev.Revoke(ctx, "t-expired", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("revoke expired: %v", err)
	}

	if ok, _ := rev.IsRevoked(ctx, "t1"); !ok {
		t.Fatal("expected t1 revoked")
	}
	if ok, _ := rev.IsRevoked(ctx, "t-expired"); ok {
		t.Fatal("already expired tokens need no denylist entry")
	}
	if ok, _ := rev.IsRevoked(ctx, "other"); ok {
		t.Fatal("unexpected revocation")
	}
}

type fakeRevocationKV struct {
	keys map[string]time.Duration
}

func (f *fakeRevocationKV) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.keys[key]; ok {
		return false, nil
	}
	f.keys[key] = ttl
	return true, nil
}

func (f *fakeRevocationKV) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := f.keys[key]
	return ok, nil
}

func (f *fakeRevocationKV) RevokedTokenKey(tokenID string) string {
	return "crm:revoked:" + tokenID
}

func TestRedisRevocations(t *testing.T) {
	kv := &fakeRevocationKV{keys: map[string]time.Duration{}}
	rev := NewRedisRevocations(kv)
	rev.now = func() time.Time { return fixedNow }
	ctx := context.Background()

	if err := rev.Revoke(ctx, "t1", fixedNow.Add(10*time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if kv.keys["crm:revoked:t1"] != 10*time.Minute {
		t.Fatalf("expected ttl until expiry, got %v", kv.keys["crm:revoked:t1"])
	}
	if ok, _ := rev.IsRevoked(ctx, "t1"); !ok {
		t.Fatal("expected t1 revoked")
	}

	_ = rev.Revoke(ctx, "t2", fixedNow.Add(-time.Second))
	if _, ok := kv.keys["crm:revoked:t2"]; ok {
		t.Fatal("expired token should not be written")
	}
}

func isActive(g *Gate, userID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.active[userID]
	return ok
}
