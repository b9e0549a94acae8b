package views

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/pipeline-crm/internal/crm"
)

type blobPersister struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func (p *blobPersister) Save(ctx context.Context, userID, collection string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blobs[userID+"/"+collection] = append([]byte(nil), payload...)
	return nil
}

func (p *blobPersister) Load(ctx context.Context, userID, collection string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	blob, ok := p.blobs[userID+"/"+collection]
	return blob, ok, nil
}

func TestAddingPastReminderRaisesOverdueCountByOne(t *testing.T) {
	ctx := context.Background()
	store, err := crm.Open(ctx, crm.OpenParams{
		UserID:    "u1",
		Persister: &blobPersister{blobs: map[string][]byte{}},
		Now:       func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	lead, err := store.CreateLead(ctx, crm.CreateLeadInput{Name: "Ada Lovelace", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	if _, err := store.AddReminder(ctx, lead.ID, crm.ReminderInput{Date: "2026-03-01", Note: "first chase"}); err != nil {
		t.Fatalf("seed reminder: %v", err)
	}

	before := Dashboard(store.State(), now).OverdueReminders
	if before != 1 {
		t.Fatalf("expected one overdue reminder to start, got %d", before)
	}

	if _, err := store.AddReminder(ctx, lead.ID, crm.ReminderInput{Date: "2026-03-08", Note: "call back"}); err != nil {
		t.Fatalf("add reminder: %v", err)
	}
	if after := Dashboard(store.State(), now).OverdueReminders; after != before+1 {
		t.Fatalf("expected overdue count %d, got %d", before+1, after)
	}

	if _, err := store.AddReminder(ctx, lead.ID, crm.ReminderInput{Date: "2026-03-20", Note: "next check-in"}); err != nil {
		t.Fatalf("add future reminder: %v", err)
	}
	if after := Dashboard(store.State(), now).OverdueReminders; after != before+1 {
		t.Fatalf("future reminder must not count as overdue, got %d", after)
	}
	if got := len(OverdueReminders(store.State().Leads, now)); got != before+1 {
		t.Fatalf("expected %d overdue entries, got %d", before+1, got)
	}
}
