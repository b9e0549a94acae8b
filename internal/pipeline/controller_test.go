package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/pipeline-crm/internal/crm"
	"github.com/angelmondragon/pipeline-crm/pkg/enums"
	pkgerrors "github.com/angelmondragon/pipeline-crm/pkg/errors"
)

type stubStore struct {
	leads   map[string]crm.Lead
	changes []enums.PipelineStage
	saveErr error
}

func newStubStore(leads ...crm.Lead) *stubStore {
	s := &stubStore{leads: map[string]crm.Lead{}}
	for _, l := range leads {
		s.leads[l.ID] = l
	}
	return s
}

func (s *stubStore) GetLead(id string) (crm.Lead, error) {
	lead, ok := s.leads[id]
	if !ok {
		return crm.Lead{}, pkgerrors.New(pkgerrors.CodeNotFound, "lead not found")
	}
	return lead, nil
}

func (s *stubStore) ChangeStage(ctx context.Context, leadID string, stage enums.PipelineStage) (crm.Lead, bool, error) {
	lead := s.leads[leadID]
	lead.Stage = stage
	s.leads[leadID] = lead
	s.changes = append(s.changes, stage)
	return lead, true, s.saveErr
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name      string
		current   enums.PipelineStage
		requested enums.PipelineStage
		want      Decision
	}{
		{"forward", enums.PipelineStageNew, enums.PipelineStageQualified, Decision{Allowed: true}},
		{"backward", enums.PipelineStageProposal, enums.PipelineStageNew, Decision{Allowed: true}},
		{"reopen closed", enums.PipelineStageClosedLost, enums.PipelineStageFollowUp, Decision{Allowed: true}},
		{"won to lost", enums.PipelineStageClosedWon, enums.PipelineStageClosedLost, Decision{Allowed: true}},
		{"same stage", enums.PipelineStageQualified, enums.PipelineStageQualified, Decision{Reason: ReasonSameStage}},
		{"unknown stage", enums.PipelineStageNew, enums.PipelineStage("won"), Decision{Reason: ReasonInvalidStage}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(tc.current, tc.requested); got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestNewControllerRequiresStore(t *testing.T) {
	if _, err := NewController(nil); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestMoveChangesStage(t *testing.T) {
	store := newStubStore(crm.Lead{ID: "l1", Name: "Ada", Stage: enums.PipelineStageNew})
	ctrl, _ := NewController(store)

	res, err := ctrl.Move(context.Background(), MoveRequest{LeadID: "l1", Source: "new", Destination: "proposal"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Changed || res.Lead.Stage != enums.PipelineStageProposal {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(store.changes) != 1 {
		t.Fatalf("expected one stage change, got %d", len(store.changes))
	}
}

func TestMoveWithinColumnIsNoop(t *testing.T) {
	store := newStubStore(crm.Lead{ID: "l1", Stage: enums.PipelineStageQualified})
	ctrl, _ := NewController(store)

	res, err := ctrl.Move(context.Background(), MoveRequest{LeadID: "l1", Source: "qualified", Destination: "qualified"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Changed || len(store.changes) != 0 {
		t.Fatalf("expected no change, got %+v with %d changes", res, len(store.changes))
	}
}

func TestMoveRejectsStaleSource(t *testing.T) {
	store := newStubStore(crm.Lead{ID: "l1", Stage: enums.PipelineStageFollowUp})
	ctrl, _ := NewController(store)

	_, err := ctrl.Move(context.Background(), MoveRequest{LeadID: "l1", Source: "new", Destination: "proposal"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(store.changes) != 0 {
		t.Fatal("stale move should not change the stage")
	}
}

func TestMoveValidation(t *testing.T) {
	store := newStubStore(crm.Lead{ID: "l1", Stage: enums.PipelineStageNew})
	ctrl, _ := NewController(store)

	tests := []struct {
		name string
		req  MoveRequest
		code pkgerrors.Code
	}{
		{"bad source", MoveRequest{LeadID: "l1", Source: "nope", Destination: "new"}, pkgerrors.CodeInvalidStage},
		{"bad destination", MoveRequest{LeadID: "l1", Source: "new", Destination: "won"}, pkgerrors.CodeInvalidStage},
		{"unknown lead", MoveRequest{LeadID: "ghost", Source: "new", Destination: "qualified"}, pkgerrors.CodeNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ctrl.Move(context.Background(), tc.req); !pkgerrors.IsCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestSetStage(t *testing.T) {
	store := newStubStore(crm.Lead{ID: "l1", Stage: enums.PipelineStageClosedWon})
	ctrl, _ := NewController(store)

	res, err := ctrl.SetStage(context.Background(), "l1", "closed-won")
	if err != nil || res.Changed {
		t.Fatalf("expected same-stage edit to be a no-op, got %+v %v", res, err)
	}

	res, err = ctrl.SetStage(context.Background(), "l1", "follow-up")
	if err != nil || !res.Changed || res.Lead.Stage != enums.PipelineStageFollowUp {
		t.Fatalf("expected reopen to follow-up, got %+v %v", res, err)
	}

	if _, err := ctrl.SetStage(context.Background(), "l1", "archived"); !pkgerrors.IsCode(err, pkgerrors.CodeInvalidStage) {
		t.Fatalf("expected invalid stage, got %v", err)
	}
}

func TestSetStageReturnsLeadOnPersistenceFailure(t *testing.T) {
	store := newStubStore(crm.Lead{ID: "l1", Stage: enums.PipelineStageNew})
	store.saveErr = pkgerrors.Wrap(pkgerrors.CodePersistence, errors.New("disk full"), "change applied but not saved")
	ctrl, _ := NewController(store)

	res, err := ctrl.SetStage(context.Background(), "l1", "qualified")
	if !pkgerrors.IsCode(err, pkgerrors.CodePersistence) {
		t.Fatalf("expected persistence failure, got %v", err)
	}
	if !res.Changed || res.Lead.Stage != enums.PipelineStageQualified {
		t.Fatalf("expected the applied change in the result, got %+v", res)
	}
}
