package pipeline

import (
	"context"
	"strings"

	"github.com/angelmondragon/pipeline-crm/internal/crm"
	"github.com/angelmondragon/pipeline-crm/pkg/enums"
	pkgerrors "github.com/angelmondragon/pipeline-crm/pkg/errors"
)

type leadStager interface {
	GetLead(id string) (crm.Lead, error)
	ChangeStage(ctx context.Context, leadID string, stage enums.PipelineStage) (crm.Lead, bool, error)
}

// MoveRequest is a board drag from one column to another.
type MoveRequest struct {
	LeadID      string `json:"leadId" validate:"required"`
	Source      string `json:"source" validate:"required"`
	Destination string `json:"destination" validate:"required"`
}

// Result carries the lead after a gesture and whether its stage changed.
type Result struct {
	Lead    crm.Lead `json:"lead"`
	Changed bool     `json:"changed"`
}

// Controller applies stage gestures to a single workspace.
type Controller struct {
	store leadStager
}

func NewController(store leadStager) (*Controller, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "lead store required")
	}
	return &Controller{store: store}, nil
}

// Move handles a board drop. Dropping inside the source column changes
// nothing; the source must still be the lead's stage.
func (c *Controller) Move(ctx context.Context, req MoveRequest) (Result, error) {
	leadID := strings.TrimSpace(req.LeadID)
	source, err := parseStage(req.Source)
	if err != nil {
		return Result{}, err
	}
	destination, err := parseStage(req.Destination)
	if err != nil {
		return Result{}, err
	}

	lead, err := c.store.GetLead(leadID)
	if err != nil {
		return Result{}, err
	}
	if lead.Stage != source {
		return Result{}, pkgerrors.New(pkgerrors.CodeStateConflict, "lead is no longer in the source stage").
			WithDetails(map[string]any{
				"leadId":  leadID,
				"source":  string(source),
				"current": string(lead.Stage),
			})
	}
	if source == destination {
		return Result{Lead: lead}, nil
	}
	return c.apply(ctx, lead, destination)
}

// SetStage is the direct stage edit from a lead's detail view.
func (c *Controller) SetStage(ctx context.Context, leadID, destination string) (Result, error) {
	stage, err := parseStage(destination)
	if err != nil {
		return Result{}, err
	}
	lead, err := c.store.GetLead(strings.TrimSpace(leadID))
	if err != nil {
		return Result{}, err
	}
	return c.apply(ctx, lead, stage)
}

func (c *Controller) apply(ctx context.Context, lead crm.Lead, destination enums.PipelineStage) (Result, error) {
	decision := Decide(lead.Stage, destination)
	switch decision.Reason {
	case ReasonSameStage:
		return Result{Lead: lead}, nil
	case ReasonInvalidStage:
		return Result{}, invalidStage(string(destination))
	}

	updated, changed, err := c.store.ChangeStage(ctx, lead.ID, destination)
	if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodePersistence) {
		return Result{}, err
	}
	return Result{Lead: updated, Changed: changed}, err
}

func parseStage(raw string) (enums.PipelineStage, error) {
	stage, err := enums.ParsePipelineStage(strings.TrimSpace(raw))
	if err != nil {
		return "", invalidStage(raw)
	}
	return stage, nil
}

func invalidStage(raw string) error {
	return pkgerrors.New(pkgerrors.CodeInvalidStage, "unknown pipeline stage").
		WithDetails(map[string]any{"stage": raw})
}
