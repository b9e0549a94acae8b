package enums

import "fmt"

// PipelineStage identifies a column of the sales pipeline.
type PipelineStage string

const (
	PipelineStageNew        PipelineStage = "new"
	PipelineStageQualified  PipelineStage = "qualified"
	PipelineStageFollowUp   PipelineStage = "follow-up"
	PipelineStageProposal   PipelineStage = "proposal"
	PipelineStageClosedWon  PipelineStage = "closed-won"
	PipelineStageClosedLost PipelineStage = "closed-lost"
)

// StageInfo is the read-only display metadata for a pipeline stage.
type StageInfo struct {
	ID    PipelineStage `json:"id"`
	Label string        `json:"label"`
	Color string        `json:"color"`
}

// Display order matters: dashboards and boards iterate this slice.
var stageCatalogue = []StageInfo{
	{ID: PipelineStageNew, Label: "New Lead", Color: "#3B82F6"},
	{ID: PipelineStageQualified, Label: "Qualified", Color: "#8B5CF6"},
	{ID: PipelineStageFollowUp, Label: "Follow-up", Color: "#F59E0B"},
	{ID: PipelineStageProposal, Label: "Proposal", Color: "#10B981"},
	{ID: PipelineStageClosedWon, Label: "Closed Won", Color: "#059669"},
	{ID: PipelineStageClosedLost, Label: "Closed Lost", Color: "#EF4444"},
}

// PipelineStages returns a copy of the stage catalogue in display order.
func PipelineStages() []StageInfo {
	out := make([]StageInfo, len(stageCatalogue))
	copy(out, stageCatalogue)
	return out
}

// IsValid reports whether the value is one of the catalogue stages.
func (s PipelineStage) IsValid() bool {
	_, ok := s.Info()
	return ok
}

// Info returns the catalogue entry for the stage.
func (s PipelineStage) Info() (StageInfo, bool) {
	for _, candidate := range stageCatalogue {
		if candidate.ID == s {
			return candidate, true
		}
	}
	return StageInfo{}, false
}

// Label returns the display label, falling back to the raw id for unknown stages.
func (s PipelineStage) Label() string {
	if info, ok := s.Info(); ok {
		return info.Label
	}
	return string(s)
}

// ParsePipelineStage converts the raw string to PipelineStage.
func ParsePipelineStage(value string) (PipelineStage, error) {
	for _, candidate := range stageCatalogue {
		if string(candidate.ID) == value {
			return candidate.ID, nil
		}
	}
	return "", fmt.Errorf("invalid pipeline stage %q", value)
}
