package views

import (
	"strings"

	"github.com/angelmondragon/pipeline-crm/internal/crm"
	"github.com/angelmondragon/pipeline-crm/pkg/enums"
	pkgerrors "github.com/angelmondragon/pipeline-crm/pkg/errors"
)

const StageFilterAll = "all"

// StageFilter restricts search results to one stage, or none.
type StageFilter struct {
	stage enums.PipelineStage
}

// AllStages matches leads in any stage.
var AllStages = StageFilter{}

// OnlyStage matches leads in the given stage.
func OnlyStage(stage enums.PipelineStage) StageFilter {
	return StageFilter{stage: stage}
}

// ParseStageFilter accepts a stage id, "all", or blank.
func ParseStageFilter(raw string) (StageFilter, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, StageFilterAll) {
		return AllStages, nil
	}
	stage, err := enums.ParsePipelineStage(raw)
	if err != nil {
		return StageFilter{}, pkgerrors.Wrap(pkgerrors.CodeInvalidStage, err, "unknown stage filter").
			WithDetails(map[string]any{"stage": raw})
	}
	return OnlyStage(stage), nil
}

func (f StageFilter) matches(stage enums.PipelineStage) bool {
	return f.stage == "" || f.stage == stage
}

// Search keeps leads whose name, company or email contains term
// (case-insensitive) and whose stage passes the filter. Input order is kept.
func Search(leads []crm.Lead, term string, filter StageFilter) []crm.Lead {
	needle := strings.ToLower(strings.TrimSpace(term))
	out := make([]crm.Lead, 0, len(leads))
	for _, lead := range leads {
		if !filter.matches(lead.Stage) {
			continue
		}
		if needle != "" && !matchesTerm(lead, needle) {
			continue
		}
		out = append(out, lead)
	}
	return out
}

func matchesTerm(lead crm.Lead, needle string) bool {
	for _, field := range []string{lead.Name, lead.DisplayCompany(), lead.Email} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// Clients returns the won deals.
func Clients(leads []crm.Lead) []crm.Lead {
	return Search(leads, "", OnlyStage(enums.PipelineStageClosedWon))
}
