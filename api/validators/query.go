package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/angelmondragon/pipeline-crm/internal/views"
	pkgerrors "github.com/angelmondragon/pipeline-crm/pkg/errors"
)

// LeadQuery is the shared filter behind the lead list, the board and the
// CSV export.
type LeadQuery struct {
	Term  string
	Stage views.StageFilter
}

// ParseLeadQuery reads ?q= (trimmed, capped at MaxSearchTermLength runes)
// and ?stage= (a stage id, "all" or blank). An unknown stage is INVALID_STAGE.
func ParseLeadQuery(r *http.Request) (LeadQuery, error) {
	filter, err := views.ParseStageFilter(r.URL.Query().Get("stage"))
	if err != nil {
		return LeadQuery{}, err
	}
	return LeadQuery{Term: SearchTerm(r), Stage: filter}, nil
}

// ParseQueryInt reads an optional bounded integer such as ?limit= on the
// activity log.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, key+" must be numeric").
			WithDetails(map[string]any{"field": key, "value": raw})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" out of range").
			WithDetails(map[string]any{"field": key, "value": value, "min": min, "max": max})
	}
	return value, nil
}
