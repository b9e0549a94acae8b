// Package pipeline decides which stage changes a lead may take and applies
// board gestures through the workspace store.
package pipeline

import "github.com/angelmondragon/pipeline-crm/pkg/enums"

// Reason explains a rejected transition.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonInvalidStage Reason = "invalid_stage"
	ReasonSameStage    Reason = "same_stage"
)

type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason,omitempty"`
}

// Decide reports whether a lead in current may move to requested. Any two
// distinct catalogue stages are connected, closed stages included.
func Decide(current, requested enums.PipelineStage) Decision {
	if !requested.IsValid() {
		return Decision{Reason: ReasonInvalidStage}
	}
	if current == requested {
		return Decision{Reason: ReasonSameStage}
	}
	return Decision{Allowed: true}
}
