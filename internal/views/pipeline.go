package views

import (
	"time"

	"github.com/angelmondragon/pipeline-crm/internal/crm"
	"github.com/angelmondragon/pipeline-crm/pkg/enums"
)

// StageBucket is one board column.
type StageBucket struct {
	Stage enums.StageInfo `json:"stage"`
	Leads []crm.Lead      `json:"leads"`
	Count int             `json:"count"`
}

// PipelineRow is one line of the pipeline table.
type PipelineRow struct {
	crm.Lead
	StageLabel       string    `json:"stageLabel"`
	StageColor       string    `json:"stageColor"`
	LastContact      time.Time `json:"lastContact"`
	PendingReminders int       `json:"pendingReminders"`
}

// GroupByStage returns one bucket per catalogue stage, in catalogue order,
// even when a bucket is empty.
func GroupByStage(leads []crm.Lead) []StageBucket {
	catalogue := enums.PipelineStages()
	index := make(map[enums.PipelineStage]int, len(catalogue))
	buckets := make([]StageBucket, len(catalogue))
	for i, info := range catalogue {
		index[info.ID] = i
		buckets[i] = StageBucket{Stage: info, Leads: []crm.Lead{}}
	}
	for _, lead := range leads {
		i, ok := index[lead.Stage]
		if !ok {
			continue
		}
		buckets[i].Leads = append(buckets[i].Leads, lead)
		buckets[i].Count++
	}
	return buckets
}

// PipelineRows annotates each lead with its stage display data, the last
// contact time (latest note, else creation) and its open reminder count.
func PipelineRows(leads []crm.Lead) []PipelineRow {
	rows := make([]PipelineRow, 0, len(leads))
	for _, lead := range leads {
		info, _ := lead.Stage.Info()
		lastContact := lead.CreatedAt
		if note, ok := lead.LatestNote(); ok {
			lastContact = note.Timestamp
		}
		rows = append(rows, PipelineRow{
			Lead:             lead,
			StageLabel:       lead.Stage.Label(),
			StageColor:       info.Color,
			LastContact:      lastContact,
			PendingReminders: lead.PendingReminders(),
		})
	}
	return rows
}
