// Package views derives read models from a workspace snapshot. Every
// function is pure: the same state and clock yield deep-equal results.
package views

import (
	"time"

	"github.com/angelmondragon/pipeline-crm/internal/crm"
	"github.com/angelmondragon/pipeline-crm/pkg/enums"
)

const (
	RecentActivityLimit  = 10
	UpcomingMeetingLimit = 5
)

type StageCount struct {
	Stage enums.StageInfo `json:"stage"`
	Count int             `json:"count"`
}

type DashboardStats struct {
	TotalLeads       int          `json:"totalLeads"`
	NewLeads         int          `json:"newLeads"`
	Qualified        int          `json:"qualified"`
	Proposals        int          `json:"proposals"`
	ClosedWon        int          `json:"closedWon"`
	UpcomingMeetings int          `json:"upcomingMeetings"`
	OverdueReminders int          `json:"overdueReminders"`
	ByStage          []StageCount `json:"byStage"`
}

// DashboardPage bundles everything the dashboard screen renders.
type DashboardPage struct {
	Stats            DashboardStats    `json:"stats"`
	RecentActivities []crm.Activity    `json:"recentActivities"`
	UpcomingMeetings []MeetingEntry    `json:"upcomingMeetings"`
	OverdueReminders []OverdueReminder `json:"overdueReminders"`
}

// Dashboard counts leads per stage, strictly future meetings, and overdue
// reminders.
func Dashboard(state crm.State, now time.Time) DashboardStats {
	counts := make(map[enums.PipelineStage]int, len(state.Leads))
	overdue := 0
	for _, lead := range state.Leads {
		counts[lead.Stage]++
		for _, r := range lead.Reminders {
			if r.IsOverdue(now) {
				overdue++
			}
		}
	}

	upcoming := 0
	for _, m := range state.Meetings {
		if m.DateTime.After(now) {
			upcoming++
		}
	}

	catalogue := enums.PipelineStages()
	byStage := make([]StageCount, 0, len(catalogue))
	for _, info := range catalogue {
		byStage = append(byStage, StageCount{Stage: info, Count: counts[info.ID]})
	}

	return DashboardStats{
		TotalLeads:       len(state.Leads),
		NewLeads:         counts[enums.PipelineStageNew],
		Qualified:        counts[enums.PipelineStageQualified],
		Proposals:        counts[enums.PipelineStageProposal],
		ClosedWon:        counts[enums.PipelineStageClosedWon],
		UpcomingMeetings: upcoming,
		OverdueReminders: overdue,
		ByStage:          byStage,
	}
}

// DashboardView assembles the dashboard page.
func DashboardView(state crm.State, now time.Time) DashboardPage {
	recent := state.Activities
	if len(recent) > RecentActivityLimit {
		recent = recent[:RecentActivityLimit]
	}

	future := make([]crm.Meeting, 0, len(state.Meetings))
	for _, m := range state.Meetings {
		if m.DateTime.After(now) {
			future = append(future, m)
		}
	}
	upcoming := resolveMeetings(sortedByTime(future), state.Leads)
	if len(upcoming) > UpcomingMeetingLimit {
		upcoming = upcoming[:UpcomingMeetingLimit]
	}

	return DashboardPage{
		Stats:            Dashboard(state, now),
		RecentActivities: append(make([]crm.Activity, 0, len(recent)), recent...),
		UpcomingMeetings: upcoming,
		OverdueReminders: OverdueReminders(state.Leads, now),
	}
}
