package views

import (
	"slices"
	"time"

	"github.com/angelmondragon/pipeline-crm/internal/crm"
)

const UnknownLeadLabel = "Unknown lead"

// MeetingEntry is a meeting with its lead reference resolved for display.
type MeetingEntry struct {
	crm.Meeting
	LeadLabel string `json:"leadLabel"`
	LeadKnown bool   `json:"leadKnown"`
}

type MeetingSplit struct {
	Upcoming []MeetingEntry `json:"upcoming"`
	Past     []MeetingEntry `json:"past"`
}

// SplitMeetings partitions meetings at now. Upcoming (at or after now) is
// sorted soonest first; past keeps collection order.
func SplitMeetings(meetings []crm.Meeting, leads []crm.Lead, now time.Time) MeetingSplit {
	upcoming := make([]crm.Meeting, 0, len(meetings))
	past := make([]crm.Meeting, 0, len(meetings))
	for _, m := range meetings {
		if m.DateTime.Before(now) {
			past = append(past, m)
			continue
		}
		upcoming = append(upcoming, m)
	}
	return MeetingSplit{
		Upcoming: resolveMeetings(sortedByTime(upcoming), leads),
		Past:     resolveMeetings(past, leads),
	}
}

// LeadLabel renders "name (company)" for a lead, or just the name.
func LeadLabel(lead crm.Lead) string {
	if company := lead.DisplayCompany(); company != "" {
		return lead.Name + " (" + company + ")"
	}
	return lead.Name
}

func resolveMeetings(meetings []crm.Meeting, leads []crm.Lead) []MeetingEntry {
	byID := make(map[string]crm.Lead, len(leads))
	for _, lead := range leads {
		byID[lead.ID] = lead
	}
	out := make([]MeetingEntry, 0, len(meetings))
	for _, m := range meetings {
		entry := MeetingEntry{Meeting: m, LeadLabel: UnknownLeadLabel}
		if lead, ok := byID[m.LeadID]; ok {
			entry.LeadLabel = LeadLabel(lead)
			entry.LeadKnown = true
		}
		out = append(out, entry)
	}
	return out
}

func sortedByTime(meetings []crm.Meeting) []crm.Meeting {
	out := slices.Clone(meetings)
	slices.SortStableFunc(out, func(a, b crm.Meeting) int {
		return a.DateTime.Compare(b.DateTime)
	})
	return out
}
