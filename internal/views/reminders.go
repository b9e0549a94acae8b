package views

import (
	"slices"
	"time"

	"github.com/angelmondragon/pipeline-crm/internal/crm"
)

// OverdueReminder is an open, past-due reminder tagged with its lead.
type OverdueReminder struct {
	crm.Reminder
	LeadID   string `json:"leadId"`
	LeadName string `json:"leadName"`
}

// OverdueReminders flattens every overdue reminder across leads, earliest
// date first. Ties keep lead order.
func OverdueReminders(leads []crm.Lead, now time.Time) []OverdueReminder {
	out := []OverdueReminder{}
	for _, lead := range leads {
		for _, r := range lead.Reminders {
			if !r.IsOverdue(now) {
				continue
			}
			out = append(out, OverdueReminder{Reminder: r, LeadID: lead.ID, LeadName: lead.Name})
		}
	}
	slices.SortStableFunc(out, func(a, b OverdueReminder) int {
		return a.Date.Compare(b.Date)
	})
	return out
}
