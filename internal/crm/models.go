package crm

import (
	"time"

	"github.com/angelmondragon/pipeline-crm/pkg/enums"
)

// Snapshot collection names. Each one is persisted as a single blob per user.
const (
	CollectionLeads      = "leads"
	CollectionMeetings   = "meetings"
	CollectionActivities = "activities"
)

// Collections lists every persisted collection in load order.
var Collections = []string{CollectionLeads, CollectionMeetings, CollectionActivities}

// Lead is a sales prospect. It owns its notes (newest first) and reminders
// (insertion order).
type Lead struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Company   *string             `json:"company,omitempty"`
	Email     string              `json:"email"`
	Phone     *string             `json:"phone,omitempty"`
	Source    *string             `json:"source,omitempty"`
	Stage     enums.PipelineStage `json:"stage"`
	CreatedAt time.Time           `json:"createdAt"`
	Notes     []Note              `json:"notes"`
	Reminders []Reminder          `json:"reminders"`
}

type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Reminder is a dated follow-up. Date holds a calendar day at UTC midnight.
type Reminder struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Note      string    `json:"note"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsOverdue reports whether the reminder is past due and still open.
func (r Reminder) IsOverdue(now time.Time) bool {
	return !r.Completed && r.Date.Before(now)
}

// Meeting references a lead by id only. The lead may since have been deleted.
type Meeting struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	LeadID    string    `json:"leadId"`
	DateTime  time.Time `json:"dateTime"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Activity struct {
	ID        string             `json:"id"`
	Type      enums.ActivityType `json:"type"`
	Message   string             `json:"message"`
	LeadID    *string            `json:"leadId,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// State is a detached copy of a workspace's collections.
type State struct {
	Leads      []Lead     `json:"leads"`
	Meetings   []Meeting  `json:"meetings"`
	Activities []Activity `json:"activities"`
}

// DisplayCompany returns the company or an empty string.
func (l Lead) DisplayCompany() string {
	if l.Company == nil {
		return ""
	}
	return *l.Company
}

// LatestNote returns the most recent note, if any.
func (l Lead) LatestNote() (Note, bool) {
	if len(l.Notes) == 0 {
		return Note{}, false
	}
	return l.Notes[0], true
}

// PendingReminders counts reminders that are not completed.
func (l Lead) PendingReminders() int {
	n := 0
	for _, r := range l.Reminders {
		if !r.Completed {
			n++
		}
	}
	return n
}

func (l Lead) clone() Lead {
	out := l
	out.Company = cloneString(l.Company)
	out.Phone = cloneString(l.Phone)
	out.Source = cloneString(l.Source)
	out.Notes = append(make([]Note, 0, len(l.Notes)), l.Notes...)
	out.Reminders = append(make([]Reminder, 0, len(l.Reminders)), l.Reminders...)
	return out
}

func (m Meeting) clone() Meeting {
	out := m
	out.Notes = cloneString(m.Notes)
	return out
}

func (a Activity) clone() Activity {
	out := a
	out.LeadID = cloneString(a.LeadID)
	return out
}

func cloneLeads(in []Lead) []Lead {
	out := make([]Lead, len(in))
	for i := range in {
		out[i] = in[i].clone()
	}
	return out
}

func cloneMeetings(in []Meeting) []Meeting {
	out := make([]Meeting, len(in))
	for i := range in {
		out[i] = in[i].clone()
	}
	return out
}

func cloneActivities(in []Activity) []Activity {
	out := make([]Activity, len(in))
	for i := range in {
		out[i] = in[i].clone()
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
