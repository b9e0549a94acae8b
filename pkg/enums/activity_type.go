package enums

import "fmt"

// ActivityType classifies entries in the workspace activity log.
type ActivityType string

const (
	ActivityLeadCreated      ActivityType = "lead_created"
	ActivityLeadUpdated      ActivityType = "lead_updated"
	ActivityLeadDeleted      ActivityType = "lead_deleted"
	ActivityNoteAdded        ActivityType = "note_added"
	ActivityReminderSet      ActivityType = "reminder_set"
	ActivityMeetingScheduled ActivityType = "meeting_scheduled"
	ActivityStageChanged     ActivityType = "stage_changed"
)

var validActivityTypes = []ActivityType{
	ActivityLeadCreated,
	ActivityLeadUpdated,
	ActivityLeadDeleted,
	ActivityNoteAdded,
	ActivityReminderSet,
	ActivityMeetingScheduled,
	ActivityStageChanged,
}

// IsValid reports whether the value matches a known activity type.
func (a ActivityType) IsValid() bool {
	for _, candidate := range validActivityTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActivityType converts the raw string to ActivityType.
func ParseActivityType(value string) (ActivityType, error) {
	for _, candidate := range validActivityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity type %q", value)
}
