package crm

import (
	"time"

	"github.com/angelmondragon/pipeline-crm/pkg/enums"
)

// ActivityLogLimit caps the activity log; the oldest entries fall off.
const ActivityLogLimit = 50

// Recorder keeps the bounded, newest-first activity log. It is not safe for
// concurrent use; the Store serializes access.
type Recorder struct {
	entries []Activity
	limit   int
	now     func() time.Time
	newID   func() string
}

// NewRecorder builds a recorder seeded with a previously persisted log.
func NewRecorder(now func() time.Time, newID func() string, restored []Activity) *Recorder {
	r := &Recorder{
		limit: ActivityLogLimit,
		now:   now,
		newID: newID,
	}
	r.entries = cloneActivities(restored)
	if len(r.entries) > r.limit {
		r.entries = r.entries[:r.limit]
	}
	return r
}

// Record prepends an entry and truncates the log to the limit.
func (r *Recorder) Record(kind enums.ActivityType, message, leadID string) Activity {
	entry := Activity{
		ID:        r.newID(),
		Type:      kind,
		Message:   message,
		LeadID:    optional(leadID),
		Timestamp: r.now().UTC(),
	}
	next := make([]Activity, 0, min(len(r.entries)+1, r.limit))
	next = append(next, entry)
	for _, existing := range r.entries {
		if len(next) == r.limit {
			break
		}
		next = append(next, existing)
	}
	r.entries = next
	return entry.clone()
}

// Entries returns a copy of the log, newest first.
func (r *Recorder) Entries() []Activity {
	return cloneActivities(r.entries)
}

func (r *Recorder) raw() []Activity {
	return r.entries
}
