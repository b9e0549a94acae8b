package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/pipeline-crm/api/responses"
	"github.com/angelmondragon/pipeline-crm/api/validators"
	"github.com/angelmondragon/pipeline-crm/internal/crm"
	"github.com/angelmondragon/pipeline-crm/internal/views"
	pkgerrors "github.com/angelmondragon/pipeline-crm/pkg/errors"
	"github.com/angelmondragon/pipeline-crm/pkg/logger"
)

// Layouts accepted for a meeting's dateTime. The second one is what a
// browser datetime-local input submits; it is read as UTC.
var meetingTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04"}

type meetingRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	LeadID   string `json:"leadId" validate:"required"`
	DateTime string `json:"dateTime" validate:"required"`
	Notes    string `json:"notes" validate:"max=4000"`
}

func parseMeetingTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range meetingTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
		WithDetails(map[string]string{"dateTime": "must be RFC3339 or YYYY-MM-DDTHH:MM"})
}

// MeetingsList splits meetings into upcoming and past at the request time.
func MeetingsList(now func() time.Time, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := workspaceFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state := store.State()
		responses.WriteSuccess(w, views.SplitMeetings(state.Meetings, state.Leads, now()))
	}
}

func MeetingCreate(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := workspaceFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body meetingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		at, err := parseMeetingTime(body.DateTime)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		meeting, err := store.CreateMeeting(logg.WithLeadID(r.Context(), body.LeadID), crm.MeetingInput{
			Title:    body.Title,
			LeadID:   body.LeadID,
			DateTime: at,
			Notes:    body.Notes,
		})
		responses.WriteMutation(r.Context(), logg, w, http.StatusCreated, meeting, err)
	}
}
