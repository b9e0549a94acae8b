package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/pipeline-crm/api/responses"
	"github.com/angelmondragon/pipeline-crm/api/validators"
	"github.com/angelmondragon/pipeline-crm/internal/crm"
	"github.com/angelmondragon/pipeline-crm/internal/views"
	"github.com/angelmondragon/pipeline-crm/pkg/logger"
)

// Activities returns the newest ?limit= entries of the activity log.
func Activities(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := workspaceFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", crm.ActivityLogLimit, 1, crm.ActivityLogLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entries := store.State().Activities
		if len(entries) > limit {
			entries = entries[:limit]
		}
		responses.WriteSuccess(w, entries)
	}
}

func OverdueReminders(now func() time.Time, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := workspaceFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views.OverdueReminders(store.State().Leads, now()))
	}
}
