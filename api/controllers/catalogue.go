package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/pipeline-crm/api/responses"
	"github.com/angelmondragon/pipeline-crm/internal/views"
	"github.com/angelmondragon/pipeline-crm/pkg/enums"
	"github.com/angelmondragon/pipeline-crm/pkg/logger"
)

// Stages returns the read-only pipeline catalogue in display order.
func Stages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, enums.PipelineStages())
	}
}

func Dashboard(now func() time.Time, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := workspaceFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views.DashboardView(store.State(), now()))
	}
}
