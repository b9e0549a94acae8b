package controllers

import (
	"net/http"

	"github.com/angelmondragon/pipeline-crm/api/responses"
	"github.com/angelmondragon/pipeline-crm/api/validators"
	"github.com/angelmondragon/pipeline-crm/internal/pipeline"
	"github.com/angelmondragon/pipeline-crm/internal/views"
	"github.com/angelmondragon/pipeline-crm/pkg/logger"
)

type stageRequest struct {
	Stage string `json:"stage" validate:"required"`
}

type pipelineResponse struct {
	Columns []views.StageBucket `json:"columns"`
	Rows    []views.PipelineRow `json:"rows"`
}

// PipelineBoard returns the filtered leads both as board columns and as
// table rows.
func PipelineBoard(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := workspaceFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		leads, err := filteredLeads(r, store.State().Leads)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pipelineResponse{
			Columns: views.GroupByStage(leads),
			Rows:    views.PipelineRows(leads),
		})
	}
}

// PipelineMove applies a board drag from one column to another.
func PipelineMove(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := workspaceFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body pipeline.MoveRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctrl, err := pipeline.NewController(store)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := ctrl.Move(logg.WithLeadID(r.Context(), body.LeadID), body)
		responses.WriteMutation(r.Context(), logg, w, http.StatusOK, result, err)
	}
}

// LeadSetStage is the direct stage edit for one lead.
func LeadSetStage(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := workspaceFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := leadIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body stageRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctrl, err := pipeline.NewController(store)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := ctrl.SetStage(logg.WithLeadID(r.Context(), id), id, body.Stage)
		responses.WriteMutation(r.Context(), logg, w, http.StatusOK, result, err)
	}
}
