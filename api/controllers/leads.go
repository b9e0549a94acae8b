package controllers

import (
	"net/http"

	"github.com/angelmondragon/pipeline-crm/api/responses"
	"github.com/angelmondragon/pipeline-crm/api/validators"
	"github.com/angelmondragon/pipeline-crm/internal/crm"
	"github.com/angelmondragon/pipeline-crm/internal/export"
	"github.com/angelmondragon/pipeline-crm/internal/views"
	"github.com/angelmondragon/pipeline-crm/pkg/logger"
)

type noteRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

// LeadsList searches the caller's leads by ?q= and ?stage=.
func LeadsList(logg *logger.Logger) http.HandlerFunc {
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
		responses.WriteSuccess(w, leads)
	}
}

func LeadGet(logg *logger.Logger) http.HandlerFunc {
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
		lead, err := store.GetLead(id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lead)
	}
}

func LeadCreate(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := workspaceFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body crm.CreateLeadInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lead, err := store.CreateLead(r.Context(), body)
		responses.WriteMutation(r.Context(), logg, w, http.StatusCreated, lead, err)
	}
}

func LeadUpdate(logg *logger.Logger) http.HandlerFunc {
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
		var patch crm.LeadPatch
		if err := validators.DecodeJSONBody(r, &patch); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lead, err := store.UpdateLead(logg.WithLeadID(r.Context(), id), id, patch)
		responses.WriteMutation(r.Context(), logg, w, http.StatusOK, lead, err)
	}
}

func LeadDelete(logg *logger.Logger) http.HandlerFunc {
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
		err = store.DeleteLead(logg.WithLeadID(r.Context(), id), id)
		responses.WriteMutation(r.Context(), logg, w, http.StatusOK, map[string]any{"id": id, "deleted": true}, err)
	}
}

func LeadAddNote(logg *logger.Logger) http.HandlerFunc {
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
		var body noteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		note, err := store.AddNote(logg.WithLeadID(r.Context(), id), id, body.Text)
		responses.WriteMutation(r.Context(), logg, w, http.StatusCreated, note, err)
	}
}

func LeadAddReminder(logg *logger.Logger) http.HandlerFunc {
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
		var body crm.ReminderInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reminder, err := store.AddReminder(logg.WithLeadID(r.Context(), id), id, body)
		responses.WriteMutation(r.Context(), logg, w, http.StatusCreated, reminder, err)
	}
}

// LeadsExport streams the filtered leads as a CSV attachment.
func LeadsExport(logg *logger.Logger) http.HandlerFunc {
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
		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName+`"`)
		w.WriteHeader(http.StatusOK)
		if err := export.WriteCSV(w, leads); err != nil && logg != nil {
			logg.Error(r.Context(), "csv export write failed", err)
		}
	}
}

// Clients lists won deals.
func Clients(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := workspaceFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views.Clients(store.State().Leads))
	}
}
