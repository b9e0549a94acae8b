package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/pipeline-crm/api/middleware"
	"github.com/angelmondragon/pipeline-crm/api/validators"
	"github.com/angelmondragon/pipeline-crm/internal/crm"
	"github.com/angelmondragon/pipeline-crm/internal/views"
	pkgerrors "github.com/angelmondragon/pipeline-crm/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func workspaceFrom(r *http.Request) (*crm.Store, error) {
	store := middleware.WorkspaceFromContext(r.Context())
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "workspace unavailable")
	}
	return store, nil
}

func leadIDParam(r *http.Request) (string, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "leadId"))
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "leadId is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid lead id").WithDetails(map[string]any{"leadId": raw})
	}
	return id.String(), nil
}

// filteredLeads applies the shared ?q= and ?stage= lead filters.
func filteredLeads(r *http.Request, leads []crm.Lead) ([]crm.Lead, error) {
	query, err := validators.ParseLeadQuery(r)
	if err != nil {
		return nil, err
	}
	return views.Search(leads, query.Term, query.Stage), nil
}
