// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

package querystore

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/tabulo-data/tabulo/internal/platform/request"
	"github.com/tabulo-data/tabulo/internal/platform/respond"
	"github.com/tabulo-data/tabulo/internal/platform/validate"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/{datasetID}/query", handler.createQuery)
}

// createQueryRequest is the POST body of a consumer query request. The
// caller supplies the dataset's current revision; revision resolution is an
// upstream concern.
type createQueryRequest struct {
	RevisionID string          `json:"revision_id"`
	Options    ConsumerOptions `json:"options"`
}

func (handler *Handler) createQuery(writer http.ResponseWriter, request *http.Request) {
	datasetID := requestutil.Param(request, "datasetID")

	var body createQueryRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required("revision_id", body.RevisionID)
	if body.Options.Options.DataValueType != "" {
		validator.OneOf("data_value_type", string(body.Options.Options.DataValueType),
			string(DataValueRaw),
			string(DataValueFormatted),
			string(DataValueWithNoteCodes),
		)
	}
	if validator.HasErrors() {
		respond.Error(writer, request, validator.Err())
		return
	}

	entry, err := handler.service.GetOrCreate(request.Context(), datasetID, body.RevisionID, body.Options)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, entry)
}
