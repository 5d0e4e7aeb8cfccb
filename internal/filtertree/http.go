// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

package filtertree

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tabulo-data/tabulo/internal/locale"
	requestutil "github.com/tabulo-data/tabulo/internal/platform/request"
	"github.com/tabulo-data/tabulo/internal/platform/respond"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/{revisionID}/filters", handler.getFilters)
}

func (handler *Handler) getFilters(writer http.ResponseWriter, request *http.Request) {
	revisionID := requestutil.Param(request, "revisionID")

	loc, err := locale.Match(requestutil.Query(request, "locale"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	trees, err := handler.service.BuildForRevision(request.Context(), revisionID, loc)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, trees)
}
