// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

package pivot

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tabulo-data/tabulo/internal/platform/ctxutil"
	requestutil "github.com/tabulo-data/tabulo/internal/platform/request"
	"github.com/tabulo-data/tabulo/internal/platform/respond"
	"github.com/tabulo-data/tabulo/internal/querystore"
	"github.com/tabulo-data/tabulo/pkg/convert"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/{id}/pivot", handler.pivotQuery)
}

func (handler *Handler) pivotQuery(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Param(request, "id")

	page := querystore.PageOptions{
		Format:     requestutil.Query(request, "format"),
		PageNumber: convert.ToIntD(requestutil.Query(request, "page_number"), 0),
		PageSize:   convert.ToIntD(requestutil.Query(request, "page_size"), 0),
		Locale:     requestutil.Query(request, "locale"),
	}

	plan, err := handler.service.Prepare(request.Context(), id, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	writer.Header().Set("Content-Type", plan.Format.ContentType())
	if extension := plan.Format.Extension(); extension != "" {
		writer.Header().Set("Content-Disposition", `attachment; filename="`+id+`_pivot.`+extension+`"`)
	}

	if err := handler.service.Run(request.Context(), writer, plan); err != nil {
		ctxutil.GetLogger(request.Context()).Error("pivot_stream_aborted",
			slog.String("query_id", id),
			slog.Any("error", err),
		)
	}
}
