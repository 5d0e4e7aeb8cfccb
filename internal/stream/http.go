// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

package stream

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tabulo-data/tabulo/internal/platform/ctxutil"
	requestutil "github.com/tabulo-data/tabulo/internal/platform/request"
	"github.com/tabulo-data/tabulo/internal/platform/respond"
	"github.com/tabulo-data/tabulo/internal/querystore"
	"github.com/tabulo-data/tabulo/pkg/convert"
	queryutil "github.com/tabulo-data/tabulo/pkg/query"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/{id}", handler.streamQuery)
}

func (handler *Handler) streamQuery(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Param(request, "id")

	page := querystore.PageOptions{
		Format:     requestutil.Query(request, "format"),
		PageNumber: convert.ToIntD(requestutil.Query(request, "page_number"), 0),
		PageSize:   convert.ToIntD(requestutil.Query(request, "page_size"), 0),
		Sort:       queryutil.StringSlice(requestutil.Query(request, "sort")),
		Locale:     requestutil.Query(request, "locale"),
	}

	// Everything that can fail with a client error fails here, before any
	// response byte is committed.
	plan, err := handler.service.Prepare(request.Context(), id, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	writer.Header().Set("Content-Type", plan.Format.ContentType())
	if extension := plan.Format.Extension(); extension != "" {
		writer.Header().Set("Content-Disposition", `attachment; filename="`+id+`.`+extension+`"`)
	}

	if err := handler.service.Run(request.Context(), writer, plan); err != nil {
		// Headers are gone; the stream truncates and the failure is only
		// observable server-side.
		ctxutil.GetLogger(request.Context()).Error("stream_aborted",
			slog.String("query_id", id),
			slog.String("format", string(plan.Format)),
			slog.Any("error", err),
		)
	}
}
