// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

package api

import (
	"net/http"

	"github.com/tabulo-data/tabulo/internal/locale"
	"github.com/tabulo-data/tabulo/internal/platform/respond"
)

// listLocales handles GET /api/v1/locales. The locale table is compiled in,
// so this is a static catalogue endpoint for frontend language pickers.
func listLocales(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, locale.Supported)
}
