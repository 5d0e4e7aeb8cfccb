// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

// Package ctxkey defines typed context keys used by middleware and handlers.
//
// Using a dedicated unexported type prevents key collisions with other
// packages storing values in the same [context.Context].
package ctxkey

type contextKey string

const (
	// KeyRequestID stores the request correlation ID.
	KeyRequestID contextKey = "request_id"

	// KeyLogger stores the per-request structured logger.
	KeyLogger contextKey = "logger"
)
