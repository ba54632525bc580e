// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the REST API handlers for newsline. Handlers own
// transport concerns only: parsing, upload limits, auth and status codes.
// Business rules live in the news engine and the identity registry.
package handler

import (
	"log/slog"

	"github.com/keepreverse/newsline-go/internal/attach"
	"github.com/keepreverse/newsline-go/internal/auth"
	"github.com/keepreverse/newsline-go/internal/identity"
	"github.com/keepreverse/newsline-go/internal/news"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	engine   *news.Engine
	registry *identity.Registry
	tokens   *auth.TokenIssuer
	files    *attach.Store
	logger   *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(engine *news.Engine, registry *identity.Registry, tokens *auth.TokenIssuer, files *attach.Store, logger *slog.Logger) *Handler {
	return &Handler{
		engine:   engine,
		registry: registry,
		tokens:   tokens,
		files:    files,
		logger:   logger,
	}
}
