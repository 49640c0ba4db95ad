// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

package ratelimit

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/physai/fieldbook/internal/platform/apperr"
	"github.com/physai/fieldbook/internal/platform/middleware"
	"github.com/physai/fieldbook/internal/platform/respond"
)

// Handler implements the anonymous quota HTTP endpoints.
//
// Neither endpoint requires authentication: the whole point is to meter
// visitors who have no account.
type Handler struct {
	rateLimitService *Service
}

// NewHandler constructs a rate-limit [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{rateLimitService: service}
}

// Routes returns a [chi.Router] with the quota endpoints.
//
// # Endpoints
//   - GET  /status  : Read-only remaining-quota check for the UI counter.
//   - POST /consume : Takes one quota slot; called before each chatbot turn.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/status", handler.status)
	router.Post("/consume", handler.consume)

	return router
}

// status handles GET /api/v1/rate-limit/status. It never consumes a slot:
// polling the counter cannot burn quota.
func (handler *Handler) status(writer http.ResponseWriter, request *http.Request) {
	identifier := middleware.AnonymousIdentifier(request)

	result, err := handler.rateLimitService.Status(request.Context(), identifier)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

// consume handles POST /api/v1/rate-limit/consume.
//
// # Returns
//   - 200 OK with the updated quota state when a slot was taken.
//   - 429 Too Many Requests (RATE_LIMITED) with the reset time when the
//     quota is exhausted.
func (handler *Handler) consume(writer http.ResponseWriter, request *http.Request) {
	identifier := middleware.AnonymousIdentifier(request)

	result, err := handler.rateLimitService.CheckAndConsume(request.Context(), identifier)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if !result.Allowed {
		respond.Error(writer, request, apperr.RateLimited(result.ResetAt))
		return
	}

	respond.OK(writer, result)
}
