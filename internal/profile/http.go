// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

package profile

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/physai/fieldbook/internal/platform/ctxutil"
	"github.com/physai/fieldbook/internal/platform/middleware"
	"github.com/physai/fieldbook/internal/platform/respond"
	"github.com/physai/fieldbook/internal/platform/validate"
)

// Handler implements the questionnaire HTTP endpoints.
type Handler struct {
	profileService *Service
}

// NewHandler constructs a profile [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{profileService: service}
}

// Routes returns a [chi.Router] with the profile endpoints. Every route
// requires an authenticated access cookie.
//
// # Endpoints
//   - GET      /profile : Returns the caller's questionnaire profile.
//   - POST/PUT /profile : Creates or wholesale-replaces the profile.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/profile", handler.get)
	router.Post("/profile", handler.upsert)
	router.Put("/profile", handler.upsert)

	return router
}

// upsertRequest is the JSON payload for a questionnaire submission.
type upsertRequest struct {
	ProgrammingLevel    string `json:"programming_level"`
	RoboticsFamiliarity string `json:"robotics_familiarity"`
	HardwareExperience  string `json:"hardware_experience"`
	LearningGoal        string `json:"learning_goal"`
}

// get handles GET /api/v1/user/profile.
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	claims := ctxutil.GetAuthUser(request.Context())

	profile, err := handler.profileService.FindByAccountID(request.Context(), claims.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}

// upsert handles POST and PUT /api/v1/user/profile.
//
// # Returns
//   - 200 OK with the stored profile.
//   - 400 Bad Request when any field is missing or outside its value set.
func (handler *Handler) upsert(writer http.ResponseWriter, request *http.Request) {
	var input upsertRequest
	if err := json.NewDecoder(request.Body).Decode(&input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	claims := ctxutil.GetAuthUser(request.Context())

	profile, err := handler.profileService.Upsert(request.Context(), UpsertInput{
		AccountID:           claims.UserID,
		ProgrammingLevel:    input.ProgrammingLevel,
		RoboticsFamiliarity: input.RoboticsFamiliarity,
		HardwareExperience:  input.HardwareExperience,
		LearningGoal:        input.LearningGoal,
		SourceIP:            middleware.RealIP(request),
		UserAgent:           request.UserAgent(),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}
