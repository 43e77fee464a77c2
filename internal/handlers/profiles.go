package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"docuchat/internal/contextutil"
	"docuchat/internal/profile"
	"docuchat/internal/service"
	"docuchat/internal/storage"
)

// ProfilesHandler handles the profile management API.
type ProfilesHandler struct {
	registry storage.ProfileRegistry
}

// NewProfilesHandler creates a new ProfilesHandler.
func NewProfilesHandler(registry storage.ProfileRegistry) *ProfilesHandler {
	return &ProfilesHandler{registry: registry}
}

// ProfileListResponse wraps the profile list.
//
// swagger:model ProfileListResponse
type ProfileListResponse struct {
	Profiles []profile.Profile `json:"profiles"`
}

// CurrentProfileResponse reports the active profile id.
//
// swagger:model CurrentProfileResponse
type CurrentProfileResponse struct {
	ProfileID string `json:"profileId"`
}

// DeleteProfileResponse reports the outcome of a delete call.
//
// swagger:model DeleteProfileResponse
type DeleteProfileResponse struct {
	Status  string `json:"status"`
	Outcome string `json:"outcome"`
}

// HiddenProfilesResponse lists hidden built-in profile ids.
//
// swagger:model HiddenProfilesResponse
type HiddenProfilesResponse struct {
	HiddenProfiles []string `json:"hiddenProfiles"`
}

// StatusResponse is a plain ok acknowledgment.
//
// swagger:model StatusResponse
type StatusResponse struct {
	Status string `json:"status"`
}

// List handles GET /api/v1/profiles?language=<lang>.
//
// swagger:route GET /api/v1/profiles profiles listProfiles
//
// # List all visible profiles
//
// Returns every non-hidden profile with display fields localized for the
// requested language.
//
// responses:
//
//	'200':
//	  description: Profile list
//	  schema:
//	    "$ref": "#/definitions/ProfileListResponse"
func (h *ProfilesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	language := strings.ToLower(r.URL.Query().Get("language"))

	profiles, err := h.registry.List(ctx, language)
	if err != nil {
		writeRegistryError(w, r, err, "Failed to list profiles")
		return
	}
	if profiles == nil {
		profiles = []profile.Profile{}
	}
	writeJSON(w, http.StatusOK, ProfileListResponse{Profiles: profiles})
}

// Create handles POST /api/v1/profiles.
//
// swagger:route POST /api/v1/profiles profiles createProfile
//
// # Create a custom profile
//
// The new profile is created inactive; activate it separately.
//
// responses:
//
//	'201':
//	  description: Created profile
//	'400':
//	  description: Invalid profile payload
//	'409':
//	  description: Id or name collides with an existing profile
func (h *ProfilesHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var in profile.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		logger.WarnContext(ctx, "invalid profile payload", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.registry.Create(ctx, in)
	if err != nil {
		writeRegistryError(w, r, err, "Failed to create profile")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Activate handles POST /api/v1/profiles/{id}/activate.
//
// swagger:route POST /api/v1/profiles/{id}/activate profiles activateProfile
//
// # Activate a profile
//
// Atomically deactivates the previously active profile and activates this
// one. Hidden profiles must be restored first.
//
// responses:
//
//	'200':
//	  description: The activated profile
//	'404':
//	  description: Unknown or hidden profile id
func (h *ProfilesHandler) Activate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	activated, err := h.registry.Activate(ctx, id)
	if err != nil {
		writeRegistryError(w, r, err, "Failed to activate profile")
		return
	}
	writeJSON(w, http.StatusOK, activated)
}

// Current handles GET /api/v1/profiles/current.
//
// swagger:route GET /api/v1/profiles/current profiles currentProfile
//
// # Get the active profile id
//
// responses:
//
//	'200':
//	  description: Active profile id
//	  schema:
//	    "$ref": "#/definitions/CurrentProfileResponse"
//	'500':
//	  description: No active profile exists (integrity fault)
func (h *ProfilesHandler) Current(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	active, err := h.registry.GetActive(ctx)
	if err != nil {
		writeRegistryError(w, r, err, "Failed to resolve active profile")
		return
	}
	writeJSON(w, http.StatusOK, CurrentProfileResponse{ProfileID: active.ID})
}

// Delete handles DELETE /api/v1/profiles/{id}[?force=true].
//
// swagger:route DELETE /api/v1/profiles/{id} profiles deleteProfile
//
// # Delete or hide a profile
//
// Custom profiles are deleted permanently; built-in profiles are hidden and
// can be restored. The active profile can never be removed; activate another
// profile first. force does not override either rule.
//
// responses:
//
//	'200':
//	  description: Outcome (deleted or hidden)
//	  schema:
//	    "$ref": "#/definitions/DeleteProfileResponse"
//	'404':
//	  description: Unknown profile id
//	'409':
//	  description: Profile is active
func (h *ProfilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	force := strings.EqualFold(r.URL.Query().Get("force"), "true")

	outcome, err := h.registry.Delete(ctx, id, force)
	if err != nil {
		writeRegistryError(w, r, err, "Failed to delete profile")
		return
	}
	writeJSON(w, http.StatusOK, DeleteProfileResponse{Status: "ok", Outcome: string(outcome)})
}

// Restore handles POST /api/v1/profiles/{id}/restore.
//
// swagger:route POST /api/v1/profiles/{id}/restore profiles restoreProfile
//
// # Restore a hidden profile
//
// Makes a hidden built-in visible again. Does not activate it.
//
// responses:
//
//	'200':
//	  description: Restored
//	'404':
//	  description: Profile is not hidden
func (h *ProfilesHandler) Restore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := h.registry.Restore(ctx, id); err != nil {
		writeRegistryError(w, r, err, "Failed to restore profile")
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// Hidden handles GET /api/v1/hidden-profiles.
//
// swagger:route GET /api/v1/hidden-profiles profiles hiddenProfiles
//
// # List hidden profiles
//
// responses:
//
//	'200':
//	  description: Hidden profile ids
//	  schema:
//	    "$ref": "#/definitions/HiddenProfilesResponse"
func (h *ProfilesHandler) Hidden(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ids, err := h.registry.ListHidden(ctx)
	if err != nil {
		writeRegistryError(w, r, err, "Failed to list hidden profiles")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, HiddenProfilesResponse{HiddenProfiles: ids})
}

// writeRegistryError maps the service error taxonomy onto HTTP status codes.
// Conflict is first-class: the UI shows delete-active-profile as an
// actionable message, not a generic failure.
func writeRegistryError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	switch {
	case errors.Is(err, service.ErrValidation):
		logger.WarnContext(ctx, "validation error", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		logger.WarnContext(ctx, "not found", "error", err)
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		logger.WarnContext(ctx, "conflict", "error", err)
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUpstream):
		logger.ErrorContext(ctx, "upstream failure", "error", err)
		writeError(w, http.StatusBadGateway, "External service error")
	case errors.Is(err, service.ErrIntegrity):
		logger.ErrorContext(ctx, "registry integrity fault", "error", err)
		writeError(w, http.StatusInternalServerError, "Profile registry is in an inconsistent state")
	default:
		logger.ErrorContext(ctx, "registry error", "error", err)
		writeError(w, http.StatusInternalServerError, defaultMsg)
	}
}
