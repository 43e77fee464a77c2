package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"docuchat/internal/profile"
	"docuchat/internal/service"
	"docuchat/internal/storage"
	"docuchat/internal/storage/mocks"
)

func newProfilesRouter(registry storage.ProfileRegistry) *chi.Mux {
	h := NewProfilesHandler(registry)
	r := chi.NewRouter()
	r.Get("/profiles", h.List)
	r.Post("/profiles", h.Create)
	r.Get("/profiles/current", h.Current)
	r.Post("/profiles/{id}/activate", h.Activate)
	r.Delete("/profiles/{id}", h.Delete)
	r.Post("/profiles/{id}/restore", h.Restore)
	r.Get("/hidden-profiles", h.Hidden)
	return r
}

func TestProfilesList(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockProfileRegistry(ctrl)

	registry.EXPECT().List(gomock.Any(), "he").Return([]profile.Profile{
		{ID: "balanced", Name: "מאוזן", IsActive: true},
	}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/profiles?language=HE", nil)
	newProfilesRouter(registry).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp ProfileListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Profiles) != 1 || resp.Profiles[0].ID != "balanced" {
		t.Errorf("unexpected profiles: %+v", resp.Profiles)
	}
}

func TestProfilesList_EmptyIsArrayNotNull(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockProfileRegistry(ctrl)
	registry.EXPECT().List(gomock.Any(), "").Return(nil, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/profiles", nil)
	newProfilesRouter(registry).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if string(raw["profiles"]) != "[]" {
		t.Errorf("profiles = %s, want []", raw["profiles"])
	}
}

func TestProfilesCreate(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockProfileRegistry(ctrl)

	registry.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, in profile.Input) (*profile.Profile, error) {
			if in.Name != "My Profile" {
				t.Errorf("name = %q", in.Name)
			}
			return &profile.Profile{ID: "my-profile", Name: in.Name, IsCustom: true}, nil
		})

	body := bytes.NewBufferString(`{"name": "My Profile"}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/profiles", body)
	newProfilesRouter(registry).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}
	var created profile.Profile
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.ID != "my-profile" || !created.IsCustom {
		t.Errorf("unexpected profile: %+v", created)
	}
}

func TestProfilesCreate_InvalidJSON(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockProfileRegistry(ctrl)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/profiles", bytes.NewBufferString("{not json"))
	newProfilesRouter(registry).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestProfilesActivate(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockProfileRegistry(ctrl)

	registry.EXPECT().Activate(gomock.Any(), "quality").
		Return(&profile.Profile{ID: "quality", IsActive: true}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/profiles/quality/activate", nil)
	newProfilesRouter(registry).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestProfilesCurrent(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockProfileRegistry(ctrl)

	registry.EXPECT().GetActive(gomock.Any()).
		Return(&profile.Profile{ID: "balanced", IsActive: true}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/profiles/current", nil)
	newProfilesRouter(registry).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp CurrentProfileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ProfileID != "balanced" {
		t.Errorf("profileId = %q, want balanced", resp.ProfileID)
	}
}

func TestProfilesDelete_ForceFlagPassedThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockProfileRegistry(ctrl)

	registry.EXPECT().Delete(gomock.Any(), "fast", true).
		Return(storage.OutcomeHidden, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/profiles/fast?force=true", nil)
	newProfilesRouter(registry).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp DeleteProfileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Outcome != string(storage.OutcomeHidden) {
		t.Errorf("outcome = %q, want hidden", resp.Outcome)
	}
}

func TestProfilesRestore(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockProfileRegistry(ctrl)
	registry.EXPECT().Restore(gomock.Any(), "fast").Return(nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/profiles/fast/restore", nil)
	newProfilesRouter(registry).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestProfilesHidden_EmptyIsArrayNotNull(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockProfileRegistry(ctrl)
	registry.EXPECT().ListHidden(gomock.Any()).Return(nil, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/hidden-profiles", nil)
	newProfilesRouter(registry).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if string(raw["hiddenProfiles"]) != "[]" {
		t.Errorf("hiddenProfiles = %s, want []", raw["hiddenProfiles"])
	}
}

func TestRegistryErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", &service.ValidationError{Field: "name", Message: "name must not be empty"}, http.StatusBadRequest},
		{"not found", fmt.Errorf("profile: %w", service.ErrNotFound), http.StatusNotFound},
		{"conflict", fmt.Errorf("active profile: %w", service.ErrConflict), http.StatusConflict},
		{"upstream", fmt.Errorf("qdrant: %w", service.ErrUpstream), http.StatusBadGateway},
		{"integrity", fmt.Errorf("no active profile: %w", service.ErrIntegrity), http.StatusInternalServerError},
		{"unknown", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			registry := mocks.NewMockProfileRegistry(ctrl)
			registry.EXPECT().Activate(gomock.Any(), "x").Return(nil, tt.err)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/profiles/x/activate", nil)
			newProfilesRouter(registry).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("error body is not JSON: %v", err)
			}
			if resp.Error == "" {
				t.Error("error body missing message")
			}
		})
	}
}
