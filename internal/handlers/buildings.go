package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/campusnav/apiserver/internal/services"
	"github.com/campusnav/apiserver/internal/store"
)

// BuildingHandler exposes buildings addressed by any of their identifiers.
type BuildingHandler struct {
	buildingService *services.BuildingService
	log             zerolog.Logger
}

func NewBuildingHandler(buildingService *services.BuildingService, log zerolog.Logger) *BuildingHandler {
	return &BuildingHandler{buildingService: buildingService, log: log}
}

// BuildingRouter registers building routes. Each item route is reachable
// as /{buildingID}, as /?id= and, for PUT and DELETE, with "id" in the body.
func BuildingRouter(r chi.Router, buildingService *services.BuildingService, log zerolog.Logger) {
	handler := NewBuildingHandler(buildingService, log)

	r.Get("/", handler.ListOrGet)
	r.Post("/", handler.CreateBuilding)
	r.Put("/", handler.UpdateBuilding)
	r.Delete("/", handler.DeleteBuilding)
	r.Route("/{buildingID}", func(r chi.Router) {
		r.Get("/", handler.GetBuilding)
		r.Put("/", handler.UpdateBuilding)
		r.Delete("/", handler.DeleteBuilding)
	})
}

type BuildingNotFoundResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	ProvidedID string `json:"providedId"`
}

type BuildingDeletedResponse struct {
	Message   string `json:"message"`
	DeletedID string `json:"deletedId"`
}

// ListOrGet lists every building, or resolves ?id= when present.
func (h *BuildingHandler) ListOrGet(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Has("id") {
		h.GetBuilding(w, r)
		return
	}

	buildings, err := h.buildingService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, buildings)
}

func (h *BuildingHandler) GetBuilding(w http.ResponseWriter, r *http.Request) {
	rawID := buildingID(r)
	building, err := h.buildingService.Get(r.Context(), rawID)
	if err != nil {
		h.writeError(w, r, rawID, err)
		return
	}
	writeJSON(w, http.StatusOK, building)
}

func (h *BuildingHandler) CreateBuilding(w http.ResponseWriter, r *http.Request) {
	var building store.Document
	if err := decodeJSON(w, r, &building); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	created, err := h.buildingService.Create(r.Context(), building)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *BuildingHandler) UpdateBuilding(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	rawID := buildingID(r)
	if rawID == "" {
		rawID, _ = patch["id"].(string)
		delete(patch, "id")
	}
	if rawID == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "building id is required")
		return
	}

	updated, err := h.buildingService.Update(r.Context(), rawID, patch)
	if err != nil {
		h.writeError(w, r, rawID, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *BuildingHandler) DeleteBuilding(w http.ResponseWriter, r *http.Request) {
	rawID := buildingID(r)
	if rawID == "" && r.ContentLength != 0 {
		var body struct {
			ID string `json:"id"`
		}
		if err := decodeJSON(w, r, &body); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
			return
		}
		rawID = body.ID
	}
	if rawID == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "building id is required")
		return
	}

	if err := h.buildingService.Delete(r.Context(), rawID); err != nil {
		h.writeError(w, r, rawID, err)
		return
	}
	writeJSON(w, http.StatusOK, BuildingDeletedResponse{
		Message:   "Building deleted successfully",
		DeletedID: rawID,
	})
}

func (h *BuildingHandler) writeError(w http.ResponseWriter, r *http.Request, rawID string, err error) {
	if errors.Is(err, services.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, BuildingNotFoundResponse{
			Error:      "Building not found",
			Code:       codeNotFound,
			ProvidedID: rawID,
		})
		return
	}
	writeServiceError(w, r, h.log, err)
}

// buildingID returns the identifier exactly as the client sent it.
func buildingID(r *http.Request) string {
	if raw := chi.URLParam(r, "buildingID"); raw != "" {
		return raw
	}
	return r.URL.Query().Get("id")
}
