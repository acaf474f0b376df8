package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/campusnav/apiserver/internal/services"
)

// PlaceHandler serves coordinates, links and routes.
type PlaceHandler struct {
	placeService *services.PlaceService
	log          zerolog.Logger
}

func NewPlaceHandler(placeService *services.PlaceService, log zerolog.Logger) *PlaceHandler {
	return &PlaceHandler{placeService: placeService, log: log}
}

func CoordinatesRouter(r chi.Router, placeService *services.PlaceService, log zerolog.Logger) {
	handler := NewPlaceHandler(placeService, log)
	r.Get("/", handler.GetCoordinates)
}

func LinkRouter(r chi.Router, placeService *services.PlaceService, log zerolog.Logger) {
	handler := NewPlaceHandler(placeService, log)
	r.Get("/", handler.GetLinks)
}

func RouteRouter(r chi.Router, placeService *services.PlaceService, log zerolog.Logger) {
	handler := NewPlaceHandler(placeService, log)
	r.Get("/", handler.GetRouteByName)
	r.Get("/{name}", handler.GetRouteMatching)
}

// GetCoordinates looks up by ?buildingId=, then ?name=, else lists all.
func (h *PlaceHandler) GetCoordinates(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	switch {
	case strings.TrimSpace(query.Get("buildingId")) != "":
		doc, err := h.placeService.CoordinatesByBuilding(r.Context(), strings.TrimSpace(query.Get("buildingId")))
		h.writeOne(w, r, doc, err, "No coordinates found for this buildingId")
	case strings.TrimSpace(query.Get("name")) != "":
		doc, err := h.placeService.CoordinatesByName(r.Context(), query.Get("name"))
		h.writeOne(w, r, doc, err, "No coordinates found for this name")
	default:
		docs, err := h.placeService.ListCoordinates(r.Context())
		if err != nil {
			writeServiceError(w, r, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, docs)
	}
}

// GetLinks looks up by ?name= or lists all.
func (h *PlaceHandler) GetLinks(w http.ResponseWriter, r *http.Request) {
	if name := r.URL.Query().Get("name"); name != "" {
		doc, err := h.placeService.LinkByName(r.Context(), name)
		h.writeOne(w, r, doc, err, "Link not found")
		return
	}

	docs, err := h.placeService.ListLinks(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// GetRouteMatching returns the first route whose name contains {name}.
func (h *PlaceHandler) GetRouteMatching(w http.ResponseWriter, r *http.Request) {
	doc, err := h.placeService.RouteMatching(r.Context(), chi.URLParam(r, "name"))
	h.writeOne(w, r, doc, err, "Route not found")
}

// GetRouteByName matches ?name= against the whole route name.
func (h *PlaceHandler) GetRouteByName(w http.ResponseWriter, r *http.Request) {
	doc, err := h.placeService.RouteByName(r.Context(), r.URL.Query().Get("name"))
	h.writeOne(w, r, doc, err, "Route not found")
}

func (h *PlaceHandler) writeOne(w http.ResponseWriter, r *http.Request, doc any, err error, notFound string) {
	if errors.Is(err, services.ErrNotFound) {
		writeError(w, http.StatusNotFound, codeNotFound, notFound)
		return
	}
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
