package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/campusnav/apiserver/internal/services"
)

const (
	maxMultipartMemory = 12 << 20
	formFieldImage     = "image"
)

// UploadHandler accepts, serves and deletes images.
type UploadHandler struct {
	uploadService *services.UploadService
	log           zerolog.Logger
}

func NewUploadHandler(uploadService *services.UploadService, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, log: log}
}

// UploadRouter registers upload routes. Keys contain a slash, so item
// routes match the remainder of the path.
func UploadRouter(r chi.Router, uploadService *services.UploadService, log zerolog.Logger) {
	handler := NewUploadHandler(uploadService, log)

	r.Post("/", handler.UploadImage)
	r.Get("/*", handler.GetImage)
	r.Delete("/*", handler.DeleteImage)
}

type UploadJSONRequest struct {
	Image    string `json:"image"`
	Filename string `json:"filename"`
}

// UploadImage takes a multipart "image" field or a JSON body carrying a
// base64 image.
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	data, filename, err := h.readImage(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	result, err := h.uploadService.Upload(r.Context(), data, filename)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	h.log.Info().Str("key", result.Key).Int("bytes", len(data)).Msg("image uploaded")
	writeJSON(w, http.StatusOK, result)
}

func (h *UploadHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	obj, err := h.uploadService.Open(r.Context(), chi.URLParam(r, "*"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	defer obj.Body.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		h.log.Warn().Err(err).Msg("stream image")
	}
}

func (h *UploadHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	if err := h.uploadService.Delete(r.Context(), chi.URLParam(r, "*")); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Image deleted"})
}

func (h *UploadHandler) readImage(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxMultipartMemory)
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, "", errors.New("invalid multipart form")
		}
		file, header, err := r.FormFile(formFieldImage)
		if err != nil {
			return nil, "", errors.New("no image uploaded")
		}
		defer file.Close()
		data, err := readFileLimited(file, services.MaxUploadBytes)
		if err != nil {
			return nil, "", err
		}
		return data, header.Filename, nil
	}

	var req UploadJSONRequest
	r.Body = http.MaxBytesReader(w, r.Body, 2*maxMultipartMemory)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, "", errors.New("invalid request body")
	}
	data, err := services.DecodeBase64Image(req.Image)
	if err != nil {
		return nil, "", err
	}
	return data, req.Filename, nil
}
