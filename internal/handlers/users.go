package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/campusnav/apiserver/internal/services"
	"github.com/campusnav/apiserver/internal/store"
)

// UserHandler is the read-only account listing for the console.
type UserHandler struct {
	userService *services.UserService
	log         zerolog.Logger
}

func NewUserHandler(userService *services.UserService, log zerolog.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, userService *services.UserService, log zerolog.Logger) {
	handler := NewUserHandler(userService, log)

	r.Get("/", handler.ListUsers)
	r.Get("/{userID}", handler.GetUser)
}

// ListUsers filters by email, studentNumber, userType and isVerified.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset, _, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	query := r.URL.Query()
	filter := store.AccountFilter{
		Email:         query.Get("email"),
		StudentNumber: strings.TrimSpace(query.Get("studentNumber")),
		UserType:      strings.TrimSpace(query.Get("userType")),
	}
	if raw := strings.TrimSpace(query.Get("isVerified")); raw != "" {
		verified, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "isVerified must be true or false")
			return
		}
		filter.IsVerified = &verified
	}

	users, err := h.userService.List(r.Context(), filter, limit, offset)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.Get(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
