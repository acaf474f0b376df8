package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/campusnav/apiserver/internal/services"
)

// AdminHandler manages console administrators.
type AdminHandler struct {
	adminService *services.AdminService
	validate     *validator.Validate
	log          zerolog.Logger
}

func NewAdminHandler(adminService *services.AdminService, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{adminService: adminService, validate: validator.New(), log: log}
}

// AdminRouter registers admin routes on the given router.
func AdminRouter(r chi.Router, adminService *services.AdminService, log zerolog.Logger) {
	handler := NewAdminHandler(adminService, log)

	r.Get("/", handler.ListAdmins)
	r.Post("/", handler.CreateAdmin)
	r.Get("/email/{email}", handler.GetAdminByEmail)
	r.Route("/{adminID}", func(r chi.Router) {
		r.Get("/", handler.GetAdmin)
		r.Put("/", handler.UpdateAdmin)
		r.Delete("/", handler.DeleteAdmin)
	})
}

type AdminRequest struct {
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	Email      string `json:"email" validate:"omitempty,email"`
	Department string `json:"department"`
	Role       string `json:"role"`
	Password   string `json:"password"`
}

func (req AdminRequest) input() services.AdminInput {
	return services.AdminInput{
		Name:       req.Name,
		Surname:    req.Surname,
		Email:      req.Email,
		Department: req.Department,
		Role:       req.Role,
		Password:   req.Password,
	}
}

type AdminCreatedResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

func (h *AdminHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.adminService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, admins)
}

func (h *AdminHandler) GetAdmin(w http.ResponseWriter, r *http.Request) {
	admin, err := h.adminService.Get(r.Context(), chi.URLParam(r, "adminID"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, admin)
}

func (h *AdminHandler) GetAdminByEmail(w http.ResponseWriter, r *http.Request) {
	admin, err := h.adminService.GetByEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, admin)
}

func (h *AdminHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	admin, err := h.adminService.Create(r.Context(), req.input())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	h.log.Info().Str("admin_id", admin.ID).Str("email", admin.Email).Msg("admin created")
	writeJSON(w, http.StatusCreated, AdminCreatedResponse{Message: "Admin created", ID: admin.ID})
}

func (h *AdminHandler) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	if _, err := h.adminService.Update(r.Context(), chi.URLParam(r, "adminID"), req.input()); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Admin updated"})
}

func (h *AdminHandler) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	if err := h.adminService.Delete(r.Context(), chi.URLParam(r, "adminID")); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Admin deleted"})
}

func (h *AdminHandler) decode(w http.ResponseWriter, r *http.Request) (AdminRequest, bool) {
	var req AdminRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return req, false
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid email address")
		return req, false
	}
	return req, true
}
