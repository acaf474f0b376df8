package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/campusnav/apiserver/internal/services"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
	maxBodyBytes = 1 << 20
)

// Stable error codes returned in every error body.
const (
	codeInvalidRequest     = "invalid_request"
	codeInvalidCredentials = "invalid_credentials"
	codeAccountLocked      = "account_locked"
	codeAccountUnverified  = "account_unverified"
	codeDuplicateEmail     = "duplicate_email"
	codeDuplicateID        = "duplicate_identifier"
	codeNotFound           = "not_found"
	codeUnauthorized       = "unauthorized"
	codeStorageDisabled    = "storage_unavailable"
	codeInternal           = "internal_error"
)

type contextKey string

const contextSubjectKey contextKey = "sub"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string     `json:"error"`
	Code      string     `json:"code"`
	LockUntil *time.Time `json:"lockUntil,omitempty"`
}

// MessageResponse acknowledges mutations that return no entity.
type MessageResponse struct {
	Message string `json:"message"`
}

func subjectFromContext(ctx context.Context) (string, error) {
	subject, ok := ctx.Value(contextSubjectKey).(string)
	if !ok || strings.TrimSpace(subject) == "" {
		return "", errors.New("missing subject")
	}
	return subject, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// writeServiceError maps a service error onto its status and code. Store
// and storage failures are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	var locked *services.LockedError
	switch {
	case errors.As(err, &locked):
		until := locked.Until.UTC()
		writeJSON(w, http.StatusLocked, ErrorResponse{
			Error:     "account is temporarily locked",
			Code:      codeAccountLocked,
			LockUntil: &until,
		})
	case errors.Is(err, services.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
	case errors.Is(err, services.ErrInvalidUpdate):
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid update")
	case errors.Is(err, services.ErrAuthenticationFailed):
		writeError(w, http.StatusUnauthorized, codeInvalidCredentials, "invalid email or password")
	case errors.Is(err, services.ErrAccountUnverified):
		writeError(w, http.StatusForbidden, codeAccountUnverified, "account is not verified")
	case errors.Is(err, services.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, codeDuplicateEmail, "email is already registered")
	case errors.Is(err, services.ErrDuplicateIdentifier):
		writeError(w, http.StatusConflict, codeDuplicateID, "student number is already registered")
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	case errors.Is(err, services.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, codeStorageDisabled, "image storage is not configured")
	default:
		log.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "internal server error")
	}
}

// errorCode returns the code writeServiceError would use for err. It is
// used to label audit lines and metrics.
func errorCode(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, services.ErrAccountLocked):
		return codeAccountLocked
	case errors.Is(err, services.ErrInvalidRequest):
		return codeInvalidRequest
	case errors.Is(err, services.ErrAuthenticationFailed):
		return codeInvalidCredentials
	case errors.Is(err, services.ErrAccountUnverified):
		return codeAccountUnverified
	case errors.Is(err, services.ErrDuplicateEmail):
		return codeDuplicateEmail
	case errors.Is(err, services.ErrDuplicateIdentifier):
		return codeDuplicateID
	default:
		return codeInternal
	}
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}

// parsePagination reads page and limit (or per_page). ok is false when
// neither was given, in which case callers return every match.
func parsePagination(r *http.Request) (limit, offset int, ok bool, err error) {
	page := defaultPage
	limit = defaultLimit

	rawPage := strings.TrimSpace(r.URL.Query().Get("page"))
	rawLimit := strings.TrimSpace(r.URL.Query().Get("limit"))
	if rawLimit == "" {
		rawLimit = strings.TrimSpace(r.URL.Query().Get("per_page"))
	}
	if rawPage == "" && rawLimit == "" {
		return 0, 0, false, nil
	}

	if rawPage != "" {
		page, err = strconv.Atoi(rawPage)
		if err != nil || page < 1 {
			return 0, 0, false, errors.New("invalid page")
		}
	}
	if rawLimit != "" {
		limit, err = strconv.Atoi(rawLimit)
		if err != nil || limit < 1 {
			return 0, 0, false, errors.New("invalid limit")
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return limit, (page - 1) * limit, true, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}

// AuditLog writes one line per auth event.
func AuditLog(log zerolog.Logger, r *http.Request, event, email, accountID string, success bool, errMsg string) {
	ev := log.Info()
	if !success {
		ev = log.Warn()
	}
	ev.
		Str("event", event).
		Str("email", email).
		Str("account_id", accountID).
		Str("ip", clientIP(r)).
		Str("request_id", middleware.GetReqID(r.Context())).
		Bool("success", success)
	if errMsg != "" {
		ev.Str("error", errMsg)
	}
	ev.Msg("auth_audit")
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	return r.RemoteAddr
}
