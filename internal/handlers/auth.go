package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/campusnav/apiserver/internal/metrics"
	"github.com/campusnav/apiserver/internal/services"
	"github.com/campusnav/apiserver/types"
)

const defaultTokenTTL = 24 * time.Hour

// AuthHandler provides registration, login and JWT endpoints.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
	log         zerolog.Logger
	secret      []byte
	tokenTTL    time.Duration
}

// NewAuthHandler constructs an AuthHandler. A non-positive tokenTTL
// falls back to 24h.
func NewAuthHandler(authService *services.AuthService, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AuthHandler {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
		log:         log,
		secret:      []byte(jwtSecret),
		tokenTTL:    tokenTTL,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.With(handler.RequireAuth).Get("/me", handler.Me)
}

// RequireAuth enforces JWT authentication and injects the subject into context.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return requireAuth(h.secret)(next)
}

// RequireAuth constructs auth middleware for other routers.
func RequireAuth(jwtSecret string) func(http.Handler) http.Handler {
	return requireAuth([]byte(jwtSecret))
}

func requireAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
				return
			}

			subject, err := parseTokenSubject(tokenString, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), contextSubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Register creates an account and returns it with a JWT.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid email address")
		return
	}

	account, err := h.authService.Register(r.Context(), req.input())
	metrics.RecordAuthAttempt("register", errorCode(err))
	if err != nil {
		AuditLog(h.log, r, "register", req.Email, "", false, errorCode(err))
		writeServiceError(w, r, h.log, err)
		return
	}
	AuditLog(h.log, r, "register", account.Email, account.ID, true, "")

	token, err := issueToken(account.ID, h.secret, h.tokenTTL)
	if err != nil {
		h.log.Error().Err(err).Msg("issue token")
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to create token")
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{Token: token, User: account})
}

// Login verifies credentials and returns the account with a JWT.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	account, err := h.authService.Verify(r.Context(), req.Email, req.Password)
	metrics.RecordAuthAttempt("login", errorCode(err))
	if err != nil {
		AuditLog(h.log, r, "login", services.NormalizeEmail(req.Email), "", false, errorCode(err))
		writeServiceError(w, r, h.log, err)
		return
	}
	AuditLog(h.log, r, "login", account.Email, account.ID, true, "")

	token, err := issueToken(account.ID, h.secret, h.tokenTTL)
	if err != nil {
		h.log.Error().Err(err).Msg("issue token")
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: account})
}

// Me returns the current authenticated account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	accountID, err := subjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}

	account, err := h.authService.Me(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
			return
		}
		writeServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

type RegisterRequest struct {
	Name                 string           `json:"name"`
	Email                string           `json:"email" validate:"omitempty,email"`
	Password             string           `json:"password"`
	StudentNumber        types.FlexString `json:"studentNumber"`
	Year                 types.FlexString `json:"year"`
	Qualification        string           `json:"qualification"`
	Department           string           `json:"department"`
	UserType             string           `json:"userType"`
	IsVerified           *bool            `json:"isVerified"`
	HasCompletedTutorial *bool            `json:"hasCompletedTutorial"`
}

func (req RegisterRequest) input() services.RegisterInput {
	return services.RegisterInput{
		Name:                 req.Name,
		Email:                strings.TrimSpace(req.Email),
		Password:             req.Password,
		StudentNumber:        string(req.StudentNumber),
		Year:                 string(req.Year),
		Qualification:        req.Qualification,
		Department:           req.Department,
		UserType:             req.UserType,
		IsVerified:           req.IsVerified,
		HasCompletedTutorial: req.HasCompletedTutorial,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string        `json:"token"`
	User  types.Account `json:"user"`
}

func issueToken(subject string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseTokenSubject(tokenString string, secret []byte) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("missing subject")
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
