package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/contactkeep/contactkeep/internal/httputil"
	"github.com/contactkeep/contactkeep/internal/logging"
	"github.com/contactkeep/contactkeep/internal/ratelimit"
	"github.com/contactkeep/contactkeep/internal/user"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service     *Service
	rateLimiter *ratelimit.Limiter
	logger      *logging.Logger
}

func NewHandler(service *Service, rateLimiter *ratelimit.Limiter, logger *logging.Logger) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// SignupRequest represents the registration request body
type SignupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents the token refresh request body
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RequestConfirmRequest represents the resend-confirmation request body
type RequestConfirmRequest struct {
	Email string `json:"email"`
}

// AvatarRequest represents the avatar update request body
type AvatarRequest struct {
	Avatar string `json:"avatar"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	Username  string  `json:"username"`
	Avatar    *string `json:"avatar,omitempty"`
	Confirmed bool    `json:"confirmed"`
}

// SignupResponse represents the registration response
type SignupResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message"`
}

// Signup handles user registration
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.checkRateLimit(w, r, "signup") {
		return
	}

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signup request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	newUser, err := h.service.Signup(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			logger.Warn("signup failed: email already exists")
			httputil.RespondErrorWithCode(w, "account already exists", httputil.CodeEmailAlreadyExists, http.StatusConflict)
			return
		}
		if isValidationError(err) {
			logger.Warn("signup failed: validation error", "error", err.Error())
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
			return
		}
		logger.Error("signup failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to create user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user signed up successfully", "user_id", newUser.ID)

	httputil.RespondJSON(w, SignupResponse{
		User:    mapUserToResponse(newUser),
		Message: "User created. Check your email for confirmation.",
	}, http.StatusCreated)
}

// Login handles user login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.checkRateLimit(w, r, "login") {
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	tokens, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			httputil.RespondErrorWithCode(w, ErrInvalidCredentials.Error(), httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		if errors.Is(err, ErrEmailNotConfirmed) {
			logger.Warn("login failed: email not confirmed")
			httputil.RespondErrorWithCode(w, ErrEmailNotConfirmed.Error(), httputil.CodeEmailNotConfirmed, http.StatusUnauthorized)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in successfully")

	httputil.RespondJSON(w, tokens, http.StatusOK)
}

// Refresh handles access token refresh. The refresh token arrives as a
// bearer credential, mirroring the access-token transport.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	refreshToken, ok := extractBearerToken(r)
	if !ok {
		var req RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			refreshToken = strings.TrimSpace(req.RefreshToken)
		}
	}

	if refreshToken == "" {
		logger.Warn("refresh token missing from both header and body")
		httputil.RespondErrorWithCode(w, "refresh token required", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	tokens, err := h.service.Refresh(r.Context(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidScope):
			logger.Warn("token refresh failed: wrong scope")
			httputil.RespondErrorWithCode(w, ErrInvalidScope.Error(), httputil.CodeInvalidScope, http.StatusUnauthorized)
		case errors.Is(err, ErrCredentials):
			logger.Warn("token refresh failed: could not validate")
			httputil.RespondErrorWithCode(w, ErrCredentials.Error(), httputil.CodeInvalidToken, http.StatusUnauthorized)
		case errors.Is(err, ErrInvalidRefreshToken):
			logger.Warn("token refresh failed: stored token mismatch")
			httputil.RespondErrorWithCode(w, ErrInvalidRefreshToken.Error(), httputil.CodeInvalidToken, http.StatusUnauthorized)
		default:
			logger.Error("token refresh failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to refresh token", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("access token refreshed successfully")

	httputil.RespondJSON(w, tokens, http.StatusOK)
}

// Logout handles user logout by clearing the stored refresh token
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	current, ok := GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, ErrCredentials.Error(), httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	if err := h.service.Logout(r.Context(), current.ID); err != nil {
		logger.Error("logout failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to logout", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged out successfully", "user_id", current.ID)

	httputil.RespondJSON(w, map[string]string{"message": "logged out"}, http.StatusOK)
}

// ConfirmEmail handles the confirmation link from the email
func (h *Handler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	token := chi.URLParam(r, "token")
	if token == "" {
		httputil.RespondErrorWithCode(w, "confirmation token required", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	err := h.service.ConfirmEmail(r.Context(), token)
	if err != nil {
		if errors.Is(err, ErrEmailToken) {
			logger.Warn("email confirmation failed: bad token")
			httputil.RespondErrorWithCode(w, ErrEmailToken.Error(), httputil.CodeUnprocessableToken, http.StatusUnprocessableEntity)
			return
		}
		if errors.Is(err, ErrAlreadyConfirmed) {
			httputil.RespondJSON(w, map[string]string{"message": "Your email is already confirmed"}, http.StatusOK)
			return
		}
		if errors.Is(err, ErrVerification) {
			logger.Warn("email confirmation failed: unknown subject")
			httputil.RespondErrorWithCode(w, ErrVerification.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
			return
		}
		logger.Error("email confirmation failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to confirm email", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("email confirmed successfully")

	httputil.RespondJSON(w, map[string]string{"message": "Email confirmed"}, http.StatusOK)
}

// RequestConfirm handles resending the confirmation email.
// Always returns success to prevent email enumeration.
func (h *Handler) RequestConfirm(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.checkRateLimit(w, r, "request-confirm") {
		return
	}

	var req RequestConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid request-confirm body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	_ = h.service.RequestConfirmEmail(r.Context(), req.Email)

	httputil.RespondJSON(w, map[string]string{
		"message": "If your email is registered and not confirmed, a new confirmation link has been sent.",
	}, http.StatusOK)
}

// UpdateAvatar replaces the authenticated user's avatar reference
func (h *Handler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	current, ok := GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, ErrCredentials.Error(), httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req AvatarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid avatar request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if _, err := url.ParseRequestURI(req.Avatar); err != nil {
		httputil.RespondErrorWithCode(w, "avatar must be a valid URL", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	updated, err := h.service.UpdateAvatar(r.Context(), current.Email, req.Avatar)
	if err != nil {
		logger.Error("avatar update failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update avatar", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("avatar updated", "user_id", updated.ID)

	httputil.RespondJSON(w, mapUserToResponse(updated), http.StatusOK)
}

// checkRateLimit enforces the per-IP budget for the given purpose.
// Returns true when the request was rejected.
func (h *Handler) checkRateLimit(w http.ResponseWriter, r *http.Request, purpose string) bool {
	logger := logging.GetLoggerFromContext(r.Context())
	ip := getClientIP(r)

	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip, purpose)
	if err != nil {
		// A broken limiter must not block legitimate requests.
		logger.Error("failed to check IP rate limit", "error", err.Error())
		return false
	}
	if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return true
	}

	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip, purpose); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	return false
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrEmailRequired) ||
		errors.Is(err, ErrInvalidEmailFormat) ||
		errors.Is(err, ErrUsernameRequired) ||
		errors.Is(err, ErrPasswordRequired) ||
		errors.Is(err, ErrPasswordTooShort)
}

func mapUserToResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Avatar:    u.Avatar,
		Confirmed: u.Confirmed,
	}
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs, take the first one
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr format is "IP:port", extract just the IP
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
