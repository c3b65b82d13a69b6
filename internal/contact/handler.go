package contact

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/contactkeep/contactkeep/internal/auth"
	"github.com/contactkeep/contactkeep/internal/httputil"
	"github.com/contactkeep/contactkeep/internal/logging"
	"github.com/contactkeep/contactkeep/internal/user"
)

const (
	maxFirstNameLen = 25
	maxLastNameLen  = 50

	defaultListLimit = 100
	maxListLimit     = 500
)

// E.164-like, matching what the persistence layer accepts
var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// Handler contains HTTP handlers for contact endpoints. All routes sit
// behind the auth gate, so the current user is always in context.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// ContactRequest represents the create/update request body
type ContactRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Birthday    string `json:"birthday"` // YYYY-MM-DD
}

// NotesRequest represents the notes replacement request body
type NotesRequest struct {
	Notes []string `json:"notes"`
}

// Create handles contact creation
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	current, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, auth.ErrCredentials.Error(), httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	body, ok := h.decodeContactRequest(w, r)
	if !ok {
		return
	}

	created, err := h.repo.Create(r.Context(), current.ID, body)
	if err != nil {
		logger.Error("failed to create contact", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to create contact", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("contact created", "contact_id", created.ID)

	httputil.RespondJSON(w, created, http.StatusCreated)
}

// List handles paginated contact listing
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	current, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, auth.ErrCredentials.Error(), httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", defaultListLimit)
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}

	contacts, err := h.repo.List(r.Context(), current.ID, skip, limit)
	if err != nil {
		logger.Error("failed to list contacts", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list contacts", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, contacts, http.StatusOK)
}

// Search handles exact-match contact search
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	current, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, auth.ErrCredentials.Error(), httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		httputil.RespondErrorWithCode(w, "search query required", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	contacts, err := h.repo.Search(r.Context(), current.ID, query)
	if err != nil {
		logger.Error("failed to search contacts", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to search contacts", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	if len(contacts) == 0 {
		httputil.RespondErrorWithCode(w, "contact not found", httputil.CodeContactNotFound, http.StatusNotFound)
		return
	}

	httputil.RespondJSON(w, contacts, http.StatusOK)
}

// Birthdays handles the upcoming-birthdays query
func (h *Handler) Birthdays(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	current, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, auth.ErrCredentials.Error(), httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	period := queryInt(r, "period", 7)
	if period < 0 {
		httputil.RespondErrorWithCode(w, "period must not be negative", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	contacts, err := h.repo.Birthdays(r.Context(), current.ID, period, time.Now())
	if err != nil {
		logger.Error("failed to query birthdays", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to query birthdays", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	if len(contacts) == 0 {
		httputil.RespondErrorWithCode(w, "contact not found", httputil.CodeContactNotFound, http.StatusNotFound)
		return
	}

	httputil.RespondJSON(w, contacts, http.StatusOK)
}

// GetByID handles single contact retrieval
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	current, contactID, ok := h.currentUserAndContactID(w, r)
	if !ok {
		return
	}

	found, err := h.repo.GetByID(r.Context(), current.ID, contactID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "contact not found", httputil.CodeContactNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to get contact", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to get contact", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, found, http.StatusOK)
}

// Update handles full contact replacement (notes untouched)
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	current, contactID, ok := h.currentUserAndContactID(w, r)
	if !ok {
		return
	}

	body, ok := h.decodeContactRequest(w, r)
	if !ok {
		return
	}

	updated, err := h.repo.Update(r.Context(), current.ID, contactID, body)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "contact not found", httputil.CodeContactNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to update contact", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update contact", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("contact updated", "contact_id", updated.ID)

	httputil.RespondJSON(w, updated, http.StatusOK)
}

// ReplaceNotes handles notes replacement
func (h *Handler) ReplaceNotes(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	current, contactID, ok := h.currentUserAndContactID(w, r)
	if !ok {
		return
	}

	var req NotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid notes request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	updated, err := h.repo.ReplaceNotes(r.Context(), current.ID, contactID, req.Notes)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "contact not found", httputil.CodeContactNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to replace notes", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to replace notes", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("contact notes replaced", "contact_id", updated.ID)

	httputil.RespondJSON(w, updated, http.StatusOK)
}

// Delete handles contact removal, returning the deleted snapshot
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	current, contactID, ok := h.currentUserAndContactID(w, r)
	if !ok {
		return
	}

	deleted, err := h.repo.Delete(r.Context(), current.ID, contactID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "contact not found", httputil.CodeContactNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to delete contact", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to delete contact", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("contact deleted", "contact_id", deleted.ID)

	httputil.RespondJSON(w, deleted, http.StatusOK)
}

// decodeContactRequest decodes and validates a create/update body.
// Writes the error response itself and returns ok=false on failure.
func (h *Handler) decodeContactRequest(w http.ResponseWriter, r *http.Request) (*Contact, bool) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid contact request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return nil, false
	}

	if req.FirstName == "" || len(req.FirstName) > maxFirstNameLen {
		httputil.RespondErrorWithCode(w, "first_name must be 1-25 characters", httputil.CodeValidationFailed, http.StatusBadRequest)
		return nil, false
	}
	if req.LastName == "" || len(req.LastName) > maxLastNameLen {
		httputil.RespondErrorWithCode(w, "last_name must be 1-50 characters", httputil.CodeValidationFailed, http.StatusBadRequest)
		return nil, false
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		httputil.RespondErrorWithCode(w, "email must be a valid address", httputil.CodeValidationFailed, http.StatusBadRequest)
		return nil, false
	}
	if !phonePattern.MatchString(req.PhoneNumber) {
		httputil.RespondErrorWithCode(w, "phone_number must match E.164 format", httputil.CodeValidationFailed, http.StatusBadRequest)
		return nil, false
	}

	birthday, err := time.Parse("2006-01-02", req.Birthday)
	if err != nil {
		httputil.RespondErrorWithCode(w, "birthday must be formatted YYYY-MM-DD", httputil.CodeValidationFailed, http.StatusBadRequest)
		return nil, false
	}

	return &Contact{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Birthday:    birthday,
	}, true
}

// currentUserAndContactID resolves the caller and the {contactID} route
// parameter. Writes the error response itself on failure.
func (h *Handler) currentUserAndContactID(w http.ResponseWriter, r *http.Request) (current *user.User, contactID int64, ok bool) {
	u, found := auth.GetUserFromContext(r.Context())
	if !found {
		httputil.RespondErrorWithCode(w, auth.ErrCredentials.Error(), httputil.CodeMissingAuth, http.StatusUnauthorized)
		return nil, 0, false
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "contactID"), 10, 64)
	if err != nil {
		httputil.RespondErrorWithCode(w, "contact id must be an integer", httputil.CodeValidationFailed, http.StatusBadRequest)
		return nil, 0, false
	}

	return u, id, true
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}
