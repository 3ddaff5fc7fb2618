// Package api exposes HTTP handlers for activities, the catalog and users.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/tigocode/solar-back/internal/auth"
	"github.com/tigocode/solar-back/internal/domain"
)

// Option configures optional behaviour for the Handler.
type Option func(*Handler)

// WithLogger overrides the logger used for unexpected failures.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithTokens enables token issuance on login.
func WithTokens(cfg auth.Config) Option {
	return func(h *Handler) {
		h.tokens = cfg
	}
}

// WithClock overrides the time source used for token expiry.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}

// Handler coordinates HTTP requests with the domain services.
type Handler struct {
	activities *domain.Service
	catalog    *domain.CatalogService
	users      *domain.UserService
	tokens     auth.Config
	logger     *slog.Logger
	now        func() time.Time
}

// NewHandler builds a Handler.
func NewHandler(activities *domain.Service, catalog *domain.CatalogService, users *domain.UserService, opts ...Option) *Handler {
	h := &Handler{
		activities: activities,
		catalog:    catalog,
		users:      users,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes wires endpoints to the mux, both at the root and under /api.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	for _, prefix := range []string{"", "/api"} {
		route := func(method, path string, fn http.HandlerFunc) {
			mux.HandleFunc(method+" "+prefix+path, fn)
		}

		route(http.MethodGet, "/activities", h.listActivities)
		route(http.MethodPost, "/activities", h.createActivity)
		route(http.MethodGet, "/activities/{id}", h.getActivity)
		route(http.MethodPut, "/activities/{id}", h.updateActivity)
		route(http.MethodPatch, "/activities/{id}/toggle", h.toggleActivity)
		route(http.MethodDelete, "/activities/{id}", h.deleteActivity)

		route(http.MethodGet, "/categories", h.listCategories)
		route(http.MethodPost, "/categories", h.createCategory)
		route(http.MethodGet, "/categories/{id}", h.getCategory)
		route(http.MethodDelete, "/categories/{id}", h.deleteCategory)
		route(http.MethodPut, "/categories/{id}/rename", h.renameCategory)
		route(http.MethodPost, "/categories/{id}/subcategories", h.addSubcategory)
		route(http.MethodPost, "/categories/{id}/subcategories/remove", h.removeSubcategory)

		route(http.MethodGet, "/items", h.listItems)
		route(http.MethodPost, "/items", h.createItem)
		route(http.MethodGet, "/items/{id}", h.getItem)
		route(http.MethodPut, "/items/{id}", h.updateItem)
		route(http.MethodDelete, "/items/{id}", h.deleteItem)

		route(http.MethodGet, "/users", h.listUsers)
		route(http.MethodPost, "/users", h.createUser)
		route(http.MethodGet, "/users/{id}", h.getUser)
		route(http.MethodPut, "/users/{id}", h.updateUser)
		route(http.MethodDelete, "/users/{id}", h.deleteUser)
		route(http.MethodPost, "/login", h.login)

		route(http.MethodGet, "/status", status)
	}
}

// status reports liveness for container health checks.
func status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &domain.ValidationError{Message: "request body too large"}
		}
		return &domain.ValidationError{Message: "unable to parse body"}
	}
	return nil
}

// fail maps domain errors onto status codes. Anything unexpected is logged and
// answered with a generic message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Message)
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrActivityNotFound):
		writeError(w, http.StatusNotFound, "activity not found")
	case errors.Is(err, domain.ErrCategoryNotFound):
		writeError(w, http.StatusNotFound, "category not found")
	case errors.Is(err, domain.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
