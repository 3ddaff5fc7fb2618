package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tigocode/solar-back/internal/auth"
	"github.com/tigocode/solar-back/internal/domain"
	"github.com/tigocode/solar-back/internal/persistence"
	"github.com/tigocode/solar-back/internal/persistence/memory"
)

var tokenConfig = auth.Config{Secret: "test-secret", Issuer: "solar-back", TTL: time.Hour}

type stubHost struct{}

func (stubHost) Upload(_ context.Context, payload string) (string, error) {
	if strings.Contains(payload, "broken") {
		return "", errors.New("rejected")
	}
	return "https://cdn.example/" + payload + ".png", nil
}

type failingRepo struct {
	*persistence.Collection[domain.Activity]
}

func (failingRepo) FindAll(context.Context) ([]domain.Activity, error) {
	return nil, errors.New("connection reset")
}

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	store := memory.NewStore()
	return newMuxWithRepo(t, store, persistence.NewCollection[domain.Activity](store, persistence.CollectionActivities))
}

func newMuxWithRepo(t *testing.T, store persistence.Store, activities domain.ActivityRepository) *http.ServeMux {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	uploader := domain.NewEvidenceUploader(stubHost{}, time.Second, logger)

	handler := NewHandler(
		domain.NewService(activities, uploader, domain.WithLogger(logger)),
		domain.NewCatalogService(
			persistence.NewCollection[domain.Category](store, persistence.CollectionCategories),
			persistence.NewCollection[domain.Item](store, persistence.CollectionItems),
		),
		domain.NewUserService(persistence.NewCollection[domain.User](store, persistence.CollectionUsers)),
		WithLogger(logger),
		WithTokens(tokenConfig),
	)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return mux
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		if raw, ok := body.(string); ok {
			reader = strings.NewReader(raw)
		} else {
			data, err := json.Marshal(body)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestActivityEndpoints(t *testing.T) {
	mux := newTestMux(t)

	rec := do(t, mux, http.MethodPost, "/activities", map[string]any{
		"category":      "Roçada",
		"subcategory":   "Manual",
		"sector":        "B3",
		"scheduledDate": "2024-05-01",
		"createdAt":     "1999-01-01T00:00:00Z",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decode[domain.Activity](t, rec)
	require.Equal(t, "Roçada - Manual - B3", created.Title)
	require.Equal(t, domain.StatusOpen, created.Status)
	require.NotEqual(t, 1999, created.CreatedAt.Year())

	rec = do(t, mux, http.MethodGet, "/api/activities/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, mux, http.MethodPut, "/activities/"+created.ID, map[string]any{
		"photos":    []string{"photo1", "broken", "https://already.example/x.png"},
		"duration":  "99h 0m",
		"createdAt": "1999-01-01T00:00:00Z",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[domain.Activity](t, rec)
	require.Equal(t, domain.StatusFinished, updated.Status)
	require.Equal(t, []string{"https://cdn.example/photo1.png", "https://already.example/x.png"}, updated.Photos)
	require.Equal(t, "0m", updated.Duration)
	require.Equal(t, *created.CreatedAt, *updated.CreatedAt)

	rec = do(t, mux, http.MethodPatch, "/api/activities/"+created.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, domain.StatusOpen, decode[domain.Activity](t, rec).Status)

	rec = do(t, mux, http.MethodGet, "/activities", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]domain.Activity](t, rec), 1)

	rec = do(t, mux, http.MethodDelete, "/activities/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, mux, http.MethodDelete, "/activities/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, mux, http.MethodGet, "/activities/"+created.ID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, map[string]string{"error": "activity not found"}, decode[map[string]string](t, rec))
}

func TestActivityErrors(t *testing.T) {
	mux := newTestMux(t)

	rec := do(t, mux, http.MethodPost, "/activities", map[string]any{"category": "Limpeza"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decode[map[string]string](t, rec)["error"], "required")

	rec = do(t, mux, http.MethodPost, "/activities", "{not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodPut, "/activities/missing", map[string]any{"title": "x"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, mux, http.MethodPatch, "/activities/missing/toggle", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnexpectedErrorsAreMasked(t *testing.T) {
	store := memory.NewStore()
	repo := failingRepo{persistence.NewCollection[domain.Activity](store, persistence.CollectionActivities)}
	mux := newMuxWithRepo(t, store, repo)

	rec := do(t, mux, http.MethodGet, "/activities", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, map[string]string{"error": "internal server error"}, decode[map[string]string](t, rec))
}

func TestOwnerComesFromTokenClaims(t *testing.T) {
	mux := newTestMux(t)
	protected := auth.NewMiddleware(tokenConfig, false, nil).Wrap(mux)

	token, _, err := auth.Issue(tokenConfig, "user-7", "Caio", domain.AccessCaretaker, time.Now())
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]any{"category": "Limpeza", "scheduledDate": "2024-05-02", "ownerId": "spoofed"})
	req := httptest.NewRequest(http.MethodPost, "/activities", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decode[domain.Activity](t, rec)
	require.Equal(t, "user-7", created.OwnerID)
	require.Equal(t, "Caio", created.OwnerName)
}

func TestCategoryAndItemEndpoints(t *testing.T) {
	mux := newTestMux(t)

	rec := do(t, mux, http.MethodPost, "/categories", map[string]string{"name": "Roçada"})
	require.Equal(t, http.StatusOK, rec.Code)
	category := decode[domain.Category](t, rec)

	rec = do(t, mux, http.MethodPost, "/api/categories/"+category.ID+"/subcategories", map[string]string{"name": "Manual"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, mux, http.MethodPost, "/categories/"+category.ID+"/subcategories", map[string]string{"name": "Manual"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "subcategory already exists", decode[map[string]string](t, rec)["error"])

	rec = do(t, mux, http.MethodPost, "/categories/"+category.ID+"/subcategories/remove", map[string]string{"name": "Manual"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decode[domain.Category](t, rec).Subcategories)

	rec = do(t, mux, http.MethodPut, "/categories/"+category.ID+"/rename", map[string]string{"name": "Capina"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Capina", decode[domain.Category](t, rec).Name)

	rec = do(t, mux, http.MethodDelete, "/categories/"+category.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, mux, http.MethodPut, "/categories/"+category.ID+"/rename", map[string]string{"name": "x"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, mux, http.MethodPost, "/items", map[string]any{"equipment": "Inversor"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodPost, "/items", map[string]any{"equipment": "Inversor", "quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	item := decode[domain.Item](t, rec)

	rec = do(t, mux, http.MethodPut, "/items/"+item.ID, map[string]any{"location": "Usina 1"})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[domain.Item](t, rec)
	require.Equal(t, 3, updated.Quantity)
	require.Equal(t, "Usina 1", updated.Location)

	rec = do(t, mux, http.MethodDelete, "/items/"+item.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUserEndpointsAndLogin(t *testing.T) {
	mux := newTestMux(t)

	rec := do(t, mux, http.MethodPost, "/users", map[string]string{
		"name":        "Ana",
		"email":       "ana@solar.com",
		"password":    "s3cret",
		"accessLevel": domain.AccessAdmin,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotContains(t, rec.Body.String(), "password")

	rec = do(t, mux, http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "passwordHash")

	rec = do(t, mux, http.MethodPost, "/login", map[string]string{"email": "ana@solar.com", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, mux, http.MethodPost, "/api/login", map[string]string{"email": "ana@solar.com", "password": "s3cret"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[LoginResponse](t, rec)
	require.Equal(t, "Ana", resp.Name)
	require.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.ExpiresAt)

	claims, err := auth.Parse(resp.Token, tokenConfig)
	require.NoError(t, err)
	require.Equal(t, resp.ID, claims.Subject)
	require.Equal(t, domain.AccessAdmin, claims.AccessLevel)
}

func TestStatus(t *testing.T) {
	rec := do(t, newTestMux(t), http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
