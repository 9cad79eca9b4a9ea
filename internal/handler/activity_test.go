package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/activity-log/internal/clock"
	"github.com/pkordes/activity-log/internal/domain"
	"github.com/pkordes/activity-log/internal/handler"
	"github.com/pkordes/activity-log/internal/repo"
	"github.com/pkordes/activity-log/internal/service"
)

// mockActivityServicer is a test double for handler.ActivityServicer.
// Set only the method fields your test needs.
type mockActivityServicer struct {
	list   func() []domain.Activity
	create func(ctx context.Context, in domain.ActivityInput) ([]domain.Activity, error)
	update func(ctx context.Context, id int64, in domain.ActivityInput) ([]domain.Activity, error)
	delete func(ctx context.Context, id int64) ([]domain.Activity, error)
}

func (m *mockActivityServicer) List() []domain.Activity { return m.list() }
func (m *mockActivityServicer) Create(ctx context.Context, in domain.ActivityInput) ([]domain.Activity, error) {
	return m.create(ctx, in)
}
func (m *mockActivityServicer) Update(ctx context.Context, id int64, in domain.ActivityInput) ([]domain.Activity, error) {
	return m.update(ctx, id, in)
}
func (m *mockActivityServicer) Delete(ctx context.Context, id int64) ([]domain.Activity, error) {
	return m.delete(ctx, id)
}

// compile-time check: mockActivityServicer must satisfy handler.ActivityServicer.
var _ handler.ActivityServicer = (*mockActivityServicer)(nil)

// ---- helpers ---------------------------------------------------------------

var handlerNow = time.Date(2025, 11, 8, 12, 0, 0, 0, time.Local)

// newHTTPHandler wires a Server with the given mock exactly as main.go does.
func newHTTPHandler(svc handler.ActivityServicer) http.Handler {
	return handler.NewServer(svc, service.NewColorAssigner(), clock.NewFake(handlerNow)).Routes()
}

func intPtr(n int) *int { return &n }

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Error
}

func serve(h http.Handler, method, target string, body *bytes.Buffer) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ---- GET /activities -------------------------------------------------------

func TestListActivities_200_OrderedWithImminentAndColor(t *testing.T) {
	svc := &mockActivityServicer{
		list: func() []domain.Activity {
			return []domain.Activity{
				{ID: 1, Name: "someday", Category: "Hobby"},
				{ID: 2, Name: "next month", Date: "2025-12-08", Category: "Work"},
				{ID: 3, Name: "tomorrow", Date: "2025-11-09", Category: "Work", Duration: intPtr(30)},
			}
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodGet, "/activities", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.ActivityList
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 3)

	assert.Equal(t, int64(3), resp.Data[0].ID)
	assert.True(t, resp.Data[0].Imminent)
	assert.Equal(t, 30, *resp.Data[0].Duration)
	assert.Equal(t, int64(2), resp.Data[1].ID)
	assert.False(t, resp.Data[1].Imminent)
	assert.Equal(t, int64(1), resp.Data[2].ID, "undated sorts last")
	assert.Nil(t, resp.Data[2].Duration)

	assert.Equal(t, resp.Data[0].Color, resp.Data[1].Color, "same category, same colour")
	assert.NotEqual(t, resp.Data[0].Color, resp.Data[2].Color)
}

func TestListActivities_200_EmptyIsArray(t *testing.T) {
	svc := &mockActivityServicer{list: func() []domain.Activity { return nil }}

	rec := serve(newHTTPHandler(svc), http.MethodGet, "/activities", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

// ---- POST /activities ------------------------------------------------------

func TestCreateActivity_201(t *testing.T) {
	var got domain.ActivityInput
	svc := &mockActivityServicer{
		create: func(_ context.Context, in domain.ActivityInput) ([]domain.Activity, error) {
			got = in
			return []domain.Activity{
				{ID: 1, Name: "older", Category: "Hobby"},
				{ID: 2, Name: "Pottery", Category: "Crafts", Duration: intPtr(90)},
			}, nil
		},
	}

	body := jsonBody(t, map[string]any{
		"name":            "Pottery",
		"duration":        90,
		"category":        "Other",
		"custom_category": "Crafts",
	})
	rec := serve(newHTTPHandler(svc), http.MethodPost, "/activities", body)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "90", got.Duration, "numeric duration reaches the store as text")
	assert.Equal(t, "Other", got.Category)
	assert.Equal(t, "Crafts", got.CustomCategory)

	var resp handler.ActivityView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(2), resp.ID, "response is the newly appended record")
	assert.Equal(t, "Crafts", resp.Category)
	assert.NotEmpty(t, resp.Color)
}

func TestCreateActivity_DurationAsText(t *testing.T) {
	var got domain.ActivityInput
	svc := &mockActivityServicer{
		create: func(_ context.Context, in domain.ActivityInput) ([]domain.Activity, error) {
			got = in
			return []domain.Activity{{ID: 1, Name: in.Name, Category: "Hobby"}}, nil
		},
	}

	body := jsonBody(t, map[string]any{"name": "Run", "duration": "2.5"})
	rec := serve(newHTTPHandler(svc), http.MethodPost, "/activities", body)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "2.5", got.Duration)
}

func TestCreateActivity_422_ValidationError(t *testing.T) {
	svc := &mockActivityServicer{
		create: func(_ context.Context, _ domain.ActivityInput) ([]domain.Activity, error) {
			return nil, fmt.Errorf("%w: custom category required", domain.ErrValidation)
		},
	}

	body := jsonBody(t, map[string]any{"name": "x", "category": "Other"})
	rec := serve(newHTTPHandler(svc), http.MethodPost, "/activities", body)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	detail := decodeError(t, rec)
	assert.Equal(t, "validation_error", detail.Code)
	assert.Equal(t, "custom category required", detail.Message)
}

func TestCreateActivity_400_MalformedBody(t *testing.T) {
	svc := &mockActivityServicer{}

	rec := serve(newHTTPHandler(svc), http.MethodPost, "/activities", bytes.NewBufferString("{not json"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", decodeError(t, rec).Code)
}

func TestCreateActivity_500_StorageErrorKeepsChange(t *testing.T) {
	svc := &mockActivityServicer{
		create: func(_ context.Context, in domain.ActivityInput) ([]domain.Activity, error) {
			return []domain.Activity{{ID: 7, Name: in.Name, Category: "Hobby"}},
				fmt.Errorf("service.ActivityStore.Create: %w: disk full", domain.ErrStorage)
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodPost, "/activities", jsonBody(t, map[string]any{"name": "x"}))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	detail := decodeError(t, rec)
	assert.Equal(t, "storage_error", detail.Code)
	assert.Contains(t, detail.Message, "could not be saved")
}

// ---- PUT /activities/{id} --------------------------------------------------

func TestUpdateActivity_200(t *testing.T) {
	var gotID int64
	svc := &mockActivityServicer{
		update: func(_ context.Context, id int64, in domain.ActivityInput) ([]domain.Activity, error) {
			gotID = id
			return []domain.Activity{
				{ID: 1, Name: "other", Category: "Hobby"},
				{ID: id, Name: in.Name, Date: in.Date, Category: "Work"},
			}, nil
		},
	}

	body := jsonBody(t, map[string]any{"name": "Renamed", "date": "2025-11-09", "category": "Work"})
	rec := serve(newHTTPHandler(svc), http.MethodPut, "/activities/1731000000000", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1731000000000), gotID)

	var resp handler.ActivityView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Renamed", resp.Name)
	assert.True(t, resp.Imminent)
}

func TestUpdateActivity_404(t *testing.T) {
	svc := &mockActivityServicer{
		update: func(_ context.Context, id int64, _ domain.ActivityInput) ([]domain.Activity, error) {
			return nil, fmt.Errorf("service.ActivityStore.Update: activity %d: %w", id, domain.ErrNotFound)
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodPut, "/activities/99", jsonBody(t, map[string]any{"name": "x"}))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Code)
}

func TestUpdateActivity_422(t *testing.T) {
	svc := &mockActivityServicer{
		update: func(_ context.Context, _ int64, _ domain.ActivityInput) ([]domain.Activity, error) {
			return nil, fmt.Errorf("%w: duration must be positive", domain.ErrValidation)
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodPut, "/activities/1", jsonBody(t, map[string]any{"name": "x", "duration": -4}))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "duration must be positive", decodeError(t, rec).Message)
}

func TestUpdateActivity_400_BadID(t *testing.T) {
	svc := &mockActivityServicer{}

	rec := serve(newHTTPHandler(svc), http.MethodPut, "/activities/abc", jsonBody(t, map[string]any{"name": "x"}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.Contains(decodeError(t, rec).Message, "id"))
}

// ---- DELETE /activities/{id} -----------------------------------------------

func TestDeleteActivity_204(t *testing.T) {
	var gotID int64
	svc := &mockActivityServicer{
		delete: func(_ context.Context, id int64) ([]domain.Activity, error) {
			gotID = id
			return []domain.Activity{}, nil
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodDelete, "/activities/5", nil)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(5), gotID)
	assert.Empty(t, rec.Body.String())
}

func TestDeleteActivity_500_StorageError(t *testing.T) {
	svc := &mockActivityServicer{
		delete: func(_ context.Context, _ int64) ([]domain.Activity, error) {
			return []domain.Activity{}, fmt.Errorf("%w: read-only", domain.ErrStorage)
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodDelete, "/activities/5", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "storage_error", decodeError(t, rec).Code)
}

// ---- end to end ------------------------------------------------------------

// TestRoutes_WithRealStore drives create and list through the real store so
// validation messages and ordering are checked from the outside.
func TestRoutes_WithRealStore(t *testing.T) {
	c := clock.NewFake(handlerNow)
	store := service.NewActivityStore(repo.NewMemoryKV(), c, nil)
	h := handler.NewServer(store, service.NewColorAssigner(), c).Routes()

	rec := serve(h, http.MethodPost, "/activities", jsonBody(t, map[string]any{"name": "Later", "date": "2025-12-01"}))
	require.Equal(t, http.StatusCreated, rec.Code)

	c.Advance(time.Millisecond)
	rec = serve(h, http.MethodPost, "/activities", jsonBody(t, map[string]any{"name": "Soon", "date": "2025-11-09"}))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(h, http.MethodPost, "/activities", jsonBody(t, map[string]any{"name": "Past", "date": "2025-11-01"}))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "date must be today or later", decodeError(t, rec).Message)

	rec = serve(h, http.MethodGet, "/activities", nil)
	var resp handler.ActivityList
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "Soon", resp.Data[0].Name)
	assert.Equal(t, "Later", resp.Data[1].Name)
	assert.Equal(t, "Hobby", resp.Data[0].Category)
}
