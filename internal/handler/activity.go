package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/activity-log/internal/domain"
	"github.com/pkordes/activity-log/internal/schedule"
)

// ActivityRequest is the body of POST /activities and PUT /activities/{id}.
// Duration may be sent as a JSON number or as the text typed into the form.
type ActivityRequest struct {
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	Date           string       `json:"date"`
	Duration       textOrNumber `json:"duration"`
	Category       string       `json:"category"`
	CustomCategory string       `json:"custom_category"`
}

// ActivityView is an activity as presented to clients.
type ActivityView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Date        string `json:"date,omitempty"`
	Duration    *int   `json:"duration,omitempty"`
	Category    string `json:"category"`
	Imminent    bool   `json:"imminent"`
	Color       string `json:"color"`
}

// ActivityList is the body of GET /activities.
type ActivityList struct {
	Data []ActivityView `json:"data"`
}

// ListActivities handles GET /activities.
// Activities are ordered imminent-first, then by date, undated last.
func (s *Server) ListActivities(w http.ResponseWriter, _ *http.Request) {
	now := s.clock.Now()
	ordered := schedule.Order(s.activities.List(), now)

	data := make([]ActivityView, len(ordered))
	for i, a := range ordered {
		data[i] = s.activityToView(a, now)
	}
	writeJSON(w, http.StatusOK, ActivityList{Data: data})
}

// CreateActivity handles POST /activities.
func (s *Server) CreateActivity(w http.ResponseWriter, r *http.Request) {
	in, err := decodeActivityRequest(r)
	if err != nil {
		writeDecodeError(w, err)
		return
	}

	list, err := s.activities.Create(r.Context(), in)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
			return
		}
		s.writeServerError(w, err)
		return
	}

	// Create appends, so the new record is last.
	created := list[len(list)-1]
	writeJSON(w, http.StatusCreated, s.activityToView(created, s.clock.Now()))
}

// UpdateActivity handles PUT /activities/{id}.
func (s *Server) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	id, err := bindID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	in, err := decodeActivityRequest(r)
	if err != nil {
		writeDecodeError(w, err)
		return
	}

	list, err := s.activities.Update(r.Context(), id, in)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeJSON(w, http.StatusNotFound, notFoundBody("activity not found"))
		case errors.Is(err, domain.ErrValidation):
			writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
		default:
			s.writeServerError(w, err)
		}
		return
	}

	for _, a := range list {
		if a.ID == id {
			writeJSON(w, http.StatusOK, s.activityToView(a, s.clock.Now()))
			return
		}
	}
	writeJSON(w, http.StatusNotFound, notFoundBody("activity not found"))
}

// DeleteActivity handles DELETE /activities/{id}.
// Deleting an activity that does not exist still returns 204.
func (s *Server) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	id, err := bindID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}

	if _, err := s.activities.Delete(r.Context(), id); err != nil {
		s.writeServerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeServerError maps storage failures to a storage_error body and anything
// else to a bare 500.
func (s *Server) writeServerError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrStorage) {
		writeJSON(w, http.StatusInternalServerError, storageBody())
		return
	}
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{Code: "internal", Message: "internal error"}})
}

// writeDecodeError answers 413 for an oversized body and 400 otherwise.
func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, tooLargeBody(tooLarge.Limit))
		return
	}
	writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
}

// --- mapping helpers --------------------------------------------------------

// bindID parses the {id} path parameter as an int64.
func bindID(r *http.Request) (int64, error) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false})
	if err != nil {
		return 0, errors.New("invalid activity id")
	}
	return id, nil
}

// decodeActivityRequest reads an ActivityRequest body into a domain.ActivityInput.
// A body cut off by http.MaxBytesReader is returned as *http.MaxBytesError.
func decodeActivityRequest(r *http.Request) (domain.ActivityInput, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return domain.ActivityInput{}, errors.New("request body is required")
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.ActivityInput{}, tooLarge
		}
		return domain.ActivityInput{}, errors.New("request body could not be read")
	}
	var body ActivityRequest
	if err := json.Unmarshal(raw, &body); err != nil {
		return domain.ActivityInput{}, errors.New("request body must be a JSON activity")
	}
	return domain.ActivityInput{
		Name:           body.Name,
		Description:    body.Description,
		Date:           body.Date,
		Duration:       string(body.Duration),
		Category:       body.Category,
		CustomCategory: body.CustomCategory,
	}, nil
}

func (s *Server) activityToView(a domain.Activity, now time.Time) ActivityView {
	v := ActivityView{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		Date:        a.Date,
		Duration:    a.Duration,
		Category:    a.Category,
		Imminent:    schedule.IsImminent(a, now),
	}
	if s.colors != nil {
		v.Color = s.colors.Color(a.Category)
	}
	return v
}

// textOrNumber accepts a JSON string, number, or null and keeps its text.
type textOrNumber string

func (t *textOrNumber) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = textOrNumber(s)
		return nil
	}
	*t = textOrNumber(b)
	return nil
}
