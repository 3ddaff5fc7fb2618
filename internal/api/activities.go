package api

import (
	"net/http"

	"github.com/tigocode/solar-back/internal/auth"
	"github.com/tigocode/solar-back/internal/domain"
)

// CreateActivityRequest is the payload for POST /activities.
type CreateActivityRequest struct {
	Title         string   `json:"title"`
	Category      string   `json:"category"`
	Subcategory   string   `json:"subcategory"`
	Sector        string   `json:"sector"`
	ScheduledDate string   `json:"scheduledDate"`
	Description   string   `json:"description"`
	Status        string   `json:"status"`
	Duration      string   `json:"duration"`
	Photos        []string `json:"photos"`
	OwnerID       string   `json:"ownerId"`
	OwnerName     string   `json:"ownerName"`
}

// UpdateActivityRequest is the payload for PUT /activities/{id}. Absent fields
// are left untouched. createdAt and duration are not accepted.
type UpdateActivityRequest struct {
	Title         *string   `json:"title"`
	Category      *string   `json:"category"`
	Subcategory   *string   `json:"subcategory"`
	Sector        *string   `json:"sector"`
	ScheduledDate *string   `json:"scheduledDate"`
	Description   *string   `json:"description"`
	Status        *string   `json:"status"`
	Photos        *[]string `json:"photos"`
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.activities.ListActivities(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := h.activities.GetActivity(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

func (h *Handler) createActivity(w http.ResponseWriter, r *http.Request) {
	var req CreateActivityRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	input := domain.CreateActivityInput{
		Title:         req.Title,
		Category:      req.Category,
		Subcategory:   req.Subcategory,
		Sector:        req.Sector,
		ScheduledDate: req.ScheduledDate,
		Description:   req.Description,
		Status:        domain.ActivityStatus(req.Status),
		Duration:      req.Duration,
		Photos:        req.Photos,
		OwnerID:       req.OwnerID,
		OwnerName:     req.OwnerName,
	}
	// A verified token is a better source of identity than the body.
	if claims, ok := auth.FromContext(r.Context()); ok {
		input.OwnerID = claims.Subject
		input.OwnerName = claims.Name
	}

	activity, err := h.activities.CreateActivity(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

func (h *Handler) updateActivity(w http.ResponseWriter, r *http.Request) {
	var req UpdateActivityRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	input := domain.UpdateActivityInput{
		Title:         req.Title,
		Category:      req.Category,
		Subcategory:   req.Subcategory,
		Sector:        req.Sector,
		ScheduledDate: req.ScheduledDate,
		Description:   req.Description,
		Photos:        req.Photos,
	}
	if req.Status != nil {
		status := domain.ActivityStatus(*req.Status)
		input.Status = &status
	}

	activity, err := h.activities.UpdateActivity(r.Context(), r.PathValue("id"), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

func (h *Handler) toggleActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := h.activities.ToggleStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

func (h *Handler) deleteActivity(w http.ResponseWriter, r *http.Request) {
	if err := h.activities.DeleteActivity(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
