package activity

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cotizapp/cotiz/pkg/response"
)

// Handler handles HTTP requests for activity operations
type Handler struct {
	service *Service
}

// NewHandler creates a new activity handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for activity endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)

	r.Get("/{id}", h.GetByID)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/stats", h.Stats)
	r.Post("/{id}/confirm", h.Confirm)
	r.Post("/{id}/cancel", h.Cancel)

	return r
}

// Create handles POST /activities
// @Summary      Create an activity
// @Description  Register a group activity in draft state
// @Tags         activities
// @Accept       json
// @Produce      json
// @Param        request body CreateActivityRequest true "Activity creation request"
// @Success      201 {object} response.APIResponse{data=ActivityResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /activities [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	a, err := h.service.Create(r.Context(), &req)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	response.JSON(w, http.StatusCreated, a.ToResponse())
}

// List handles GET /activities
// @Summary      List activities of a group
// @Tags         activities
// @Produce      json
// @Param        group_id query int true "Group"
// @Param        state query string false "Filter by state"
// @Success      200 {object} response.APIResponse{data=[]ActivityResponse}
// @Router       /activities [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	groupID, err := strconv.ParseInt(r.URL.Query().Get("group_id"), 10, 64)
	if err != nil || groupID <= 0 {
		response.BadRequest(w, "group_id is required")
		return
	}
	state := r.URL.Query().Get("state")

	activities, err := h.service.ListByGroup(r.Context(), groupID, state)
	if err != nil {
		response.InternalError(w, "Failed to list activities")
		return
	}

	items := make([]ActivityResponse, len(activities))
	for i, a := range activities {
		items[i] = a.ToResponse()
	}
	response.JSON(w, http.StatusOK, items)
}

// GetByID handles GET /activities/{id}
// @Summary      Get an activity
// @Tags         activities
// @Produce      json
// @Param        id path int true "Activity ID"
// @Success      200 {object} response.APIResponse{data=ActivityResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /activities/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		response.BadRequest(w, "Invalid activity ID")
		return
	}

	a, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeActivityError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, a.ToResponse())
}

// Update handles PUT /activities/{id}
// @Summary      Update a draft activity
// @Tags         activities
// @Accept       json
// @Produce      json
// @Param        id path int true "Activity ID"
// @Param        request body UpdateActivityRequest true "Fields to update"
// @Success      200 {object} response.APIResponse{data=ActivityResponse}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /activities/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		response.BadRequest(w, "Invalid activity ID")
		return
	}

	var req UpdateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	a, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		writeActivityError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, a.ToResponse())
}

// Confirm handles POST /activities/{id}/confirm
// @Summary      Confirm an activity
// @Description  Move a draft activity to confirmed and raise one cotisation per active member
// @Tags         activities
// @Produce      json
// @Param        id path int true "Activity ID"
// @Success      200 {object} response.APIResponse{data=ConfirmResult}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /activities/{id}/confirm [post]
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		response.BadRequest(w, "Invalid activity ID")
		return
	}

	a, created, err := h.service.Confirm(r.Context(), id)
	if err != nil {
		writeActivityError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, ConfirmResult{
		Activity:           a.ToResponse(),
		CotisationsCreated: created,
	})
}

// Cancel handles POST /activities/{id}/cancel
// @Summary      Cancel an activity
// @Description  Abort an activity and cancel its unpaid cotisations
// @Tags         activities
// @Produce      json
// @Param        id path int true "Activity ID"
// @Success      200 {object} response.APIResponse{data=ConfirmResult}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /activities/{id}/cancel [post]
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		response.BadRequest(w, "Invalid activity ID")
		return
	}

	a, cancelled, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		writeActivityError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"activity":              a.ToResponse(),
		"cotisations_cancelled": cancelled,
	})
}

// Delete handles DELETE /activities/{id}
// @Summary      Delete a draft activity
// @Tags         activities
// @Param        id path int true "Activity ID"
// @Success      204 "No Content"
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /activities/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		response.BadRequest(w, "Invalid activity ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeActivityError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /activities/{id}/stats
// @Summary      Collection progress of an activity
// @Tags         activities
// @Produce      json
// @Param        id path int true "Activity ID"
// @Success      200 {object} response.APIResponse{data=Stats}
// @Failure      404 {object} response.APIResponse
// @Router       /activities/{id}/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		response.BadRequest(w, "Invalid activity ID")
		return
	}

	stats, err := h.service.Stats(r.Context(), id)
	if err != nil {
		writeActivityError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, stats)
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func writeActivityError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrActivityNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrInvalidState):
		response.Conflict(w, err.Error())
	case errors.Is(err, ErrNoActiveMembers):
		response.UnprocessableEntity(w, err.Error())
	default:
		response.BadRequest(w, err.Error())
	}
}
