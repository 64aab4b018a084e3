package monthly

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cotizapp/cotiz/pkg/response"
)

// Handler handles HTTP requests for monthly period operations
type Handler struct {
	service *Service
}

// NewHandler creates a new monthly handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for monthly period endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)

	r.Get("/{id}", h.GetByID)
	r.Delete("/{id}", h.Cancel)
	r.Get("/{id}/stats", h.Stats)
	r.Post("/{id}/activate", h.Activate)
	r.Post("/{id}/close", h.Close)

	return r
}

// Create handles POST /monthly
// @Summary      Create a monthly period
// @Description  Register a group's recurring fee for one month
// @Tags         monthly
// @Accept       json
// @Produce      json
// @Param        request body CreatePeriodRequest true "Period creation request"
// @Success      201 {object} response.APIResponse{data=PeriodResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /monthly [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	p, err := h.service.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrDuplicatePeriod) {
			response.Conflict(w, err.Error())
			return
		}
		response.BadRequest(w, err.Error())
		return
	}
	response.JSON(w, http.StatusCreated, p.ToResponse())
}

// List handles GET /monthly
// @Summary      List a group's monthly periods
// @Tags         monthly
// @Produce      json
// @Param        group_id query int true "Group"
// @Param        year query int false "Filter by year"
// @Success      200 {object} response.APIResponse{data=[]PeriodResponse}
// @Router       /monthly [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	groupID, err := strconv.ParseInt(r.URL.Query().Get("group_id"), 10, 64)
	if err != nil || groupID <= 0 {
		response.BadRequest(w, "group_id is required")
		return
	}
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))

	periods, err := h.service.ListByGroup(r.Context(), groupID, year)
	if err != nil {
		response.InternalError(w, "Failed to list monthly periods")
		return
	}

	items := make([]PeriodResponse, len(periods))
	for i, p := range periods {
		items[i] = p.ToResponse()
	}
	response.JSON(w, http.StatusOK, items)
}

// GetByID handles GET /monthly/{id}
// @Summary      Get a monthly period
// @Tags         monthly
// @Produce      json
// @Param        id path int true "Period ID"
// @Success      200 {object} response.APIResponse{data=PeriodResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /monthly/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		response.BadRequest(w, "Invalid period ID")
		return
	}

	p, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writePeriodError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, p.ToResponse())
}

// Activate handles POST /monthly/{id}/activate
// @Summary      Activate a monthly period
// @Description  Raise one cotisation per active member of the group
// @Tags         monthly
// @Produce      json
// @Param        id path int true "Period ID"
// @Success      200 {object} response.APIResponse{data=ActivateResult}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /monthly/{id}/activate [post]
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		response.BadRequest(w, "Invalid period ID")
		return
	}

	p, created, err := h.service.Activate(r.Context(), id)
	if err != nil {
		writePeriodError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, ActivateResult{
		Period:             p.ToResponse(),
		CotisationsCreated: created,
	})
}

// Close handles POST /monthly/{id}/close
// @Summary      Close a monthly period
// @Tags         monthly
// @Produce      json
// @Param        id path int true "Period ID"
// @Success      200 {object} response.APIResponse{data=PeriodResponse}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /monthly/{id}/close [post]
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		response.BadRequest(w, "Invalid period ID")
		return
	}

	p, err := h.service.Close(r.Context(), id)
	if err != nil {
		writePeriodError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, p.ToResponse())
}

// Cancel handles DELETE /monthly/{id}
// @Summary      Cancel a monthly period
// @Description  Delete a draft period, or close an active one and cancel its unpaid cotisations
// @Tags         monthly
// @Produce      json
// @Param        id path int true "Period ID"
// @Success      200 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /monthly/{id} [delete]
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		response.BadRequest(w, "Invalid period ID")
		return
	}

	cancelled, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		writePeriodError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"cotisations_cancelled": cancelled,
	})
}

// Stats handles GET /monthly/{id}/stats
// @Summary      Collection progress of a monthly period
// @Tags         monthly
// @Produce      json
// @Param        id path int true "Period ID"
// @Success      200 {object} response.APIResponse{data=Stats}
// @Failure      404 {object} response.APIResponse
// @Router       /monthly/{id}/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		response.BadRequest(w, "Invalid period ID")
		return
	}

	stats, err := h.service.Stats(r.Context(), id)
	if err != nil {
		writePeriodError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, stats)
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func writePeriodError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrPeriodNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrInvalidState):
		response.Conflict(w, err.Error())
	case errors.Is(err, ErrNoActiveMembers):
		response.UnprocessableEntity(w, err.Error())
	default:
		response.BadRequest(w, err.Error())
	}
}
