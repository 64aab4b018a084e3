package plan

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cotizapp/cotiz/internal/cotisation/ledger"
	"github.com/cotizapp/cotiz/pkg/response"
)

// Handler handles HTTP requests for payment-plan operations
type Handler struct {
	service *Service
}

// NewHandler creates a new plan handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for plan endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)

	r.Get("/{id}", h.GetByID)
	r.Delete("/{id}", h.Cancel)
	r.Get("/{id}/stats", h.Stats)
	r.Post("/{id}/confirm", h.Confirm)
	r.Post("/{id}/complete", h.Complete)
	r.Post("/{id}/installments/{installmentId}/payments", h.PayInstallment)

	return r
}

// Create handles POST /plans
// @Summary      Create a payment plan
// @Description  Spread a member's debt over scheduled installments
// @Tags         plans
// @Accept       json
// @Produce      json
// @Param        request body CreatePlanRequest true "Plan creation request"
// @Success      201 {object} response.APIResponse{data=PlanResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /plans [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	p, err := h.service.Create(r.Context(), &req)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	response.JSON(w, http.StatusCreated, p.ToResponse(nil))
}

// List handles GET /plans
// @Summary      List payment plans
// @Tags         plans
// @Produce      json
// @Param        member_id query int false "Filter by member"
// @Param        state query string false "Filter by state"
// @Success      200 {object} response.APIResponse{data=[]PlanResponse}
// @Router       /plans [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	memberID, _ := strconv.ParseInt(r.URL.Query().Get("member_id"), 10, 64)
	state := r.URL.Query().Get("state")

	plans, err := h.service.List(r.Context(), memberID, state)
	if err != nil {
		response.InternalError(w, "Failed to list payment plans")
		return
	}

	items := make([]*PlanResponse, len(plans))
	for i, p := range plans {
		items[i] = p.ToResponse(nil)
	}
	response.JSON(w, http.StatusOK, items)
}

// GetByID handles GET /plans/{id}
// @Summary      Get a payment plan with its installments
// @Tags         plans
// @Produce      json
// @Param        id path int true "Plan ID"
// @Success      200 {object} response.APIResponse{data=PlanResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /plans/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid plan ID")
		return
	}

	p, installments, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writePlanError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, p.ToResponse(installments))
}

// Confirm handles POST /plans/{id}/confirm
// @Summary      Confirm a plan
// @Description  Generate the installment schedule and lock the plan terms
// @Tags         plans
// @Produce      json
// @Param        id path int true "Plan ID"
// @Success      200 {object} response.APIResponse{data=PlanResponse}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /plans/{id}/confirm [post]
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid plan ID")
		return
	}

	p, installments, err := h.service.Confirm(r.Context(), id)
	if err != nil {
		writePlanError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, p.ToResponse(installments))
}

// PayInstallment handles POST /plans/{id}/installments/{installmentId}/payments
// @Summary      Pay an installment
// @Tags         plans
// @Accept       json
// @Produce      json
// @Param        id path int true "Plan ID"
// @Param        installmentId path int true "Installment ID"
// @Param        request body PayInstallmentRequest true "Payment"
// @Success      200 {object} response.APIResponse{data=InstallmentResponse}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /plans/{id}/installments/{installmentId}/payments [post]
func (h *Handler) PayInstallment(w http.ResponseWriter, r *http.Request) {
	planID, err := parseID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid plan ID")
		return
	}
	installmentID, err := parseID(r, "installmentId")
	if err != nil {
		response.BadRequest(w, "Invalid installment ID")
		return
	}

	var req PayInstallmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	inst, err := h.service.PayInstallment(r.Context(), planID, installmentID, &req)
	if err != nil {
		writePlanError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, inst.ToResponse())
}

// Complete handles POST /plans/{id}/complete
// @Summary      Complete a plan
// @Description  Close the plan once every installment is settled
// @Tags         plans
// @Produce      json
// @Param        id path int true "Plan ID"
// @Success      200 {object} response.APIResponse{data=PlanResponse}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /plans/{id}/complete [post]
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid plan ID")
		return
	}

	p, err := h.service.Complete(r.Context(), id)
	if err != nil {
		writePlanError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, p.ToResponse(nil))
}

// Cancel handles DELETE /plans/{id}
// @Summary      Cancel a plan
// @Description  Delete a draft plan, or cancel an active one and void its unpaid installments
// @Tags         plans
// @Produce      json
// @Param        id path int true "Plan ID"
// @Success      200 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /plans/{id} [delete]
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid plan ID")
		return
	}

	voided, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		writePlanError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"installments_voided": voided,
	})
}

// Stats handles GET /plans/{id}/stats
// @Summary      Progress of a plan
// @Tags         plans
// @Produce      json
// @Param        id path int true "Plan ID"
// @Success      200 {object} response.APIResponse{data=Stats}
// @Failure      404 {object} response.APIResponse
// @Router       /plans/{id}/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid plan ID")
		return
	}

	stats, err := h.service.Stats(r.Context(), id)
	if err != nil {
		writePlanError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, stats)
}

func parseID(r *http.Request, key string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, key), 10, 64)
}

func writePlanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrPlanNotFound), errors.Is(err, ErrInstallmentNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrNotAllPaid), errors.Is(err, ledger.ErrItemNotPayable):
		response.Conflict(w, err.Error())
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrExceedsRemaining):
		response.UnprocessableEntity(w, err.Error())
	default:
		response.BadRequest(w, err.Error())
	}
}
