package cotisation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cotizapp/cotiz/internal/cotisation/ledger"
	"github.com/cotizapp/cotiz/pkg/response"
)

// Handler handles HTTP requests for cotisation operations
type Handler struct {
	service *Service
}

// NewHandler creates a new cotisation handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for cotisation endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/overdue-summary", h.OverdueSummary)
	r.Post("/mass-payment", h.MassPayment)

	r.Get("/{id}", h.GetByID)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/payments", h.ListPayments)
	r.Post("/{id}/payments", h.RecordPayment)
	r.Post("/{id}/mark-paid", h.MarkPaid)
	r.Post("/{id}/cancel", h.Cancel)
	r.Post("/{id}/reactivate", h.Reactivate)

	return r
}

// Create handles POST /cotisations
// @Summary      Raise a cotisation
// @Description  Create a due item for a member against an activity or monthly period
// @Tags         cotisations
// @Accept       json
// @Produce      json
// @Param        request body CreateCotisationRequest true "Cotisation creation request"
// @Success      201 {object} response.APIResponse{data=CotisationResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /cotisations [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCotisationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	c, err := h.service.Create(r.Context(), &req)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	response.JSON(w, http.StatusCreated, c.ToResponse(time.Now()))
}

// List handles GET /cotisations
// @Summary      List cotisations
// @Tags         cotisations
// @Produce      json
// @Param        member_id query int false "Filter by member"
// @Param        state query string false "Filter by state"
// @Param        page query int false "Page"
// @Param        per_page query int false "Page size"
// @Success      200 {object} response.APIResponse{data=[]CotisationResponse}
// @Router       /cotisations [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	memberID, _ := strconv.ParseInt(r.URL.Query().Get("member_id"), 10, 64)
	state := r.URL.Query().Get("state")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	cotisations, total, err := h.service.List(r.Context(), memberID, state, page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list cotisations")
		return
	}

	now := time.Now()
	items := make([]*CotisationResponse, len(cotisations))
	for i, c := range cotisations {
		items[i] = c.ToResponse(now)
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	response.JSONWithMeta(w, http.StatusOK, items, &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	})
}

// GetByID handles GET /cotisations/{id}
// @Summary      Get cotisation by ID
// @Tags         cotisations
// @Produce      json
// @Param        id path int true "Cotisation ID"
// @Success      200 {object} response.APIResponse{data=CotisationResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /cotisations/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid cotisation ID")
		return
	}

	c, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrCotisationNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get cotisation")
		return
	}
	response.JSON(w, http.StatusOK, c.ToResponse(time.Now()))
}

// RecordPayment handles POST /cotisations/{id}/payments
// @Summary      Record a payment
// @Description  Apply a payment to one cotisation under the ledger rules
// @Tags         cotisations
// @Accept       json
// @Produce      json
// @Param        id path int true "Cotisation ID"
// @Param        request body RecordPaymentRequest true "Payment request"
// @Success      200 {object} response.APIResponse{data=CotisationResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /cotisations/{id}/payments [post]
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid cotisation ID")
		return
	}

	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	c, _, err := h.service.RecordPayment(r.Context(), id, &req)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, c.ToResponse(time.Now()))
}

// MarkPaid handles POST /cotisations/{id}/mark-paid
// @Summary      Mark a cotisation as fully paid
// @Tags         cotisations
// @Produce      json
// @Param        id path int true "Cotisation ID"
// @Success      200 {object} response.APIResponse{data=CotisationResponse}
// @Failure      409 {object} response.APIResponse
// @Router       /cotisations/{id}/mark-paid [post]
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid cotisation ID")
		return
	}

	c, err := h.service.MarkPaid(r.Context(), id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, c.ToResponse(time.Now()))
}

// Cancel handles POST /cotisations/{id}/cancel
// @Summary      Cancel a cotisation
// @Description  Soft-deletes the item; items with recorded payments are never hard-deleted
// @Tags         cotisations
// @Produce      json
// @Param        id path int true "Cotisation ID"
// @Success      200 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /cotisations/{id}/cancel [post]
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid cotisation ID")
		return
	}

	if err := h.service.Cancel(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrCotisationNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrCannotCancelPaid):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, "Failed to cancel cotisation")
		}
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// Reactivate handles POST /cotisations/{id}/reactivate
// @Summary      Reactivate a cancelled cotisation
// @Tags         cotisations
// @Produce      json
// @Param        id path int true "Cotisation ID"
// @Success      200 {object} response.APIResponse{data=CotisationResponse}
// @Router       /cotisations/{id}/reactivate [post]
func (h *Handler) Reactivate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid cotisation ID")
		return
	}

	c, err := h.service.Reactivate(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrCotisationNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrAlreadyActive):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, "Failed to reactivate cotisation")
		}
		return
	}
	response.JSON(w, http.StatusOK, c.ToResponse(time.Now()))
}

// Delete handles DELETE /cotisations/{id}
// @Summary      Delete a cotisation without payment history
// @Tags         cotisations
// @Produce      json
// @Param        id path int true "Cotisation ID"
// @Success      200 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /cotisations/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid cotisation ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrCotisationNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrHasPayments):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, "Failed to delete cotisation")
		}
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListPayments handles GET /cotisations/{id}/payments
// @Summary      Payment history of a cotisation
// @Tags         cotisations
// @Produce      json
// @Param        id path int true "Cotisation ID"
// @Success      200 {object} response.APIResponse{data=[]PaymentResponse}
// @Router       /cotisations/{id}/payments [get]
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid cotisation ID")
		return
	}

	payments, err := h.service.ListPayments(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrCotisationNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to list payments")
		return
	}

	items := make([]*PaymentResponse, len(payments))
	for i, p := range payments {
		items[i] = p.ToResponse()
	}
	response.JSON(w, http.StatusOK, items)
}

// MassPayment handles POST /cotisations/mass-payment
// @Summary      Spread a payment across several cotisations
// @Description  FULL, EQUAL, PROPORTIONAL or INDIVIDUAL allocation; partial-success semantics
// @Tags         cotisations
// @Accept       json
// @Produce      json
// @Param        request body MassPaymentRequest true "Mass payment request"
// @Success      200 {object} response.APIResponse{data=BatchResult}
// @Failure      400 {object} response.APIResponse
// @Router       /cotisations/mass-payment [post]
func (h *Handler) MassPayment(w http.ResponseWriter, r *http.Request) {
	var req MassPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	result, err := h.service.MassPayment(r.Context(), &req)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	response.JSON(w, http.StatusOK, result)
}

// OverdueSummary handles GET /cotisations/overdue-summary
// @Summary      Summary of overdue cotisations
// @Tags         cotisations
// @Produce      json
// @Success      200 {object} response.APIResponse{data=OverdueSummary}
// @Router       /cotisations/overdue-summary [get]
func (h *Handler) OverdueSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.OverdueSummary(r.Context())
	if err != nil {
		response.InternalError(w, "Failed to build overdue summary")
		return
	}
	response.JSON(w, http.StatusOK, summary)
}

// writeLedgerError maps engine and service errors to HTTP responses
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrCotisationNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrExceedsRemaining),
		errors.Is(err, ErrUnknownMethod),
		errors.Is(err, ErrInvalidDueDate):
		response.UnprocessableEntity(w, err.Error())
	case errors.Is(err, ledger.ErrItemNotPayable):
		response.Conflict(w, err.Error())
	default:
		response.InternalError(w, "Failed to record payment")
	}
}
