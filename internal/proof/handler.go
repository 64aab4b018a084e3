package proof

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cotizapp/cotiz/pkg/middleware"
	"github.com/cotizapp/cotiz/pkg/response"
)

// Handler handles HTTP requests for payment-proof operations
type Handler struct {
	service *Service
}

// NewHandler creates a new proof handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for proof endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Submit)
	r.Get("/", h.List)
	r.Get("/pending-count", h.PendingCount)

	r.Get("/{id}", h.GetByID)
	r.Post("/{id}/review", h.StartReview)
	r.Post("/{id}/validate", h.Validate)
	r.Post("/{id}/reject", h.Reject)

	return r
}

// Submit handles POST /proofs
// @Summary      Submit a payment proof
// @Description  File a payment claim against one of the caller's cotisations
// @Tags         proofs
// @Accept       json
// @Produce      json
// @Param        request body SubmitProofRequest true "Proof submission"
// @Success      201 {object} response.APIResponse{data=ProofResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /proofs [post]
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.GetMemberID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req SubmitProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	p, err := h.service.Submit(r.Context(), memberID, &req)
	if err != nil {
		writeProofError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, p.ToResponse(time.Now()))
}

// List handles GET /proofs
// @Summary      List payment proofs
// @Tags         proofs
// @Produce      json
// @Param        state query string false "Filter by state"
// @Param        member_id query int false "Filter by member"
// @Success      200 {object} response.APIResponse{data=[]ProofResponse}
// @Router       /proofs [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	memberID, _ := strconv.ParseInt(r.URL.Query().Get("member_id"), 10, 64)

	proofs, err := h.service.List(r.Context(), state, memberID)
	if err != nil {
		response.InternalError(w, "Failed to list proofs")
		return
	}

	now := time.Now()
	items := make([]*ProofResponse, len(proofs))
	for i, p := range proofs {
		items[i] = p.ToResponse(now)
	}
	response.JSON(w, http.StatusOK, items)
}

// GetByID handles GET /proofs/{id}
// @Summary      Get a payment proof
// @Tags         proofs
// @Produce      json
// @Param        id path int true "Proof ID"
// @Success      200 {object} response.APIResponse{data=ProofResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /proofs/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		response.BadRequest(w, "Invalid proof ID")
		return
	}

	p, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeProofError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, p.ToResponse(time.Now()))
}

// StartReview handles POST /proofs/{id}/review
// @Summary      Start reviewing a proof
// @Tags         proofs
// @Produce      json
// @Param        id path int true "Proof ID"
// @Success      200 {object} response.APIResponse{data=ProofResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /proofs/{id}/review [post]
func (h *Handler) StartReview(w http.ResponseWriter, r *http.Request) {
	if !middleware.IsManager(r.Context()) {
		response.Forbidden(w, "Manager role required")
		return
	}
	id, err := parseID(r)
	if err != nil {
		response.BadRequest(w, "Invalid proof ID")
		return
	}

	p, err := h.service.StartReview(r.Context(), id)
	if err != nil {
		writeProofError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, p.ToResponse(time.Now()))
}

// Validate handles POST /proofs/{id}/validate
// @Summary      Validate a proof
// @Description  Accept the claim and record the payment on the cotisation
// @Tags         proofs
// @Accept       json
// @Produce      json
// @Param        id path int true "Proof ID"
// @Param        request body ValidateProofRequest false "Validation notes"
// @Success      200 {object} response.APIResponse{data=ProofResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /proofs/{id}/validate [post]
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	if !middleware.IsManager(r.Context()) {
		response.Forbidden(w, "Manager role required")
		return
	}
	validatorID, _ := middleware.GetMemberID(r.Context())
	id, err := parseID(r)
	if err != nil {
		response.BadRequest(w, "Invalid proof ID")
		return
	}

	var req ValidateProofRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	p, err := h.service.Validate(r.Context(), id, validatorID, &req)
	if err != nil {
		writeProofError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, p.ToResponse(time.Now()))
}

// Reject handles POST /proofs/{id}/reject
// @Summary      Reject a proof
// @Tags         proofs
// @Accept       json
// @Produce      json
// @Param        id path int true "Proof ID"
// @Param        request body RejectProofRequest true "Rejection reason"
// @Success      200 {object} response.APIResponse{data=ProofResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /proofs/{id}/reject [post]
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	if !middleware.IsManager(r.Context()) {
		response.Forbidden(w, "Manager role required")
		return
	}
	validatorID, _ := middleware.GetMemberID(r.Context())
	id, err := parseID(r)
	if err != nil {
		response.BadRequest(w, "Invalid proof ID")
		return
	}

	var req RejectProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	p, err := h.service.Reject(r.Context(), id, validatorID, &req)
	if err != nil {
		writeProofError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, p.ToResponse(time.Now()))
}

// PendingCount handles GET /proofs/pending-count
// @Summary      Count proofs awaiting a decision
// @Tags         proofs
// @Produce      json
// @Success      200 {object} response.APIResponse
// @Router       /proofs/pending-count [get]
func (h *Handler) PendingCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.CountPending(r.Context())
	if err != nil {
		response.InternalError(w, "Failed to count pending proofs")
		return
	}
	response.JSON(w, http.StatusOK, map[string]int{"pending": n})
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func writeProofError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrProofNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrAlreadyDecided), errors.Is(err, ErrItemNotPayable):
		response.Conflict(w, err.Error())
	case errors.Is(err, ErrAmountTooHigh), errors.Is(err, ErrFutureDate), errors.Is(err, ErrMemberMismatch), errors.Is(err, ErrUnknownReason):
		response.UnprocessableEntity(w, err.Error())
	default:
		response.BadRequest(w, err.Error())
	}
}
