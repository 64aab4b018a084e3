package notification

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cotizapp/cotiz/pkg/middleware"
	"github.com/cotizapp/cotiz/pkg/response"
)

// Handler handles HTTP requests for notification operations
type Handler struct {
	service *Service
}

// NewHandler creates a new notification handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for notification endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/unread-count", h.UnreadCount)
	r.Post("/reminders", h.SendReminders)
	r.Put("/read-all", h.MarkAllAsRead)
	r.Put("/{id}/read", h.MarkAsRead)

	return r
}

// List handles GET /notifications
// @Summary      List the caller's notifications
// @Tags         notifications
// @Produce      json
// @Param        page query int false "Page"
// @Param        per_page query int false "Page size"
// @Param        unread_only query bool false "Only unread"
// @Success      200 {object} response.APIResponse{data=[]Notification}
// @Router       /notifications [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.GetMemberID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	unreadOnly := r.URL.Query().Get("unread_only") == "true"

	notifications, total, err := h.service.ListByRecipientID(r.Context(), memberID, page, perPage, unreadOnly)
	if err != nil {
		response.InternalError(w, "Failed to list notifications")
		return
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	response.JSONWithMeta(w, http.StatusOK, notifications, &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	})
}

// UnreadCount handles GET /notifications/unread-count
// @Summary      Count the caller's unread notifications
// @Tags         notifications
// @Produce      json
// @Success      200 {object} response.APIResponse
// @Router       /notifications/unread-count [get]
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.GetMemberID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	count, err := h.service.GetUnreadCount(r.Context(), memberID)
	if err != nil {
		response.InternalError(w, "Failed to count notifications")
		return
	}
	response.JSON(w, http.StatusOK, map[string]int{"unread": count})
}

// MarkAsRead handles PUT /notifications/{id}/read
// @Summary      Mark a notification as read
// @Tags         notifications
// @Param        id path int true "Notification ID"
// @Success      204 "No Content"
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /notifications/{id}/read [put]
func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.GetMemberID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid notification ID")
		return
	}

	if err := h.service.MarkAsRead(r.Context(), id, memberID); err != nil {
		switch {
		case errors.Is(err, ErrNotificationNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotRecipient):
			response.Forbidden(w, err.Error())
		default:
			response.InternalError(w, "Failed to mark notification as read")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllAsRead handles PUT /notifications/read-all
// @Summary      Mark all the caller's notifications as read
// @Tags         notifications
// @Success      204 "No Content"
// @Router       /notifications/read-all [put]
func (h *Handler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.GetMemberID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	if err := h.service.MarkAllAsRead(r.Context(), memberID); err != nil {
		response.InternalError(w, "Failed to mark notifications as read")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SendReminders handles POST /notifications/reminders
// @Summary      Send overdue reminders
// @Description  Notify members whose cotisations fall in the tier's days-overdue window
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Param        request body ReminderRequest true "Reminder tier and filters"
// @Success      200 {object} response.APIResponse{data=ReminderResult}
// @Failure      403 {object} response.APIResponse
// @Router       /notifications/reminders [post]
func (h *Handler) SendReminders(w http.ResponseWriter, r *http.Request) {
	if !middleware.IsManager(r.Context()) {
		response.Forbidden(w, "Manager role required")
		return
	}

	var req ReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	result, err := h.service.SendReminders(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrUnknownTier) {
			response.UnprocessableEntity(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to send reminders")
		return
	}
	response.JSON(w, http.StatusOK, result)
}
