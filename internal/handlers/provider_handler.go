package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/healthcare-portal/internal/services"
)

// GetPatients lists the caller's patients with their compliance status.
func (h *Handler) GetPatients(c *gin.Context) {
	patients, err := h.Svc.Care.Patients(c.Request.Context(), currentUser(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondList(c, patients)
}

func (h *Handler) GetPatientDetails(c *gin.Context) {
	d, err := h.Svc.Care.PatientDetails(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, d)
}

// dueDateLayouts are the accepted formats of a reminder due date.
var dueDateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

func parseDueDate(s string) (*time.Time, bool) {
	if s == "" {
		return nil, true
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t, true
		}
	}
	return nil, false
}

func (h *Handler) CreateReminder(c *gin.Context) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Type        string `json:"type"`
		DueDate     string `json:"dueDate"`
	}
	if !bindJSON(c, &req) {
		return
	}
	due, ok := parseDueDate(req.DueDate)
	if !ok {
		fail(c, http.StatusBadRequest, "Invalid due date")
		return
	}
	r, err := h.Svc.Reminders.Create(c.Request.Context(), c.Param("id"), currentUser(c), services.ReminderInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		DueDate:     due,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusCreated, r)
}
