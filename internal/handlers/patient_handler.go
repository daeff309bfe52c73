package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/healthcare-portal/internal/models"
)

func (h *Handler) Dashboard(c *gin.Context) {
	d, err := h.Svc.Dashboard.Dashboard(c.Request.Context(), currentUser(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, d)
}

// UpdateGoals merges the posted metrics into today's goal. Omitted or null
// fields keep their value.
func (h *Handler) UpdateGoals(c *gin.Context) {
	var req models.GoalMetrics
	if !bindJSON(c, &req) {
		return
	}
	g, err := h.Svc.Goals.UpdateToday(c.Request.Context(), currentUser(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, g)
}

// GoalHistory serves /patient/goals/history?days=N.
func (h *Handler) GoalHistory(c *gin.Context) {
	days, err := h.Svc.Goals.ParseHistoryDays(c.Query("days"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	goals, err := h.Svc.Goals.History(c.Request.Context(), currentUser(c), days)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondList(c, goals)
}

func (h *Handler) GetReminders(c *gin.Context) {
	reminders, err := h.Svc.Reminders.ListForUser(c.Request.Context(), currentUser(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondList(c, reminders)
}

func (h *Handler) CompleteReminder(c *gin.Context) {
	r, err := h.Svc.Reminders.Complete(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, r)
}

func (h *Handler) GetAvailableProviders(c *gin.Context) {
	providers, err := h.Svc.Care.AvailableProviders(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondList(c, providers)
}

func (h *Handler) GetAssignedProvider(c *gin.Context) {
	p, err := h.Svc.Care.AssignedProvider(c.Request.Context(), currentUser(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, p)
}

func (h *Handler) AssignProvider(c *gin.Context) {
	p, err := h.Svc.Care.AssignProvider(c.Request.Context(), currentUser(c), c.Param("providerId"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: p, Message: "Provider assigned successfully"})
}

func (h *Handler) UnassignProvider(c *gin.Context) {
	if err := h.Svc.Care.UnassignProvider(c.Request.Context(), currentUser(c)); err != nil {
		h.handleError(c, err)
		return
	}
	respondMessage(c, "Provider unassigned successfully")
}
