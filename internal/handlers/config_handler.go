package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Message: "Server is running"})
}

// GoalTargets serves the default goal targets so clients display the same
// values the ledger applies.
func (h *Handler) GoalTargets(c *gin.Context) {
	respond(c, http.StatusOK, h.Svc.Goals.Targets())
}
