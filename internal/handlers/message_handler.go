package handlers

import (
	"github.com/gin-gonic/gin"
)

// GetMessages returns the conversation between the caller and :userId,
// oldest first.
func (h *Handler) GetMessages(c *gin.Context) {
	msgs, err := h.Svc.Messages.History(c.Request.Context(), currentUser(c), c.Param("userId"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondList(c, msgs)
}
