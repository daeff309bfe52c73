package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harentsoaR/healthcare-portal/internal/middleware"
	"github.com/harentsoaR/healthcare-portal/internal/services"
)

// Response is the envelope of every JSON response.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Success: true, Data: data})
}

func respondList[T any](c *gin.Context, items []T) {
	n := len(items)
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: items, Count: &n})
}

func respondMessage(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, Response{Success: true, Message: msg})
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Message: msg})
}

// handleError maps a service failure onto a status code. Unexpected errors
// are logged and reported without detail.
func (h *Handler) handleError(c *gin.Context, err error) {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		switch {
		case errors.Is(err, services.ErrNotFound):
			fail(c, http.StatusNotFound, svcErr.Message)
		case errors.Is(err, services.ErrForbidden):
			fail(c, http.StatusForbidden, svcErr.Message)
		case errors.Is(err, services.ErrUnauthorized):
			fail(c, http.StatusUnauthorized, svcErr.Message)
		default: // validation, invalid state
			fail(c, http.StatusBadRequest, svcErr.Message)
		}
		return
	}
	h.Log.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err))
	fail(c, http.StatusInternalServerError, "Server Error")
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func currentUser(c *gin.Context) string {
	return c.GetString(middleware.ContextUserID)
}
