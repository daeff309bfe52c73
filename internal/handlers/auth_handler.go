// internal/handlers/auth_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/healthcare-portal/internal/models"
	"github.com/harentsoaR/healthcare-portal/internal/services"
)

// Register creates a patient account and signs it in.
func (h *Handler) Register(c *gin.Context) {
	var req services.RegisterInput
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Svc.Auth.Register(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusCreated, res)
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Svc.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}

// GetMe retrieves the profile of the currently authenticated user.
func (h *Handler) GetMe(c *gin.Context) {
	user, err := h.Svc.Auth.Me(c.Request.Context(), currentUser(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, user)
}

// UpdateProfile changes name, email, health info or consent of the caller.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req services.ProfileUpdate
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.Svc.Auth.UpdateProfile(c.Request.Context(), currentUser(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, user)
}

func (h *Handler) UpdateBasicInfo(c *gin.Context) {
	var req models.BasicInfo
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.Svc.Auth.UpdateBasicInfo(c.Request.Context(), currentUser(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, user)
}
