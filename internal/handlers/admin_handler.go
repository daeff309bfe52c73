package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/healthcare-portal/internal/services"
)

func (h *Handler) Stats(c *gin.Context) {
	st, err := h.Svc.Admin.Stats(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, st)
}

func (h *Handler) ListProviders(c *gin.Context) {
	providers, err := h.Svc.Admin.ListProviders(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondList(c, providers)
}

func (h *Handler) GetProvider(c *gin.Context) {
	p, err := h.Svc.Admin.GetProvider(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, p)
}

func (h *Handler) CreateProvider(c *gin.Context) {
	var req services.ProviderInput
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.Svc.Admin.CreateProvider(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusCreated, p)
}

func (h *Handler) UpdateProvider(c *gin.Context) {
	var req services.ProviderUpdate
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.Svc.Admin.UpdateProvider(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, p)
}

func (h *Handler) DeleteProvider(c *gin.Context) {
	if err := h.Svc.Admin.DeleteProvider(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	respondMessage(c, "Provider deleted successfully")
}

func (h *Handler) ResetProviderPassword(c *gin.Context) {
	var req struct {
		NewPassword string `json:"newPassword"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Svc.Admin.ResetProviderPassword(c.Request.Context(), c.Param("id"), req.NewPassword); err != nil {
		h.handleError(c, err)
		return
	}
	respondMessage(c, "Provider password reset successfully")
}

func (h *Handler) ListPatients(c *gin.Context) {
	patients, err := h.Svc.Admin.ListPatients(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondList(c, patients)
}
