package handlers

import (
	"go.uber.org/zap"

	"github.com/harentsoaR/healthcare-portal/internal/services"
)

// Handler holds what the route handlers need. Handlers are methods of it,
// split by area across the files of this package.
type Handler struct {
	Svc *services.Services
	Log *zap.Logger
}

func NewHandler(svc *services.Services, log *zap.Logger) *Handler {
	return &Handler{Svc: svc, Log: log}
}
