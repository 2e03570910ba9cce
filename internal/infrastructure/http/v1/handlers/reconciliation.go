package handlers

import (
	"github.com/gin-gonic/gin"

	"farmops/internal/domain/reconciliation"
)

// ReconciliationHandler runs reconciliation sweeps on demand.
type ReconciliationHandler struct {
	*BaseHandler
	service *reconciliation.Service
}

// NewReconciliationHandler creates a new reconciliation handler.
func NewReconciliationHandler(base *BaseHandler, service *reconciliation.Service) *ReconciliationHandler {
	return &ReconciliationHandler{BaseHandler: base, service: service}
}

// Run handles POST /reconciliation/run.
func (h *ReconciliationHandler) Run(c *gin.Context) {
	report, err := h.service.Run(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}
