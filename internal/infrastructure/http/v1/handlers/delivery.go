package handlers

import (
	"github.com/gin-gonic/gin"

	"farmops/internal/domain/documents/delivery"
	"farmops/internal/infrastructure/http/v1/dto"
)

// DeliveryHandler handles delivery endpoints.
type DeliveryHandler struct {
	*BaseHandler
	service *delivery.Service
}

// NewDeliveryHandler creates a new delivery handler.
func NewDeliveryHandler(base *BaseHandler, service *delivery.Service) *DeliveryHandler {
	return &DeliveryHandler{BaseHandler: base, service: service}
}

// List handles GET /deliveries.
func (h *DeliveryHandler) List(c *gin.Context) {
	var req dto.ListDeliveriesRequest
	if !h.BindQuery(c, &req) {
		return
	}
	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	res, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(res, dto.FromDelivery))
}

// Create handles POST /deliveries.
func (h *DeliveryHandler) Create(c *gin.Context) {
	var req dto.CreateDeliveryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	d, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromDelivery(d))
}

// Get handles GET /deliveries/:id.
func (h *DeliveryHandler) Get(c *gin.Context) {
	deliveryID, ok := h.PathID(c)
	if !ok {
		return
	}

	d, err := h.service.GetByID(c.Request.Context(), deliveryID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDelivery(d))
}

// Update handles PUT /deliveries/:id.
func (h *DeliveryHandler) Update(c *gin.Context) {
	deliveryID, ok := h.PathID(c)
	if !ok {
		return
	}
	var req dto.UpdateDeliveryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	d, err := h.service.Update(c.Request.Context(), deliveryID, in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDelivery(d))
}

// Delete handles DELETE /deliveries/:id.
func (h *DeliveryHandler) Delete(c *gin.Context) {
	deliveryID, ok := h.PathID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), deliveryID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
