package handlers

import (
	"github.com/gin-gonic/gin"

	"farmops/internal/domain/documents/order"
	"farmops/internal/domain/registers/stock"
	"farmops/internal/infrastructure/http/v1/dto"
)

// ProductHandler handles packaged product endpoints.
type ProductHandler struct {
	*BaseHandler
	stock  *stock.Service
	orders *order.Service
}

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, stockSvc *stock.Service, orders *order.Service) *ProductHandler {
	return &ProductHandler{BaseHandler: base, stock: stockSvc, orders: orders}
}

// Create handles POST /products.
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := req.ToProduct()
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.stock.Create(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromProduct(p))
}

// Get handles GET /products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	productID, ok := h.PathID(c)
	if !ok {
		return
	}

	p, err := h.stock.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProduct(p))
}

// Availability handles GET /products/:id/availability.
func (h *ProductHandler) Availability(c *gin.Context) {
	productID, ok := h.PathID(c)
	if !ok {
		return
	}

	a, err := h.orders.Availability(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromAvailability(a))
}

// Movements handles GET /products/:id/movements.
func (h *ProductHandler) Movements(c *gin.Context) {
	productID, ok := h.PathID(c)
	if !ok {
		return
	}
	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}

	res, err := h.stock.Movements(c.Request.Context(), productID, req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(res, dto.FromMovement))
}
