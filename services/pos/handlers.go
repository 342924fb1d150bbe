package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CreateProductRequest representa a requisição para criar um produto
type CreateProductRequest struct {
	Name  string  `json:"name" binding:"required"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

// UpdateProductRequest representa a requisição para atualizar um produto
type UpdateProductRequest struct {
	Name  string  `json:"name" binding:"required"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

// SaleItemRequest representa um item da requisição de venda
type SaleItemRequest struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// RecordSaleRequest representa a requisição para registrar uma venda
type RecordSaleRequest struct {
	Items []SaleItemRequest `json:"items"`
}

// Handler contém os handlers HTTP do serviço
type Handler struct {
	products *ProductUseCase
	sales    *SaleUseCase
	log      *logrus.Logger
}

// NewHandler cria uma nova instância de Handler
func NewHandler(products *ProductUseCase, sales *SaleUseCase, log *logrus.Logger) *Handler {
	return &Handler{
		products: products,
		sales:    sales,
		log:      log,
	}
}

// RegisterRoutes registra as rotas do serviço no router
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.HealthCheck)

	r.GET("/products", h.ListProducts)
	r.POST("/products", h.CreateProduct)
	r.GET("/products/:id", h.GetProduct)
	r.PUT("/products/:id", h.UpdateProduct)
	r.DELETE("/products/:id", h.DeleteProduct)

	r.POST("/sales", h.RecordSale)
	r.GET("/sales", h.ListSales)
}

// ListProducts lista os produtos do catálogo
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.products.ListProducts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct busca um produto pelo ID
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.products.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// CreateProduct cria um novo produto
func (h *Handler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.products.CreateProduct(c.Request.Context(), req.Name, req.Price, req.Stock)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct substitui os campos de um produto existente
func (h *Handler) UpdateProduct(c *gin.Context) {
	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.products.UpdateProduct(c.Request.Context(), c.Param("id"), req.Name, req.Price, req.Stock)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct remove um produto do catálogo
func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.products.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

// RecordSale registra uma venda decrementando o estoque atomicamente
func (h *Handler) RecordSale(c *gin.Context) {
	var req RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items := make([]SaleLineItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = SaleLineItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	sale, err := h.sales.RecordSale(c.Request.Context(), items)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Sale recorded",
		"sale_id": sale.ID,
	})
}

// ListSales lista as vendas registradas
func (h *Handler) ListSales(c *gin.Context) {
	sales, err := h.sales.ListSales(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

// HealthCheck verifica a saúde do serviço
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pos-service",
	})
}

// respondError traduz a taxonomia de erros do serviço em respostas HTTP
func (h *Handler) respondError(c *gin.Context, err error) {
	var invalidReq *InvalidRequestError
	var notFound *ProductNotFoundError
	var noStock *InsufficientStockError

	switch {
	case errors.As(err, &invalidReq):
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidReq.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":      notFound.Error(),
			"product_id": notFound.ProductID,
		})
	case errors.As(err, &noStock):
		c.JSON(http.StatusConflict, gin.H{
			"error":      noStock.Error(),
			"product_id": noStock.ProductID,
			"requested":  noStock.Requested,
			"available":  noStock.Available,
		})
	case errors.Is(err, ErrTxConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "retryable": true})
	case errors.Is(err, ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "retryable": true})
	default:
		h.log.Errorf("❌ [HTTP] unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
