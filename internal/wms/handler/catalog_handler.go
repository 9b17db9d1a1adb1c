package handler

import (
	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/service"
	"github.com/gin-gonic/gin"
)

// CatalogHandler serves products, categories and the stock transaction
// view.
type CatalogHandler struct {
	catalogSvc *service.CatalogService
}

func NewCatalogHandler(catalogSvc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogSvc: catalogSvc}
}

// CreateProduct POST /products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	product, err := h.catalogSvc.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Created(c, product)
}

// ListProducts GET /products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"category_id": c.Query("category_id"),
		"search":      c.Query("q"),
	}

	products, total, err := h.catalogSvc.ListProducts(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, ListResponse{
		Items: products,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages(total, pageSize),
		},
	})
}

// GetProduct GET /products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.catalogSvc.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, product)
}

// UpdateProduct PUT /products/:id
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	product, err := h.catalogSvc.UpdateProduct(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, product)
}

// DeleteProduct DELETE /products/:id
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	if err := h.catalogSvc.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, nil)
}

// UploadProductImage POST /products/:id/image
func (h *CatalogHandler) UploadProductImage(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		BadRequest(c, "Image file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		BadRequest(c, "Failed to open uploaded file")
		return
	}
	defer file.Close()

	product, err := h.catalogSvc.UploadProductImage(c.Request.Context(),
		c.Param("id"), fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file, fileHeader.Size)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, product)
}

// CreateCategory POST /categories
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	category, err := h.catalogSvc.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Created(c, category)
}

// ListCategories GET /categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalogSvc.ListCategories(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, categories)
}

// UpdateCategory PUT /categories/:id
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	category, err := h.catalogSvc.UpdateCategory(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, category)
}

// DeleteCategory DELETE /categories/:id
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	if err := h.catalogSvc.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, nil)
}

// ListStockTransactions GET /stock-transactions
func (h *CatalogHandler) ListStockTransactions(c *gin.Context) {
	page, pageSize := GetPagination(c)

	txns, total, err := h.catalogSvc.ListStockTransactions(c.Request.Context(), page, pageSize, c.Query("product_id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, ListResponse{
		Items: txns,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages(total, pageSize),
		},
	})
}
