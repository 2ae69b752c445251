package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	cataloghandler "medipos-system/internal/services/catalog/handler"
)

type CatalogService interface {
	SearchProducts(ctx context.Context, req *cataloghandler.SearchProductsRequest) (*cataloghandler.SearchProductsResponse, error)
	GetProduct(ctx context.Context, req *cataloghandler.GetProductRequest) (*cataloghandler.GetProductResponse, error)
}

type CatalogHTTPHandler struct {
	catalog CatalogService
	logger  *zap.Logger
}

func NewCatalogHTTPHandler(catalog CatalogService, logger *zap.Logger) *CatalogHTTPHandler {
	return &CatalogHTTPHandler{catalog: catalog, logger: logger}
}

// Search is the direct catalog search endpoint. Debouncing happens in the
// session flow, this one answers whatever query it is given.
func (h *CatalogHTTPHandler) Search(c *gin.Context) {
	req := &cataloghandler.SearchProductsRequest{
		Query: c.Query("q"),
	}

	if raw := c.Query("location_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "Invalid location_id format",
			})
			return
		}
		req.LocationID = &id
	}

	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			req.Limit = n
		}
	}

	resp, err := h.catalog.SearchProducts(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("catalog search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Search failed",
		})
		return
	}
	if !resp.Success {
		c.JSON(http.StatusPreconditionFailed, gin.H{
			"success": false,
			"message": resp.Message,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"products": resp.Products,
	})
}

func (h *CatalogHTTPHandler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid product id format",
		})
		return
	}

	resp, err := h.catalog.GetProduct(c.Request.Context(), &cataloghandler.GetProductRequest{ID: id})
	if err != nil {
		h.logger.Error("product lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Product lookup failed",
		})
		return
	}
	if !resp.Success {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": resp.Message,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"product": resp.Product,
	})
}
