package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"medipos-system/internal/cart"
	"medipos-system/internal/database/models"
)

const (
	CATALOG_PRODUCT_CACHE_PREFIX = "catalog:product:"
	CATALOG_SEARCH_CACHE_PREFIX  = "catalog:search:"
	CACHE_TTL_SHORT              = 5 * time.Minute
	CACHE_TTL_MEDIUM             = 30 * time.Minute

	MIN_QUERY_LENGTH     = 2
	DEFAULT_SEARCH_LIMIT = 20
)

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// -- Handler --

type CatalogHandler struct {
	db     *gorm.DB
	redis  *redis.Client
	logger *zap.Logger

	// requireLocation refuses unscoped searches in multi-location deployments.
	requireLocation bool
}

func NewCatalogHandler(db *gorm.DB, redisClient *redis.Client, logger *zap.Logger, requireLocation bool) *CatalogHandler {
	return &CatalogHandler{
		db:              db,
		redis:           redisClient,
		logger:          logger,
		requireLocation: requireLocation,
	}
}

type SearchProductsRequest struct {
	Query      string
	LocationID *int64
	Limit      int
}

type SearchProductsResponse struct {
	Success  bool
	Message  *string
	Products []cart.Product
}

// SearchProducts answers the search-as-you-type box. Queries below the
// minimum length return empty without touching the database, matching what
// the counter UI expects for a one-character query.
func (h *CatalogHandler) SearchProducts(ctx context.Context, req *SearchProductsRequest) (*SearchProductsResponse, error) {
	query := strings.TrimSpace(req.Query)
	if len([]rune(query)) < MIN_QUERY_LENGTH {
		return &SearchProductsResponse{
			Success:  true,
			Products: []cart.Product{},
		}, nil
	}

	if h.requireLocation && req.LocationID == nil {
		return &SearchProductsResponse{
			Success: false,
			Message: strPtr("A location must be selected before searching"),
		}, nil
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DEFAULT_SEARCH_LIMIT
	}

	cacheKey := searchCacheKey(query, req.LocationID, limit)
	if cached, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
		var products []cart.Product
		if err := json.Unmarshal([]byte(cached), &products); err == nil {
			return &SearchProductsResponse{Success: true, Products: products}, nil
		}
	}

	dbQuery := h.db.WithContext(ctx).Model(&models.Product{}).
		Where("is_active = ?", true)

	if req.LocationID != nil {
		dbQuery = dbQuery.Where("location_id = ?", *req.LocationID)
	}

	term := "%" + query + "%"
	dbQuery = dbQuery.Where(
		"product_name ILIKE ? OR drug ILIKE ? OR batch ILIKE ?",
		term, term, term,
	)

	var rows []models.Product
	if err := dbQuery.Order("product_name ASC").Limit(limit).Find(&rows).Error; err != nil {
		return &SearchProductsResponse{
			Success: false,
			Message: strPtr("database error"),
		}, err
	}

	products := make([]cart.Product, len(rows))
	for i, row := range rows {
		products[i] = productToRecord(row)
	}

	if payload, err := json.Marshal(products); err == nil {
		if err := h.redis.Set(ctx, cacheKey, payload, CACHE_TTL_SHORT).Err(); err != nil {
			h.logger.Warn("failed to cache search results", zap.Error(err))
		}
	}

	return &SearchProductsResponse{Success: true, Products: products}, nil
}

type GetProductRequest struct {
	ID int64
}

type GetProductResponse struct {
	Success bool
	Message *string
	Product *cart.Product
}

func (h *CatalogHandler) GetProduct(ctx context.Context, req *GetProductRequest) (*GetProductResponse, error) {
	if req.ID == 0 {
		return &GetProductResponse{
			Success: false,
			Message: strPtr("product_id must be provided"),
		}, nil
	}

	cacheKey := fmt.Sprintf("%s%d", CATALOG_PRODUCT_CACHE_PREFIX, req.ID)
	if cached, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
		var product cart.Product
		if err := json.Unmarshal([]byte(cached), &product); err == nil {
			return &GetProductResponse{Success: true, Product: &product}, nil
		}
	}

	var row models.Product
	if err := h.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", req.ID, true).
		First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &GetProductResponse{
				Success: false,
				Message: strPtr("Product not found or inactive"),
			}, nil
		}
		return &GetProductResponse{
			Success: false,
			Message: strPtr("database error"),
		}, err
	}

	product := productToRecord(row)
	if payload, err := json.Marshal(product); err == nil {
		if err := h.redis.Set(ctx, cacheKey, payload, CACHE_TTL_MEDIUM).Err(); err != nil {
			h.logger.Warn("failed to cache product", zap.Error(err))
		}
	}

	return &GetProductResponse{Success: true, Product: &product}, nil
}

// InvalidateCatalogCaches drops per-product entries and every cached search
// page. Called after a bill deducts stock.
func (h *CatalogHandler) InvalidateCatalogCaches(ctx context.Context, productIDs ...int64) {
	for _, id := range productIDs {
		cacheKey := fmt.Sprintf("%s%d", CATALOG_PRODUCT_CACHE_PREFIX, id)
		_ = h.redis.Del(ctx, cacheKey)
	}

	keys, err := h.redis.Keys(ctx, CATALOG_SEARCH_CACHE_PREFIX+"*").Result()
	if err != nil {
		h.logger.Warn("failed to list search cache keys", zap.Error(err))
		return
	}
	if len(keys) > 0 {
		_ = h.redis.Del(ctx, keys...)
	}
}

// Search satisfies the billing session's catalog collaborator.
func (h *CatalogHandler) Search(ctx context.Context, query string, locationID *int64) ([]cart.Product, error) {
	resp, err := h.SearchProducts(ctx, &SearchProductsRequest{Query: query, LocationID: locationID})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, errors.New(messageOr(resp.Message, "search failed"))
	}
	return resp.Products, nil
}

// GetRecord resolves a product id for add-to-cart.
func (h *CatalogHandler) GetRecord(ctx context.Context, id int64) (*cart.Product, error) {
	resp, err := h.GetProduct(ctx, &GetProductRequest{ID: id})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, errors.New(messageOr(resp.Message, "product lookup failed"))
	}
	return resp.Product, nil
}

func productToRecord(p models.Product) cart.Product {
	exp := ""
	if p.Exp != nil {
		exp = p.Exp.UTC().Format(time.RFC3339)
	}
	return cart.Product{
		ProductID:    p.ID,
		HSNCode:      p.HSNCode,
		Manufacturer: p.Manufacturer,
		ProductName:  p.ProductName,
		PackOf:       p.PackOf,
		MRP:          p.MRP,
		UnitPrice:    p.UnitPrice,
		Size:         p.Size,
		Drug:         p.Drug,
		Batch:        p.Batch,
		Exp:          exp,
		QtyInStock:   p.QtyInStock,
	}
}

func searchCacheKey(query string, locationID *int64, limit int) string {
	scope := "all"
	if locationID != nil {
		scope = fmt.Sprintf("%d", *locationID)
	}
	return fmt.Sprintf("%s%s:%s:%d", CATALOG_SEARCH_CACHE_PREFIX, scope, strings.ToLower(query), limit)
}

func messageOr(msg *string, fallback string) string {
	if msg != nil && *msg != "" {
		return *msg
	}
	return fallback
}
