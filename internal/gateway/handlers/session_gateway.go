package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"medipos-system/internal/cart"
)

// ProductCatalog is what the session endpoints need from the catalog service.
type ProductCatalog interface {
	GetRecord(ctx context.Context, id int64) (*cart.Product, error)
	InvalidateCatalogCaches(ctx context.Context, productIDs ...int64)
}

type SessionHTTPHandler struct {
	store   *cart.Store
	catalog ProductCatalog
	logger  *zap.Logger
}

func NewSessionHTTPHandler(store *cart.Store, catalog ProductCatalog, logger *zap.Logger) *SessionHTTPHandler {
	return &SessionHTTPHandler{
		store:   store,
		catalog: catalog,
		logger:  logger,
	}
}

func (h *SessionHTTPHandler) session(c *gin.Context) (*cart.Session, bool) {
	session, ok := h.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Session not found",
		})
		return nil, false
	}
	return session, true
}

// sessionErrStatus maps engine errors onto HTTP statuses. Everything here is
// recoverable, nothing kills the session.
func sessionErrStatus(err error) int {
	switch {
	case errors.Is(err, cart.ErrSubmitInFlight),
		errors.Is(err, cart.ErrSessionBusy),
		errors.Is(err, cart.ErrNotConfirming),
		errors.Is(err, cart.ErrLocationLocked):
		return http.StatusConflict
	case errors.Is(err, cart.ErrEmptyCart):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func (h *SessionHTTPHandler) CreateSession(c *gin.Context) {
	session := h.store.Create()
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"session": session.Snapshot(),
	})
}

func (h *SessionHTTPHandler) GetSession(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": session.Snapshot(),
	})
}

func (h *SessionHTTPHandler) DeleteSession(c *gin.Context) {
	h.store.Delete(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type addItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
}

func (h *SessionHTTPHandler) AddItem(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "product_id is required",
		})
		return
	}

	product, err := h.catalog.GetRecord(c.Request.Context(), req.ProductID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	line, err := session.AddProduct(*product)
	if err != nil {
		c.JSON(sessionErrStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"line":    line,
		"session": session.Snapshot(),
	})
}

type updateItemRequest struct {
	Quantity   *int    `json:"quantity"`
	SalePrice  *string `json:"sale_price"`
	Batch      *string `json:"batch"`
	ExpiryDate *string `json:"expiry_date"`
}

func (h *SessionHTTPHandler) UpdateItem(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "invalid request body",
		})
		return
	}

	key := c.Param("key")
	var err error
	if req.Quantity != nil {
		err = session.UpdateQuantity(key, *req.Quantity)
	}
	if err == nil && req.SalePrice != nil {
		err = session.UpdateSalePrice(key, *req.SalePrice)
	}
	if err == nil && req.Batch != nil {
		err = session.UpdateBatch(key, *req.Batch)
	}
	if err == nil && req.ExpiryDate != nil {
		err = session.UpdateExpiry(key, *req.ExpiryDate)
	}
	if err != nil {
		c.JSON(sessionErrStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": session.Snapshot(),
	})
}

func (h *SessionHTTPHandler) RemoveItem(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	if err := session.RemoveLine(c.Param("key")); err != nil {
		c.JSON(sessionErrStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": session.Snapshot(),
	})
}

type setContextRequest struct {
	LocationID            *int64           `json:"location_id"`
	ConfirmLocationChange bool             `json:"confirm_location_change"`
	DoctorName            *string          `json:"doctor_name"`
	ClearDoctor           bool             `json:"clear_doctor"`
	Patient               *cart.PatientRef `json:"patient"`
	ClearPatient          bool             `json:"clear_patient"`
}

func (h *SessionHTTPHandler) SetContext(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req setContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "invalid request body",
		})
		return
	}

	var err error
	if req.LocationID != nil {
		err = session.SetLocation(*req.LocationID, req.ConfirmLocationChange)
	}
	if err == nil && (req.DoctorName != nil || req.ClearDoctor) {
		err = session.SetDoctor(req.DoctorName)
	}
	if err == nil && (req.Patient != nil || req.ClearPatient) {
		err = session.SetPatient(req.Patient)
	}
	if err != nil {
		c.JSON(sessionErrStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": session.Snapshot(),
	})
}

type updateQueryRequest struct {
	Query string `json:"query"`
}

// UpdateQuery takes one keystroke of the search box, the session debounces
// the actual catalog lookup.
func (h *SessionHTTPHandler) UpdateQuery(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req updateQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "invalid request body",
		})
		return
	}

	session.UpdateQuery(req.Query)
	c.JSON(http.StatusAccepted, gin.H{"success": true})
}

func (h *SessionHTTPHandler) GetResults(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	products, err := session.SearchResults()
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success":  false,
			"message":  err.Error(),
			"products": []cart.Product{},
		})
		return
	}
	if products == nil {
		products = []cart.Product{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"products": products,
	})
}

func (h *SessionHTTPHandler) Confirm(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	if err := session.Confirm(); err != nil {
		c.JSON(sessionErrStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": session.Snapshot(),
	})
}

func (h *SessionHTTPHandler) Cancel(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	if err := session.CancelConfirm(); err != nil {
		c.JSON(sessionErrStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": session.Snapshot(),
	})
}

// Submit forwards the confirmed bill to the billing service. On failure the
// cart survives untouched so the cashier can retry.
func (h *SessionHTTPHandler) Submit(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	receipt, err := session.Submit(c.Request.Context())
	if err != nil {
		h.logger.Warn("bill submission failed",
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
		c.JSON(sessionErrStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	productIDs := make([]int64, 0, len(receipt.Bill.Items))
	for _, item := range receipt.Bill.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	h.catalog.InvalidateCatalogCaches(c.Request.Context(), productIDs...)

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"bill_number": receipt.BillNumber,
		"bill":        receipt.Bill,
		"session":     session.Snapshot(),
	})
}
