package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	billinghandler "medipos-system/internal/services/billing/handler"
)

type BillingService interface {
	GetBill(ctx context.Context, req *billinghandler.GetBillRequest) (*billinghandler.GetBillResponse, error)
	ListBills(ctx context.Context, req *billinghandler.ListBillsRequest) (*billinghandler.ListBillsResponse, error)
}

type BillingHTTPHandler struct {
	billing BillingService
	logger  *zap.Logger
}

func NewBillingHTTPHandler(billing BillingService, logger *zap.Logger) *BillingHTTPHandler {
	return &BillingHTTPHandler{billing: billing, logger: logger}
}

func (h *BillingHTTPHandler) GetBill(c *gin.Context) {
	resp, err := h.billing.GetBill(c.Request.Context(), &billinghandler.GetBillRequest{
		BillNumber: c.Param("number"),
	})
	if err != nil {
		h.logger.Error("bill lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Bill lookup failed",
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
		"bill":    resp.Bill,
	})
}

func (h *BillingHTTPHandler) ListBills(c *gin.Context) {
	req := &billinghandler.ListBillsRequest{
		PageToken: c.Query("page_token"),
	}
	if raw := c.Query("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			req.PageSize = n
		}
	}

	resp, err := h.billing.ListBills(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("bill listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Bill listing failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"bills":           resp.Bills,
		"next_page_token": resp.NextPageToken,
		"total_count":     resp.TotalCount,
	})
}
