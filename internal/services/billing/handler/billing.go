package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"medipos-system/internal/cart"
	"medipos-system/internal/database/models"
)

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// -- Handler --

type BillingHandler struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewBillingHandler(db *gorm.DB, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{db: db, logger: logger}
}

type ProcessBillRequest struct {
	Bill cart.BillSubmission
}

type ProcessBillResponse struct {
	Success    bool
	Message    *string
	BillNumber string
	Bill       *models.BillDocument
}

// ProcessBill records the submission as a BillDocument plus its items and
// deducts stock, all in one transaction. Totals are recomputed here rather
// than trusted from the wire.
func (h *BillingHandler) ProcessBill(ctx context.Context, req *ProcessBillRequest) (*ProcessBillResponse, error) {
	bill := req.Bill

	if len(bill.Items) == 0 {
		return &ProcessBillResponse{
			Success: false,
			Message: strPtr("bill must have at least one item"),
		}, nil
	}
	for _, item := range bill.Items {
		if item.Quantity <= 0 {
			return &ProcessBillResponse{
				Success: false,
				Message: strPtr(fmt.Sprintf("invalid quantity for product '%s'", item.ProductName)),
			}, nil
		}
	}

	totalItems := 0
	totalAmount := decimal.Zero
	for _, item := range bill.Items {
		totalItems += item.Quantity
		totalAmount = totalAmount.Add(item.SalePrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	billedAt := time.Now()
	if t, err := time.Parse(time.RFC3339, bill.BilledAt); err == nil {
		billedAt = t
	}

	billNumber := newBillNumber()

	tx := h.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	doc := models.BillDocument{
		BillNumber:  billNumber,
		LocationID:  bill.LocationID,
		DoctorName:  bill.DoctorName,
		TotalItems:  int32(totalItems),
		TotalAmount: totalAmount.StringFixed(2),
		BilledAt:    billedAt,
		CreatedAt:   time.Now(),
	}
	if bill.Patient != nil {
		doc.PatientID = &bill.Patient.PatientID
		doc.PatientName = strPtr(bill.Patient.Name)
		doc.PatientMobile = strPtr(bill.Patient.Mobile)
	}

	if err := tx.Create(&doc).Error; err != nil {
		tx.Rollback()
		return &ProcessBillResponse{
			Success: false,
			Message: strPtr("Failed to create bill: " + err.Error()),
		}, err
	}

	for _, item := range bill.Items {
		result := tx.Model(&models.Product{}).
			Where("id = ? AND qty_in_stock >= ?", item.ProductID, item.Quantity).
			UpdateColumn("qty_in_stock", gorm.Expr("qty_in_stock - ?", item.Quantity))
		if result.Error != nil {
			tx.Rollback()
			return &ProcessBillResponse{
				Success: false,
				Message: strPtr("database error"),
			}, result.Error
		}
		if result.RowsAffected == 0 {
			tx.Rollback()
			return &ProcessBillResponse{
				Success: false,
				Message: strPtr(fmt.Sprintf("Insufficient stock for '%s' (batch %s)", item.ProductName, item.Batch)),
			}, nil
		}

		billItem := models.BillItem{
			BillID:      doc.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Drug:        item.Drug,
			Quantity:    int32(item.Quantity),
			MRP:         item.MRP.StringFixed(2),
			SalePrice:   item.SalePrice.StringFixed(2),
			Batch:       item.Batch,
			ExpiryDate:  item.ExpiryDate,
			LineTotal:   item.SalePrice.Mul(decimal.NewFromInt(int64(item.Quantity))).StringFixed(2),
			CreatedAt:   time.Now(),
		}
		if err := tx.Create(&billItem).Error; err != nil {
			tx.Rollback()
			return &ProcessBillResponse{
				Success: false,
				Message: strPtr("Failed to create bill item: " + err.Error()),
			}, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return &ProcessBillResponse{
			Success: false,
			Message: strPtr("Failed to commit bill: " + err.Error()),
		}, err
	}

	h.logger.Info("bill recorded",
		zap.String("bill_number", billNumber),
		zap.Int("items", totalItems),
		zap.String("amount", totalAmount.StringFixed(2)),
	)

	return &ProcessBillResponse{
		Success:    true,
		Message:    strPtr("Bill processed successfully"),
		BillNumber: billNumber,
		Bill:       &doc,
	}, nil
}

type GetBillRequest struct {
	BillNumber string
}

type GetBillResponse struct {
	Success bool
	Message *string
	Bill    *models.BillDocument
}

func (h *BillingHandler) GetBill(ctx context.Context, req *GetBillRequest) (*GetBillResponse, error) {
	if req.BillNumber == "" {
		return &GetBillResponse{
			Success: false,
			Message: strPtr("bill_number must be provided"),
		}, nil
	}

	var doc models.BillDocument
	if err := h.db.WithContext(ctx).
		Where("bill_number = ?", req.BillNumber).
		Preload("BillItems").
		First(&doc).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &GetBillResponse{
				Success: false,
				Message: strPtr("Bill not found"),
			}, nil
		}
		return &GetBillResponse{
			Success: false,
			Message: strPtr("database error"),
		}, err
	}

	return &GetBillResponse{Success: true, Bill: &doc}, nil
}

type ListBillsRequest struct {
	PageSize  int
	PageToken string
}

type ListBillsResponse struct {
	Success       bool
	Message       *string
	Bills         []models.BillDocument
	NextPageToken string
	TotalCount    int64
}

func (h *BillingHandler) ListBills(ctx context.Context, req *ListBillsRequest) (*ListBillsResponse, error) {
	var bills []models.BillDocument
	var total int64

	query := h.db.WithContext(ctx).Model(&models.BillDocument{})
	if err := query.Count(&total).Error; err != nil {
		return &ListBillsResponse{
			Success: false,
			Message: strPtr("database error"),
		}, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	pageNumber := 1
	if req.PageToken != "" {
		if n, err := strconv.Atoi(req.PageToken); err == nil && n > 0 {
			pageNumber = n
		}
	}

	offset := (pageNumber - 1) * pageSize
	if err := query.Order("billed_at DESC").
		Offset(offset).Limit(pageSize).
		Preload("BillItems").
		Find(&bills).Error; err != nil {
		return &ListBillsResponse{
			Success: false,
			Message: strPtr("database error"),
		}, err
	}

	nextPageToken := ""
	if int64(pageNumber*pageSize) < total {
		nextPageToken = strconv.Itoa(pageNumber + 1)
	}

	return &ListBillsResponse{
		Success:       true,
		Bills:         bills,
		NextPageToken: nextPageToken,
		TotalCount:    total,
	}, nil
}

// Submit satisfies the billing session's submission collaborator.
func (h *BillingHandler) Submit(ctx context.Context, bill cart.BillSubmission) (string, error) {
	resp, err := h.ProcessBill(ctx, &ProcessBillRequest{Bill: bill})
	if err != nil {
		return "", err
	}
	if !resp.Success {
		msg := "billing failed"
		if resp.Message != nil && *resp.Message != "" {
			msg = *resp.Message
		}
		return "", errors.New(msg)
	}
	return resp.BillNumber, nil
}

func newBillNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:10]
	return "BILL-" + suffix
}
