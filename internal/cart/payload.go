package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// PatientRef identifies the patient a bill is raised for.
type PatientRef struct {
	PatientID int64  `json:"patient_id"`
	Name      string `json:"name"`
	Mobile    string `json:"mobile,omitempty"`
}

// BillingContext is the optional location/doctor/patient selection attached
// to the payload at submission time. It is not part of cart identity.
type BillingContext struct {
	LocationID *int64      `json:"location_id,omitempty"`
	DoctorName *string     `json:"doctor_name,omitempty"`
	Patient    *PatientRef `json:"patient,omitempty"`
}

type SubmissionItem struct {
	ProductID   int64           `json:"ProductID"`
	ProductName string          `json:"ProductName"`
	Drug        string          `json:"Drug"`
	Quantity    int             `json:"Quantity"`
	MRP         decimal.Decimal `json:"MRP"`
	SalePrice   decimal.Decimal `json:"SalePrice"`
	Batch       string          `json:"Batch"`
	ExpiryDate  string          `json:"ExpiryDate"`
}

// BillSubmission is the finalized payload handed to the billing collaborator.
type BillSubmission struct {
	Items       []SubmissionItem `json:"items"`
	TotalItems  int              `json:"totalItems"`
	TotalAmount decimal.Decimal  `json:"totalAmount"`
	BilledAt    string           `json:"billedAt"`
	LocationID  *int64           `json:"location_id,omitempty"`
	DoctorName  *string          `json:"doctor_name,omitempty"`
	Patient     *PatientRef      `json:"patient,omitempty"`
}

// BuildPayload maps the current lines to submission records and stamps the
// capture time. Pure read of cart state, no I/O happens here.
func (c *Cart) BuildPayload(bctx BillingContext) BillSubmission {
	items := make([]SubmissionItem, 0, len(c.lines))
	for _, line := range c.lines {
		items = append(items, SubmissionItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Drug:        line.Drug,
			Quantity:    line.Quantity,
			MRP:         line.MRP,
			SalePrice:   line.SalePrice,
			Batch:       line.Batch,
			ExpiryDate:  line.ExpiryDate,
		})
	}

	totals := c.Totals()
	return BillSubmission{
		Items:       items,
		TotalItems:  totals.TotalItems,
		TotalAmount: totals.TotalAmount,
		BilledAt:    time.Now().UTC().Format(time.RFC3339),
		LocationID:  bctx.LocationID,
		DoctorName:  bctx.DoctorName,
		Patient:     bctx.Patient,
	}
}
