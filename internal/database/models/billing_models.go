package models

import "time"

type BillDocument struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	BillNumber string `gorm:"type:varchar(64);uniqueIndex;not null"`
	LocationID *int64

	DoctorName    *string `gorm:"type:varchar(128)"`
	PatientID     *int64
	PatientName   *string `gorm:"type:varchar(128)"`
	PatientMobile *string `gorm:"type:varchar(16)"`

	TotalItems  int32  `gorm:"not null"`
	TotalAmount string `gorm:"type:varchar(32);not null"`
	BilledAt    time.Time
	CreatedAt   time.Time

	BillItems []BillItem `gorm:"foreignKey:BillID"`
	Location  *Location  `gorm:"foreignKey:LocationID"`
}

type BillItem struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	BillID      int64  `gorm:"index;not null"`
	ProductID   int64  `gorm:"not null"`
	ProductName string `gorm:"type:varchar(128);not null"`
	Drug        string `gorm:"type:varchar(128)"`
	Quantity    int32  `gorm:"not null"`
	MRP         string `gorm:"type:varchar(32);not null"`
	SalePrice   string `gorm:"type:varchar(32);not null"`
	Batch       string `gorm:"type:varchar(32)"`
	ExpiryDate  string `gorm:"type:varchar(16)"`
	LineTotal   string `gorm:"type:varchar(32);not null"`
	CreatedAt   time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

type Patient struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"type:varchar(128);index;not null"`
	Age       int32
	Gender    string `gorm:"type:varchar(16)"`
	Mobile    string `gorm:"type:varchar(16);index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Doctor struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	DoctorName string `gorm:"type:varchar(128);not null"`
	Specialty  string `gorm:"type:varchar(64)"`
	IsActive   bool   `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
