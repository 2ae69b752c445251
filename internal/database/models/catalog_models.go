package models

import "time"

type Product struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	HSNCode      string `gorm:"type:varchar(16)"`
	Manufacturer string `gorm:"column:mfr;type:varchar(128)"`
	ProductName  string `gorm:"type:varchar(128);index;not null"`
	PackOf       int32
	MRP          string `gorm:"type:varchar(32);not null"`
	UnitPrice    string `gorm:"type:varchar(32);not null"`
	Size         string `gorm:"type:varchar(32)"`
	Drug         string `gorm:"type:varchar(128);index"`
	Batch        string `gorm:"type:varchar(32);index"`
	Exp          *time.Time
	QtyInStock   int32 `gorm:"not null;default:0"`
	LocationID   *int64
	IsActive     bool `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Location *Location `gorm:"foreignKey:LocationID"`
}

type Location struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	LocationName string `gorm:"type:varchar(128);uniqueIndex;not null"`
	IsActive     bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
