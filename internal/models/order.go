package models

// Order is the orders table.
type Order struct {
	Base
	ProductID uint  `gorm:"index;not null"`
	UserID    *uint `gorm:"index"`
	Quantity  int   `gorm:"not null;default:1"`
}
