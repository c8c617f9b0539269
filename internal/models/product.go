package models

import "github.com/shopspring/decimal"

// DefaultImageURL is served for products created without a picture.
const DefaultImageURL = "/pictures/default.png"

// Product is the products table.
type Product struct {
	Base
	Name        string          `gorm:"size:100;not null;index"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Sales       int             `gorm:"not null;default:0"`
	Description string          `gorm:"type:text"`
	ImageURL    string          `gorm:"size:100;not null;default:'/pictures/default.png'"` // e.g. "/pictures/<uuid>_cake.png"
}
