package models

// Review is the reviews table. OwnerID is nil for anonymous reviews.
type Review struct {
	Base
	ProductID uint    `gorm:"index;not null"`
	OwnerID   *uint   `gorm:"index"`
	Rating    int     `gorm:"not null"`
	Text      string  `gorm:"type:text"`
	ImageURL  *string `gorm:"size:100"`
}
