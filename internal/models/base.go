package models

import (
	"strconv"
	"time"

	"gorm.io/gorm"
)

// Base holds the id and timestamps of products, reviews and orders.
type Base struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate stamps rows in UTC so postgres and sqlite read back the same instant.
func (b *Base) BeforeCreate(*gorm.DB) error {
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = now
	}
	return nil
}

// Fragment is the "#<id>" anchor used to point at a row inside a listing.
func (b Base) Fragment() string {
	return "#" + strconv.FormatUint(uint64(b.ID), 10)
}
