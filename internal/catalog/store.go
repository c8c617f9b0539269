package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	models "bakery/internal/models"
)

// ErrNotFound is returned when a product lookup matches nothing.
var ErrNotFound = errors.New("product not found")

// Store reads and writes products and their reviews and orders.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ListProducts returns every product in the requested order.
func (s *Store) ListProducts(ctx context.Context, sort ProductSort) ([]models.Product, error) {
	var items []models.Product
	if err := s.db.WithContext(ctx).Order(sort.OrderBy()).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ProductByName returns the first product with the given name.
func (s *Store) ProductByName(ctx context.Context, name string) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Where("name = ?", name).Order("id").First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// NameTaken reports whether another product (not exceptID) uses name.
func (s *Store) NameTaken(ctx context.Context, name string, exceptID uint) (bool, error) {
	var cnt int64
	err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("name = ? AND id <> ?", name, exceptID).Count(&cnt).Error
	return cnt > 0, err
}

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	return s.db.WithContext(ctx).Create(p).Error
}

// SaveProduct writes the editable columns of p. Sales are left alone so
// orders placed since p was loaded are kept.
func (s *Store) SaveProduct(ctx context.Context, p *models.Product) error {
	res := s.db.WithContext(ctx).Model(p).
		Select("name", "price", "description", "image_url", "updated_at").
		Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProduct removes the product together with its reviews and orders.
func (s *Store) DeleteProduct(ctx context.Context, p *models.Product) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", p.ID).Delete(&models.Review{}).Error; err != nil {
			return fmt.Errorf("delete reviews: %w", err)
		}
		if err := tx.Where("product_id = ?", p.ID).Delete(&models.Order{}).Error; err != nil {
			return fmt.Errorf("delete orders: %w", err)
		}
		res := tx.Delete(&models.Product{}, p.ID)
		if res.Error != nil {
			return fmt.Errorf("delete product: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListReviews returns the reviews of productID in the requested order.
func (s *Store) ListReviews(ctx context.Context, productID uint, sort ReviewSort) ([]models.Review, error) {
	var items []models.Review
	err := s.db.WithContext(ctx).Where("product_id = ?", productID).
		Order(sort.OrderBy()).Find(&items).Error
	return items, err
}

func (s *Store) CreateReview(ctx context.Context, r *models.Review) error {
	return s.db.WithContext(ctx).Create(r).Error
}

// ListOrders returns the orders of productID, oldest first.
func (s *Store) ListOrders(ctx context.Context, productID uint) ([]models.Order, error) {
	var items []models.Order
	err := s.db.WithContext(ctx).Where("product_id = ?", productID).Order("id").Find(&items).Error
	return items, err
}

// PlaceOrder stores o and adds its quantity to the product's sales.
func (s *Store) PlaceOrder(ctx context.Context, o *models.Order) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Product{}).Where("id = ?", o.ProductID).
			Update("sales", gorm.Expr("sales + ?", o.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
