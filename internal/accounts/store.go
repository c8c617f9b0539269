package accounts

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"gorm.io/gorm"

	models "bakery/internal/models"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrEmailTaken  = errors.New("account with this email already exists")
	ErrWrongKey    = errors.New("wrong key or id")
	ErrNotVerified = errors.New("email is not verified")
	ErrBadLogin    = errors.New("wrong email or password")
)

// Store manages users.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Registration is what a new user submits.
type Registration struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Address   string
}

// Register creates an unverified user with a fresh access key.
func (s *Store) Register(ctx context.Context, r Registration) (*models.User, error) {
	email := normalizeEmail(r.Email)
	taken, err := s.EmailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := models.HashPassword(r.Password)
	if err != nil {
		return nil, err
	}
	key, err := models.NewAccessKey()
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Email:        email,
		PasswordHash: hash,
		AccessKey:    key,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
	}
	if addr := strings.TrimSpace(r.Address); addr != "" {
		u.Address = &addr
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) EmailTaken(ctx context.Context, email string) (bool, error) {
	var cnt int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", normalizeEmail(email)).Count(&cnt).Error
	return cnt > 0, err
}

func (s *Store) ByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) ByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Confirm marks the user verified when key matches the emailed access key.
func (s *Store) Confirm(ctx context.Context, id uint, key string) (*models.User, error) {
	u, err := s.ByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrWrongKey
	}
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(u.AccessKey), []byte(key)) != 1 {
		return nil, ErrWrongKey
	}
	if u.IsVerified {
		return u, nil
	}
	if err := s.db.WithContext(ctx).Model(u).Update("is_verified", true).Error; err != nil {
		return nil, err
	}
	u.IsVerified = true
	return u, nil
}

// Authenticate checks credentials. Unknown emails and wrong passwords both
// return ErrBadLogin; a correct password on an unverified account returns
// ErrNotVerified.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.ByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrBadLogin
	}
	if err != nil {
		return nil, err
	}
	if !models.CheckPassword(u.PasswordHash, password) {
		return nil, ErrBadLogin
	}
	if !u.IsVerified {
		return nil, ErrNotVerified
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
