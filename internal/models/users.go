package models

import (
	"crypto/rand"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// User is the users table.
type User struct {
	ID           uint    `gorm:"primaryKey"`
	Email        string  `gorm:"size:100;not null;uniqueIndex:uq_users_email"`
	PasswordHash string  `gorm:"column:password;type:text;not null"`
	AccessKey    string  `gorm:"size:100;not null"`
	IsVerified   bool    `gorm:"not null;default:false"`
	FirstName    string  `gorm:"size:50;not null"`
	LastName     string  `gorm:"size:50;not null"`
	Address      *string `gorm:"size:100"`
}

// FullName is used in greetings and emails.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// HashPassword turns a plain password into a bcrypt hash.
func HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(hash), err
}

// CheckPassword reports whether pw matches hash.
func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// NewAccessKey returns the email confirmation key: 50 random bytes,
// base64 encoded, with '/' dropped so the key fits in a URL path segment.
func NewAccessKey() (string, error) {
	buf := make([]byte, 50)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ReplaceAll(base64.StdEncoding.EncodeToString(buf), "/", ""), nil
}
