package upload

import (
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// URLPrefix is where saved pictures are served from.
const URLPrefix = "/pictures/"

// MaxURLLen is the size of the image_url columns.
const MaxURLLen = 100

// ErrNotAllowed is returned for files that are not .png or .jpg.
var ErrNotAllowed = errors.New("extension is not allowed. Please upload only .png or .jpg files.")

// IsAllowed reports whether filename has an image extension we accept.
func IsAllowed(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".png" || ext == ".jpg"
}

// SecureFilename reduces name to a safe base name made of ASCII letters,
// digits, '.', '_' and '-'.
func SecureFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	return strings.TrimLeft(b.String(), "._")
}

// fitName shortens name to at most n bytes, keeping its extension.
// name must already be ASCII (see SecureFilename).
func fitName(name string, n int) string {
	if len(name) <= n {
		return name
	}
	ext := filepath.Ext(name)
	keep := n - len(ext)
	if keep < 0 {
		keep = 0
	}
	return name[:keep] + ext
}

// Store saves uploaded images into Dir.
type Store struct {
	Dir string
}

// Save writes the upload under a unique name and returns its public URL.
func (s Store) Save(c *gin.Context, file *multipart.FileHeader) (string, error) {
	if !IsAllowed(file.Filename) {
		return "", ErrNotAllowed
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload folder: %w", err)
	}
	prefix := uuid.NewString() + "_"
	name := prefix + fitName(SecureFilename(file.Filename), MaxURLLen-len(URLPrefix)-len(prefix))
	if err := c.SaveUploadedFile(file, filepath.Join(s.Dir, name)); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return URLPrefix + name, nil
}

// Remove deletes a file previously returned by Save. Unknown URLs are ignored.
func (s Store) Remove(url string) error {
	if !strings.HasPrefix(url, URLPrefix) {
		return nil
	}
	name := filepath.Base(strings.TrimPrefix(url, URLPrefix))
	err := os.Remove(filepath.Join(s.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
