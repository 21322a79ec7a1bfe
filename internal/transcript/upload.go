// Package transcript accepts transcript uploads and pulls text and
// coursework hints out of them.
package transcript

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const allowedExt = ".pdf"

// UploadError is a rejected upload. Status is the HTTP status to report.
type UploadError struct {
	Status  int
	Message string
}

func (e *UploadError) Error() string { return e.Message }

// Store saves uploads into Dir under collision-free names.
type Store struct {
	Dir      string
	MaxBytes int64
	// LimitMB is the size shown to users in error messages.
	LimitMB int
}

// NewStore creates the upload directory if needed.
func NewStore(dir string, maxMB, limitMB int) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &Store{Dir: dir, MaxBytes: int64(maxMB) << 20, LimitMB: limitMB}, nil
}

// Upload is a saved transcript file. Remove must be called once the request
// is done with it.
type Upload struct {
	Path string
	Name string
}

// Remove deletes the stored file.
func (u *Upload) Remove() {
	if u == nil {
		return
	}
	if err := os.Remove(u.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Removing upload %s: %v", u.Path, err)
	}
}

// Allowed reports whether filename has the accepted extension.
func Allowed(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), allowedExt)
}

// Save validates filename and copies r into the store.
func (s *Store) Save(filename string, r io.Reader) (*Upload, error) {
	if !Allowed(filename) {
		return nil, &UploadError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("Only .pdf files are allowed (max %dMB).", s.LimitMB),
		}
	}

	safe := SafeName(filename)
	path := filepath.Join(s.Dir, strings.ReplaceAll(uuid.NewString(), "-", "")+"_"+safe)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("creating upload file: %w", err)
	}
	up := &Upload{Path: path, Name: safe}

	src := r
	if s.MaxBytes > 0 {
		src = io.LimitReader(r, s.MaxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		up.Remove()
		return nil, fmt.Errorf("saving upload: %w", err)
	}
	if s.MaxBytes > 0 && n > s.MaxBytes {
		up.Remove()
		return nil, &UploadError{
			Status:  http.StatusRequestEntityTooLarge,
			Message: fmt.Sprintf("File too large. Max %dMB allowed.", s.LimitMB),
		}
	}
	return up, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeName strips directories and unusual characters from a client filename.
func SafeName(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "_"), "._")
	if base == "" {
		return "transcript.pdf"
	}
	return base
}
