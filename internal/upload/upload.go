// Package upload stores user uploads under collision-free names.
package upload

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hrygo/agenthub/ai/agents"
)

var (
	// ErrExtensionNotAllowed is returned for file types no agent can read.
	ErrExtensionNotAllowed = errors.New("file type not allowed")
	// ErrTooLarge is returned when the upload exceeds the size limit.
	ErrTooLarge = errors.New("file too large")
	// ErrOutsideUploads is returned for file paths that do not point into the upload directory.
	ErrOutsideUploads = errors.New("file path is outside the upload directory")
)

const maxStemRunes = 80

// AllowedExtensions lists every accepted extension, sorted.
var AllowedExtensions = func() []string {
	exts := append(append([]string(nil), agents.DocumentExtensions...), agents.ImageExtensions...)
	sort.Strings(exts)
	return exts
}()

// Allowed reports whether name has an accepted extension.
func Allowed(name string) bool {
	ext := agents.Ext(name)
	for _, e := range AllowedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// SafeName keeps at most 80 runes of the stem with spaces replaced, then
// appends "_" plus id and the lower-cased extension.
func SafeName(original, id string) string {
	base := filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	ext := filepath.Ext(base)
	stem := []rune(strings.TrimSuffix(base, ext))
	if len(stem) > maxStemRunes {
		stem = stem[:maxStemRunes]
	}
	return fmt.Sprintf("%s_%s%s", strings.ReplaceAll(string(stem), " ", "_"), id, strings.ToLower(ext))
}

// File describes a stored upload.
type File struct {
	Filename    string `json:"filename"`
	SavedPath   string `json:"saved_path"`
	SizeBytes   int64  `json:"size_bytes"`
	ContentType string `json:"content_type"`
}

// Store writes uploads into one directory.
type Store struct {
	dir      string
	maxBytes int64
	newID    func() string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string, maxBytes int64) *Store {
	return &Store{
		dir:      dir,
		maxBytes: maxBytes,
		newID:    func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:8] },
	}
}

// Dir returns the upload directory.
func (s *Store) Dir() string { return s.dir }

// Resolve returns the absolute form of path when it names a file inside the
// upload directory. Relative paths are taken relative to that directory.
func (s *Store) Resolve(path string) (string, error) {
	root, err := filepath.Abs(s.dir)
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve upload folder")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(ErrOutsideUploads, "%s", path)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Wrapf(ErrOutsideUploads, "%s", path)
	}
	return abs, nil
}

// Save validates name and copies r to disk. Nothing is left behind on error.
func (s *Store) Save(name, contentType string, r io.Reader) (*File, error) {
	if name == "" {
		name = "file.bin"
	}
	if !Allowed(name) {
		return nil, errors.Wrapf(ErrExtensionNotAllowed, "unsupported file type '%s'. Allowed: %s",
			agents.Ext(name), strings.Join(AllowedExtensions, ", "))
	}
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return nil, errors.Wrap(err, "failed to create upload folder")
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	n, err := io.Copy(tmp, io.LimitReader(r, s.maxBytes+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to write upload")
	}
	if n > s.maxBytes {
		return nil, errors.Wrapf(ErrTooLarge, "max allowed: %d MB", s.maxBytes>>20)
	}

	dest := filepath.Join(s.dir, SafeName(name, s.newID()))
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return nil, errors.Wrap(err, "failed to store upload")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	slog.Info("upload: saved", "filename", name, "path", dest, "bytes", n)
	return &File{Filename: name, SavedPath: dest, SizeBytes: n, ContentType: contentType}, nil
}
