package upload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeName(t *testing.T) {
	tests := []struct {
		original string
		want     string
	}{
		{"claim form.PDF", "claim_form_deadbeef.pdf"},
		{"../../etc/passwd.txt", "passwd_deadbeef.txt"},
		{`C:\Users\me\photo.JPG`, "photo_deadbeef.jpg"},
		{strings.Repeat("é", 100) + ".png", strings.Repeat("é", 80) + "_deadbeef.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeName(tt.original, "deadbeef"), tt.original)
	}
}

func TestAllowed(t *testing.T) {
	assert.Len(t, AllowedExtensions, 13)
	for _, name := range []string{"a.pdf", "b.DOCX", "c.webp", "d.md"} {
		assert.True(t, Allowed(name), name)
	}
	for _, name := range []string{"a.exe", "noext", "c.hl7"} {
		assert.False(t, Allowed(name), name)
	}
}

func newStore(t *testing.T, maxBytes int64) *Store {
	s := NewStore(t.TempDir(), maxBytes)
	s.newID = func() string { return "0a1b2c3d" }
	return s
}

func TestStore_Save(t *testing.T) {
	s := newStore(t, 1<<20)

	f, err := s.Save("My Report.TXT", "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, &File{
		Filename:    "My Report.TXT",
		SavedPath:   filepath.Join(s.Dir(), "My_Report_0a1b2c3d.txt"),
		SizeBytes:   5,
		ContentType: "text/plain",
	}, f)

	data, err := os.ReadFile(f.SavedPath)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestStore_Rejects(t *testing.T) {
	s := newStore(t, 4)

	_, err := s.Save("run.exe", "", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrExtensionNotAllowed)
	assert.Contains(t, err.Error(), "unsupported file type '.exe'")

	_, err = s.Save("big.txt", "", strings.NewReader("12345"))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected uploads leave no files")
}

func TestStore_DefaultContentType(t *testing.T) {
	f, err := newStore(t, 10).Save("a.csv", "", strings.NewReader("a,b"))
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", f.ContentType)
}

func TestStore_Resolve(t *testing.T) {
	s := newStore(t, 10)
	dir := s.Dir()

	inside := []struct {
		path string
		want string
	}{
		{filepath.Join(dir, "orders_0a1b2c3d.csv"), filepath.Join(dir, "orders_0a1b2c3d.csv")},
		{"orders_0a1b2c3d.csv", filepath.Join(dir, "orders_0a1b2c3d.csv")},
		{filepath.Join(dir, "nested", "..", "a.png"), filepath.Join(dir, "a.png")},
	}
	for _, tt := range inside {
		got, err := s.Resolve(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got)
	}

	outside := []string{
		"/etc/hosts.txt",
		filepath.Join(dir, "..", "secret.txt"),
		"../secret.txt",
		dir,
		dir + "-other/a.txt",
	}
	for _, path := range outside {
		_, err := s.Resolve(path)
		assert.ErrorIs(t, err, ErrOutsideUploads, path)
	}
}
