package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCreatesBaseDir(t *testing.T) {
	t.Parallel()

	base := filepath.Join(t.TempDir(), "nested", "archive")
	s, err := New(Config{BaseDir: base})
	require.NoError(t, err)
	require.NotNil(t, s)

	info, err := os.Stat(base)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestNewRejectsEmptyBaseDir(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.ErrorContains(t, err, "base directory is required")
}

func TestNewRejectsFileAsBaseDir(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := New(Config{BaseDir: path})
	require.ErrorContains(t, err, "not a directory")
}

func TestPutObject(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	s, err := New(Config{BaseDir: base})
	require.NoError(t, err)

	uri, err := s.PutObject(context.Background(), "raw/user/abc.json", "application/json", strings.NewReader(`[{"id":1}]`))
	require.NoError(t, err)
	require.Equal(t, "file://"+filepath.Join(base, "raw/user/abc.json"), uri)

	data, err := os.ReadFile(filepath.Join(base, "raw", "user", "abc.json"))
	require.NoError(t, err)
	require.Equal(t, `[{"id":1}]`, string(data))
}

func TestPutObjectRejectsTraversal(t *testing.T) {
	t.Parallel()

	s, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	_, err = s.PutObject(context.Background(), "../escape.json", "application/json", strings.NewReader("x"))
	require.ErrorContains(t, err, "path traversal")
}

func TestPutObjectRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	s, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	_, err = s.PutObject(context.Background(), "  ", "application/json", strings.NewReader("x"))
	require.ErrorContains(t, err, "path is required")
}
