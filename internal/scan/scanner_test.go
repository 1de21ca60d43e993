package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
}

func TestScanExports(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "old", "chat.jsonl"))
	touch(t, filepath.Join(root, "export", "messages.json"))
	touch(t, filepath.Join(root, "export", "endpoints.json"))
	touch(t, filepath.Join(root, "export", "media", "0-abc.json"))

	files, err := ScanExports(root)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(root, "export", "messages.json"), files[0].Path)
	assert.Equal(t, "json", files[0].Format)
	assert.Equal(t, "jsonl", files[1].Format)
}

func TestLocateDirectory(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "messages.json"))
	require.NoError(t, os.Mkdir(filepath.Join(root, "media"), 0o755))

	layout, err := Locate(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "messages.json"), layout.MessagesFile)
	assert.Equal(t, filepath.Join(root, "media"), layout.MediaDir)
}

func TestLocateFileWithoutMedia(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "dump.jsonl")
	touch(t, file)

	layout, err := Locate(file)
	require.NoError(t, err)
	assert.Equal(t, file, layout.MessagesFile)
	assert.Equal(t, "", layout.MediaDir)
}

func TestLocateErrors(t *testing.T) {
	root := t.TempDir()
	_, err := Locate(root)
	assert.Error(t, err, "empty directory")

	_, err = Locate(filepath.Join(root, "nope"))
	assert.Error(t, err)
}
