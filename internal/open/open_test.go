package open

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/skype-export-viewer/internal/media"
)

func TestViewerCommand(t *testing.T) {
	assert.Equal(t, []string{"feh", "-F"}, viewerCommand("feh -F", "linux"))
	assert.Equal(t, []string{"xdg-open"}, viewerCommand("", "linux"))
	assert.Equal(t, []string{"open"}, viewerCommand("  ", "darwin"))
	assert.Equal(t, []string{"cmd", "/c", "start", ""}, viewerCommand("", "windows"))
}

func TestOpenMediaWithViewer(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0-img.1.png"), []byte("png"), 0o644))

	t.Setenv("VIEWER", "true")
	assert.NoError(t, OpenMedia(media.OpenDir(dir), "0-img"))
}

func TestOpenMediaMissing(t *testing.T) {
	dir := t.TempDir()
	err := OpenMedia(media.OpenDir(dir), "0-none")
	assert.ErrorContains(t, err, "media not found")
}
