// Package open hands media assets to an external viewer.
package open

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/Zuo-Peng/skype-export-viewer/internal/media"
)

// OpenMedia launches a viewer on the primary file of a media id, falling
// back to the thumbnail when only that was exported.
func OpenMedia(store *media.Store, id string) error {
	asset, err := store.Resolve(id)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", id, err)
	}
	if asset == nil {
		return fmt.Errorf("media not found: %s", id)
	}

	name := asset.Primary
	if name == "" {
		name = asset.Thumbnail
	}
	filePath := store.Path(name)
	if filePath == "" {
		return fmt.Errorf("no file on disk for media %s", id)
	}
	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("file not found: %s", filePath)
	}

	return openInViewer(viewerCommand(os.Getenv("VIEWER"), runtime.GOOS), filePath)
}

// viewerCommand picks $VIEWER, else the platform's default opener.
func viewerCommand(viewer, goos string) []string {
	if fields := strings.Fields(viewer); len(fields) > 0 {
		return fields
	}
	switch goos {
	case "darwin":
		return []string{"open"}
	case "windows":
		return []string{"cmd", "/c", "start", ""}
	default:
		return []string{"xdg-open"}
	}
}

func openInViewer(argv []string, filePath string) error {
	args := append(argv[1:len(argv):len(argv)], filePath)
	cmd := exec.Command(argv[0], args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
