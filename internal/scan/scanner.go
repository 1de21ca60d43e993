// Package scan finds Skype exports on disk.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type FileInfo struct {
	Path   string
	Format string // "json" or "jsonl"
	Mtime  int64
	Size   int64
}

// Layout is an unpacked export: the messages file and its media folder.
type Layout struct {
	MessagesFile string
	MediaDir     string // "" when the export has no media folder
}

// Locate accepts either a messages file or an unpacked export directory.
func Locate(path string) (Layout, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Layout{}, err
	}

	var layout Layout
	if info.IsDir() {
		files, err := ScanExports(path)
		if err != nil {
			return Layout{}, err
		}
		if len(files) == 0 {
			return Layout{}, fmt.Errorf("no messages.json or .jsonl export under %s", path)
		}
		layout.MessagesFile = files[0].Path
	} else {
		layout.MessagesFile = path
	}

	media := filepath.Join(filepath.Dir(layout.MessagesFile), "media")
	if st, err := os.Stat(media); err == nil && st.IsDir() {
		layout.MediaDir = media
	}
	return layout, nil
}

// ScanExports walks root for export files. messages.json sorts first, then
// the shallowest, most recently modified candidates.
func ScanExports(root string) ([]FileInfo, error) {
	var files []FileInfo
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable dirs
		}
		if info.IsDir() {
			if path != root && filepath.Base(path) == "media" {
				return filepath.SkipDir
			}
			return nil
		}
		format := formatOf(path)
		if format == "" {
			return nil
		}
		files = append(files, FileInfo{
			Path:   path,
			Format: format,
			Mtime:  info.ModTime().Unix(),
			Size:   info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if ma, mb := isMessages(a.Path), isMessages(b.Path); ma != mb {
			return ma
		}
		if da, db := depth(a.Path), depth(b.Path); da != db {
			return da < db
		}
		return a.Mtime > b.Mtime
	})
	return files, nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl":
		return "jsonl"
	case ".json":
		if isMessages(path) {
			return "json"
		}
	}
	return ""
}

func isMessages(path string) bool {
	return strings.EqualFold(filepath.Base(path), "messages.json")
}

func depth(path string) int {
	return strings.Count(filepath.ToSlash(path), "/")
}
