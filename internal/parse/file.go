package parse

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/Zuo-Peng/skype-export-viewer/internal/sanitize"
)

type FileCategory int

const (
	CategoryFile FileCategory = iota
	CategoryImage
	CategoryVideo
)

func (c FileCategory) Icon() string {
	switch c {
	case CategoryImage:
		return "🖼"
	case CategoryVideo:
		return "🎬"
	default:
		return "📎"
	}
}

var imageExts = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "bmp": true, "webp": true, "heic": true,
}

var videoExts = map[string]bool{
	"mp4": true, "mov": true, "avi": true, "mkv": true, "webm": true, "m4v": true, "3gp": true,
}

var (
	fileNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<OriginalName\b[^>]*\bv="([^"]*)"`),
		regexp.MustCompile(`(?is)\boriginalName="([^"]*)"`),
	}
	fileSizePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<FileSize\b[^>]*\bv="(\d+)"`),
		regexp.MustCompile(`(?is)\bfileSize="(\d+)"`),
	}
	mediaTypePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<URIObject\b[^>]*\btype="([^"]*)"`),
		regexp.MustCompile(`(?is)<meta\b[^>]*\btype="([^"]*)"`),
	}
)

// FileInfo describes an attachment as far as the markup reveals it.
type FileInfo struct {
	Name     string
	Size     int64 // -1 when unknown
	Category FileCategory
}

func firstMatch(patterns []*regexp.Regexp, s string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(s); m != nil && strings.TrimSpace(m[1]) != "" {
			return strings.TrimSpace(sanitize.Unescape(m[1]))
		}
	}
	return ""
}

// ParseFileInfo pulls the filename, size and media category out of
// URIObject-style markup.
func ParseFileInfo(raw string) FileInfo {
	info := FileInfo{Name: firstMatch(fileNamePatterns, raw), Size: -1}
	if info.Name == "" {
		info.Name = "Unknown file"
	}
	if s := firstMatch(fileSizePatterns, raw); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			info.Size = n
		}
	}
	info.Category = categoryOf(firstMatch(mediaTypePatterns, raw), info.Name)
	return info
}

func categoryOf(declared, name string) FileCategory {
	d := strings.ToLower(declared)
	switch {
	case strings.Contains(d, "picture"), strings.Contains(d, "photo"), strings.Contains(d, "image"):
		return CategoryImage
	case strings.Contains(d, "video"):
		return CategoryVideo
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	switch {
	case imageExts[ext]:
		return CategoryImage
	case videoExts[ext]:
		return CategoryVideo
	}
	return CategoryFile
}

// FormatSize renders a byte count with one decimal, in MB from 1 MiB up and
// in KB below.
func FormatSize(n int64) string {
	const kb, mb = 1024, 1024 * 1024
	if n >= mb {
		return fmt.Sprintf("%.1f MB", float64(n)/mb)
	}
	return fmt.Sprintf("%.1f KB", float64(n)/kb)
}

// Label is the plain-text fallback shown when the media itself is not
// available.
func (f FileInfo) Label() string {
	label := f.Category.Icon() + " " + f.Name
	if f.Size >= 0 {
		label += " (" + FormatSize(f.Size) + ")"
	}
	return label
}
