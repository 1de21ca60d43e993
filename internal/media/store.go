// Package media resolves media ids to the files of an export's media folder.
//
// An id owns up to three files:
//
//	{id}.1.{ext}  primary asset
//	{id}.2.jpeg   thumbnail
//	{id}.json     sidecar metadata, at least {"filename": "..."}
package media

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

type Meta struct {
	Filename string `json:"filename"`
}

// Asset names the files found for one media id. Empty names mean the file
// is not present.
type Asset struct {
	ID        string
	Primary   string
	Ext       string
	Thumbnail string
	Meta      *Meta
}

// Filename is the original filename when known, otherwise the primary file.
func (a *Asset) Filename() string {
	if a.Meta != nil && a.Meta.Filename != "" {
		return a.Meta.Filename
	}
	return a.Primary
}

type Store struct {
	fsys fs.FS
	dir  string
}

func NewStore(fsys fs.FS) *Store {
	return &Store{fsys: fsys}
}

// OpenDir returns a store over a media directory on disk.
func OpenDir(dir string) *Store {
	return &Store{fsys: os.DirFS(dir), dir: dir}
}

// Path returns the on-disk path of a file in the store, or "" when the store
// is not directory-backed.
func (s *Store) Path(name string) string {
	if s.dir == "" || name == "" {
		return ""
	}
	return filepath.Join(s.dir, filepath.FromSlash(name))
}

// Resolve looks up the files for id. A missing id is not an error: it
// returns nil.
func (s *Store) Resolve(id string) (*Asset, error) {
	if s == nil || s.fsys == nil || !validID(id) {
		return nil, nil
	}

	a := &Asset{ID: id}
	meta, err := s.Metadata(id)
	if err != nil {
		return nil, err
	}
	a.Meta = meta

	a.Primary, a.Ext, err = s.primary(id, meta)
	if err != nil {
		return nil, err
	}
	thumb := id + ".2.jpeg"
	if ok, err := s.exists(thumb); err != nil {
		return nil, err
	} else if ok {
		a.Thumbnail = thumb
	}

	if a.Primary == "" && a.Thumbnail == "" && a.Meta == nil {
		return nil, nil
	}
	return a, nil
}

// Metadata reads {id}.json. Missing or unreadable JSON yields nil.
func (s *Store) Metadata(id string) (*Meta, error) {
	data, err := fs.ReadFile(s.fsys, id+".json")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, nil
	}
	return &m, nil
}

// ReadPrimary returns the bytes of the primary asset, nil when absent.
func (s *Store) ReadPrimary(id string) ([]byte, error) {
	a, err := s.Resolve(id)
	if err != nil || a == nil || a.Primary == "" {
		return nil, err
	}
	return fs.ReadFile(s.fsys, a.Primary)
}

// ReadThumbnail returns the bytes of the thumbnail, nil when absent.
func (s *Store) ReadThumbnail(id string) ([]byte, error) {
	if !validID(id) {
		return nil, nil
	}
	data, err := fs.ReadFile(s.fsys, id+".2.jpeg")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

func (s *Store) primary(id string, meta *Meta) (name, ext string, err error) {
	var exts []string
	if meta != nil {
		if e := strings.ToLower(strings.TrimPrefix(path.Ext(meta.Filename), ".")); e != "" {
			exts = append(exts, e)
			switch e {
			case "jpg":
				exts = append(exts, "jpeg")
			case "jpeg":
				exts = append(exts, "jpg")
			}
		}
	}
	for _, e := range exts {
		candidate := id + ".1." + e
		ok, err := s.exists(candidate)
		if err != nil {
			return "", "", err
		}
		if ok {
			return candidate, e, nil
		}
	}

	matches, err := fs.Glob(s.fsys, escapeGlob(id)+".1.*")
	if err != nil {
		return "", "", err
	}
	if len(matches) == 0 {
		return "", "", nil
	}
	sort.Strings(matches)
	name = matches[0]
	return name, strings.TrimPrefix(name, id+".1."), nil
}

func (s *Store) exists(name string) (bool, error) {
	_, err := fs.Stat(s.fsys, name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && fs.ValidPath(id+".json")
}

func escapeGlob(s string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`, `\`, `\\`)
	return r.Replace(s)
}
