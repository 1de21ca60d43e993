package media

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore() *Store {
	return NewStore(fstest.MapFS{
		"0-img.1.jpeg": {Data: []byte("jpeg bytes")},
		"0-img.2.jpeg": {Data: []byte("thumb")},
		"0-img.json":   {Data: []byte(`{"filename": "holiday.jpg"}`)},
		"0-vid.1.mp4":  {Data: []byte("video")},
		"0-doc.json":   {Data: []byte(`{"filename": "report.pdf"}`)},
		"0-bad.json":   {Data: []byte(`{not json`)},
		"0-bad.1.png":  {Data: []byte("png")},
	})
}

func TestResolveJpgJpegFallback(t *testing.T) {
	a, err := testStore().Resolve("0-img")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "0-img.1.jpeg", a.Primary)
	assert.Equal(t, "jpeg", a.Ext)
	assert.Equal(t, "0-img.2.jpeg", a.Thumbnail)
	assert.Equal(t, "holiday.jpg", a.Filename())
}

func TestResolveWithoutSidecar(t *testing.T) {
	a, err := testStore().Resolve("0-vid")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "0-vid.1.mp4", a.Primary)
	assert.Equal(t, "mp4", a.Ext)
	assert.Nil(t, a.Meta)
	assert.Equal(t, "", a.Thumbnail)
	assert.Equal(t, "0-vid.1.mp4", a.Filename())
}

func TestResolveMetadataOnly(t *testing.T) {
	a, err := testStore().Resolve("0-doc")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "", a.Primary)
	assert.Equal(t, "report.pdf", a.Filename())
}

func TestResolveMalformedSidecar(t *testing.T) {
	a, err := testStore().Resolve("0-bad")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Nil(t, a.Meta)
	assert.Equal(t, "0-bad.1.png", a.Primary)
}

func TestResolveMissingIsNotAnError(t *testing.T) {
	s := testStore()
	for _, id := range []string{"0-none", "", "../etc/passwd", "a/b"} {
		a, err := s.Resolve(id)
		assert.NoError(t, err, id)
		assert.Nil(t, a, id)
	}

	var nilStore *Store
	a, err := nilStore.Resolve("0-img")
	assert.NoError(t, err)
	assert.Nil(t, a)
}

func TestReadBytes(t *testing.T) {
	s := testStore()
	data, err := s.ReadPrimary("0-img")
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))

	thumb, err := s.ReadThumbnail("0-img")
	require.NoError(t, err)
	assert.Equal(t, "thumb", string(thumb))

	thumb, err = s.ReadThumbnail("0-vid")
	require.NoError(t, err)
	assert.Nil(t, thumb)
}

func TestPath(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, filepath.Join(dir, "x.1.png"), OpenDir(dir).Path("x.1.png"))
	assert.Equal(t, "", testStore().Path("x.1.png"))
}
