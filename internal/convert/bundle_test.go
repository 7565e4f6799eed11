package convert

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// tgaBytes builds an uncompressed 32-bit top-left origin TGA.
func tgaBytes(w, h int, c color.RGBA) []byte {
	hdr := []byte{0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		byte(w), byte(w >> 8), byte(h), byte(h >> 8), 32, 0x28}
	buf := bytes.NewBuffer(hdr)
	for range w * h {
		buf.Write([]byte{c.B, c.G, c.R, c.A})
	}
	return buf.Bytes()
}

func writeFiles(t *testing.T, dir string, files map[string][]byte) {
	t.Helper()
	for name, data := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, data, 0o644))
	}
}

func buildPkg(t *testing.T, files []struct {
	name string
	data []byte
}) []byte {
	t.Helper()
	var buf bytes.Buffer
	str := func(s string) {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(len(s))))
		buf.WriteString(s)
	}
	le := func(v uint32) { require.NoError(t, binary.Write(&buf, binary.LittleEndian, v)) }

	str("PKGV0019")
	le(uint32(len(files)))
	var off uint32
	for _, f := range files {
		str(f.name)
		le(off)
		le(uint32(len(f.data)))
		off += uint32(len(f.data))
	}
	for _, f := range files {
		buf.Write(f.data)
	}
	return buf.Bytes()
}

func TestLoadBundle_DirectoryWithFallbacks(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFiles(t, dir, map[string][]byte{
		"image.png":    pngBytes(t, 8, 4, color.RGBA{10, 20, 30, 255}),
		"depth.png":    pngBytes(t, 2, 1, color.RGBA{128, 128, 128, 255}),
		"image_bg.tga": tgaBytes(6, 3, color.RGBA{1, 2, 3, 255}),
		"depth_bg.png": []byte("definitely not a png"),
	})

	b, err := LoadBundle(dir, "")
	require.NoError(t, err)
	assert.Equal(t, dir, b.Root)

	assert.Equal(t, StatusLoaded, b.Status[LayerImage])
	assert.Equal(t, StatusLoaded, b.Status[LayerDepth])
	assert.Equal(t, StatusLoaded, b.Status[LayerImageBG])
	assert.Equal(t, StatusUndecodable, b.Status[LayerDepthBG])
	assert.Equal(t, StatusMissing, b.Status[LayerSubjectMask])
	assert.False(t, b.Complete())

	w, h := b.Size()
	assert.Equal(t, 8, w)
	assert.Equal(t, 4, h)
	assert.Equal(t, image.Pt(8, 4), b.Layer(LayerDepth).Bounds().Size(), "depth resampled to color size")
	assert.Equal(t, image.Pt(6, 3), b.Layer(LayerImageBG).Bounds().Size())

	assert.Equal(t, FallbackUndecodable, color.RGBAModel.Convert(b.Layer(LayerDepthBG).At(0, 0)))
	assert.Equal(t, FallbackMissing, color.RGBAModel.Convert(b.Layer(LayerSubjectMask).At(0, 0)))
	r, g, bl, _ := b.Layer(LayerImageBG).At(1, 1).RGBA()
	assert.Equal(t, []uint32{1, 2, 3}, []uint32{r >> 8, g >> 8, bl >> 8})
}

func TestLoadBundle_Package(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	pkg := filepath.Join(dir, "scene.pkg")
	layers := []struct {
		name string
		data []byte
	}{
		{"materials/image.png", pngBytes(t, 4, 4, color.RGBA{255, 255, 255, 255})},
		{"materials/depth.png", pngBytes(t, 4, 4, color.RGBA{0, 0, 0, 255})},
		{"image_bg.png", pngBytes(t, 4, 4, color.RGBA{1, 1, 1, 255})},
		{"depth_bg.png", pngBytes(t, 2, 2, color.RGBA{2, 2, 2, 255})},
		{"subject_mask.png", pngBytes(t, 1, 1, color.RGBA{255, 255, 255, 255})},
	}
	require.NoError(t, os.WriteFile(pkg, buildPkg(t, layers), 0o644))

	cache := filepath.Join(dir, "cache")
	b, err := LoadBundle(pkg, cache)
	require.NoError(t, err)
	assert.Equal(t, cache, b.Root)
	assert.True(t, b.Complete(), "statuses: %v", b.Status)
	assert.Equal(t, image.Pt(4, 4), b.Layer(LayerSubjectMask).Bounds().Size())
	assert.Equal(t, image.Pt(4, 4), b.Layer(LayerDepthBG).Bounds().Size())
	assert.FileExists(t, filepath.Join(cache, "materials", "depth.png"))
}

func TestLoadBundle_BadPaths(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := LoadBundle(filepath.Join(dir, "missing"), "")
	assert.ErrorIs(t, err, os.ErrNotExist)

	plain := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(plain, []byte("x"), 0o644))
	_, err = LoadBundle(plain, "")
	assert.ErrorContains(t, err, "neither a directory nor a .pkg")
}

func TestExtractPkg_RejectsEscapingEntries(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	pkg := filepath.Join(dir, "evil.pkg")
	require.NoError(t, os.WriteFile(pkg, buildPkg(t, []struct {
		name string
		data []byte
	}{{"../escape.png", []byte("x")}}), 0o644))

	err := ExtractPkg(pkg, filepath.Join(dir, "out"))
	assert.ErrorContains(t, err, "escapes output directory")
	assert.NoFileExists(t, filepath.Join(dir, "escape.png"))
}

func TestFallbackBundle(t *testing.T) {
	t.Parallel()
	b := FallbackBundle()
	for l := range LayerCount {
		assert.Equal(t, StatusNoSource, b.Status[l], l.String())
		assert.Equal(t, FallbackNoSource, color.RGBAModel.Convert(b.Layer(l).At(0, 0)))
	}
	w, h := b.Size()
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}

func TestToRGBA(t *testing.T) {
	t.Parallel()
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	src.SetRGBA(2, 3, color.RGBA{9, 8, 7, 255})
	sub := src.SubImage(image.Rect(1, 1, 4, 4))

	out := ToRGBA(sub)
	assert.Equal(t, image.Rect(0, 0, 3, 3), out.Bounds())
	assert.Equal(t, 12, out.Stride)
	assert.Equal(t, color.RGBA{9, 8, 7, 255}, out.RGBAAt(1, 2))
	assert.Same(t, src, ToRGBA(src))
}
