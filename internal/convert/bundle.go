package convert

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"depthflow/internal/utils"

	_ "github.com/ftrvxmtrx/tga"
	"golang.org/x/image/draw"
)

type Layer int

const (
	LayerImage Layer = iota
	LayerDepth
	LayerImageBG
	LayerDepthBG
	LayerSubjectMask
	LayerCount
)

var layerNames = [LayerCount]string{"image", "depth", "image_bg", "depth_bg", "subject_mask"}

func (l Layer) String() string {
	if l < 0 || l >= LayerCount {
		return "unknown"
	}
	return layerNames[l]
}

// sizeReference is the layer whose dimensions a layer is resampled to.
func (l Layer) sizeReference() Layer {
	switch l {
	case LayerDepth, LayerSubjectMask:
		return LayerImage
	case LayerDepthBG:
		return LayerImageBG
	}
	return l
}

type LayerStatus int

const (
	StatusLoaded LayerStatus = iota
	StatusMissing
	StatusUndecodable
	StatusNoSource
)

func (s LayerStatus) String() string {
	switch s {
	case StatusLoaded:
		return "loaded"
	case StatusMissing:
		return "missing"
	case StatusUndecodable:
		return "undecodable"
	case StatusNoSource:
		return "no-source"
	}
	return "unknown"
}

// Fallback colors for layers that could not be loaded.
var (
	FallbackNoSource    = color.RGBA{255, 0, 255, 255}
	FallbackMissing     = color.RGBA{255, 0, 0, 255}
	FallbackUndecodable = color.RGBA{255, 255, 0, 255}
)

// Bundle holds the five layers consumed by the depth renderer.
type Bundle struct {
	Root   string
	Layers [LayerCount]image.Image
	Status [LayerCount]LayerStatus
}

func (b *Bundle) Layer(l Layer) image.Image { return b.Layers[l] }

// Size reports the dimensions of the color layer.
func (b *Bundle) Size() (int, int) {
	img := b.Layers[LayerImage]
	if img == nil {
		return 1, 1
	}
	r := img.Bounds()
	return r.Dx(), r.Dy()
}

// Complete reports whether every layer was decoded from a real file.
func (b *Bundle) Complete() bool {
	for _, s := range b.Status {
		if s != StatusLoaded {
			return false
		}
	}
	return true
}

func solid(c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, c)
	return img
}

// FallbackBundle returns a bundle of 1x1 magenta layers, used when no asset
// source is configured at all.
func FallbackBundle() *Bundle {
	b := &Bundle{}
	for l := range LayerCount {
		b.Layers[l] = solid(FallbackNoSource)
		b.Status[l] = StatusNoSource
	}
	return b
}

// LoadBundle loads the layers from a directory or from a .pkg archive. A .pkg
// is extracted into cacheDir first (or a per-package user cache directory
// when cacheDir is empty). Missing or undecodable layers are replaced by
// solid-color fallbacks; only an unusable path is an error.
func LoadBundle(path, cacheDir string) (*Bundle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("asset bundle: %w", err)
	}

	root := path
	if !info.IsDir() {
		if !strings.EqualFold(filepath.Ext(path), ".pkg") {
			return nil, fmt.Errorf("asset bundle: %s is neither a directory nor a .pkg", path)
		}
		if cacheDir == "" {
			cacheDir = utils.CacheDir(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		}
		utils.Info("Unpacking %s into %s", path, cacheDir)
		if err := ExtractPkg(path, cacheDir); err != nil {
			return nil, fmt.Errorf("asset bundle: %w", err)
		}
		root = cacheDir
	}

	b := &Bundle{Root: root}

	// Limit concurrency to avoid RAM spikes on large layers.
	const maxConcurrency = 3
	sem := make(chan struct{}, maxConcurrency)
	var wg sync.WaitGroup
	for l := range LayerCount {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			b.Layers[l], b.Status[l] = loadLayer(root, l)
		}()
	}
	wg.Wait()

	for l := range LayerCount {
		ref := l.sizeReference()
		if ref == l || b.Status[l] != StatusLoaded || b.Status[ref] != StatusLoaded {
			continue
		}
		b.Layers[l] = Resample(b.Layers[l], b.Layers[ref].Bounds().Size())
	}

	w, h := b.Size()
	utils.Info("Asset bundle loaded from %s (%dx%d, complete: %v)", root, w, h, b.Complete())
	return b, nil
}

func loadLayer(root string, l Layer) (image.Image, LayerStatus) {
	path := utils.FindLayerFile(root, l.String())
	if path == "" {
		utils.Warn("Layer %s not found in %s, using fallback", l, root)
		return solid(FallbackMissing), StatusMissing
	}
	img, err := DecodeImageFile(path)
	if err != nil {
		utils.Warn("Layer %s could not be decoded: %v", l, err)
		return solid(FallbackUndecodable), StatusUndecodable
	}
	utils.Debug("Layer %s loaded from %s", l, path)
	return img, StatusLoaded
}

// DecodeImageFile decodes a .tex texture or any registered image format
// (PNG, JPEG, TGA).
func DecodeImageFile(path string) (image.Image, error) {
	if strings.EqualFold(filepath.Ext(path), ".tex") {
		return DecodeTexFile(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Resample scales img to size with bilinear filtering. Images already at the
// requested size are returned unchanged.
func Resample(img image.Image, size image.Point) image.Image {
	if img.Bounds().Size() == size || size.X <= 0 || size.Y <= 0 {
		return img
	}
	dst := image.NewRGBA(image.Rectangle{Max: size})
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// ToRGBA returns img as a tightly packed RGBA image anchored at the origin.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == rgba.Rect.Dx()*4 {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
