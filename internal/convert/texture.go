package convert

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"depthflow/internal/utils"

	"github.com/mauserzjeh/dxt"
	"github.com/pierrec/lz4/v4"
)

// Texture formats stored in the TEXV0005 header.
const (
	TexFormatRGBA8888 = 0
	TexFormatDXT5     = 4
	TexFormatDXT3     = 6
	TexFormatDXT1     = 7
	TexFormatRG88     = 8
	TexFormatR8       = 9
)

var ErrNotTex = errors.New("not a TEXV0005 texture")

type texReader struct {
	r   *bufio.Reader
	err error
}

func (t *texReader) uint32() uint32 {
	if t.err != nil {
		return 0
	}
	var v uint32
	t.err = binary.Read(t.r, binary.LittleEndian, &v)
	return v
}

// magic reads an 8 byte tag followed by its NUL terminator.
func (t *texReader) magic() string {
	if t.err != nil {
		return ""
	}
	b := make([]byte, 9)
	if _, t.err = io.ReadFull(t.r, b); t.err != nil {
		return ""
	}
	return string(bytes.Trim(b, "\x00"))
}

func (t *texReader) bytes(n uint32) []byte {
	if t.err != nil {
		return nil
	}
	b := make([]byte, n)
	_, t.err = io.ReadFull(t.r, b)
	return b
}

// DecodeTexFile decodes the first mipmap of a .tex file.
func DecodeTexFile(path string) (image.Image, error) {
	utils.Debug("Decoding texture: %s", path)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := DecodeTex(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// DecodeTex decodes the first mipmap of the first image in a TEXV0005
// container. The result is cropped to the logical image size.
func DecodeTex(r io.Reader) (image.Image, error) {
	t := &texReader{r: bufio.NewReader(r)}

	if m := t.magic(); m != "TEXV0005" {
		if t.err != nil {
			return nil, t.err
		}
		return nil, fmt.Errorf("%w: magic %q", ErrNotTex, m)
	}
	t.magic() // TEXI0001

	format := t.uint32()
	t.uint32() // flags
	t.uint32() // texture width
	t.uint32() // texture height
	imgW := t.uint32()
	imgH := t.uint32()
	t.uint32()

	container := t.magic()
	imageCount := t.uint32()
	if container == "TEXB0003" {
		t.uint32() // freeimage format
	}
	if t.err != nil {
		return nil, fmt.Errorf("read header: %w", t.err)
	}
	utils.Debug("    Format: %d, Container: %s, Target Size: %dx%d", format, container, imgW, imgH)

	if imageCount == 0 {
		return nil, fmt.Errorf("no image found in texture")
	}

	mipmapCount := t.uint32()
	if t.err == nil && mipmapCount == 0 {
		return nil, fmt.Errorf("no mipmap found in texture")
	}
	mW := t.uint32()
	mH := t.uint32()
	var isLZ4 bool
	var decompressedSize uint32
	if container != "TEXB0001" {
		isLZ4 = t.uint32() == 1
		decompressedSize = t.uint32()
	}
	dataSize := t.uint32()
	if t.err == nil && (mW == 0 || mH == 0 || mW > 1<<14 || mH > 1<<14) {
		return nil, fmt.Errorf("bad mipmap size %dx%d", mW, mH)
	}
	data := t.bytes(dataSize)
	if t.err != nil {
		return nil, fmt.Errorf("read mipmap: %w", t.err)
	}

	if isLZ4 {
		utils.Debug("    Decompressing LZ4: %d -> %d", dataSize, decompressedSize)
		decoded := make([]byte, decompressedSize)
		n, err := lz4.UncompressBlock(data, decoded)
		if err != nil {
			return nil, fmt.Errorf("lz4: %w", err)
		}
		data = decoded[:n]
	}

	pix, err := decodePixels(format, data, mW, mH)
	if err != nil {
		return nil, err
	}

	rgba := &image.RGBA{
		Pix:    pix,
		Stride: int(mW * 4),
		Rect:   image.Rect(0, 0, int(mW), int(mH)),
	}
	if imgW == 0 || imgH == 0 || imgW > mW || imgH > mH {
		return rgba, nil
	}
	return rgba.SubImage(image.Rect(0, 0, int(imgW), int(imgH))), nil
}

func decodePixels(format uint32, data []byte, w, h uint32) ([]byte, error) {
	blocks := ((w + 3) / 4) * ((h + 3) / 4)
	size := uint32(len(data))
	rgbaSize := w * h * 4

	switch {
	case format == TexFormatRG88 && size == rgbaSize/2:
		utils.Debug("    Type: RG88")
		pix := make([]byte, rgbaSize)
		for i := uint32(0); i < w*h; i++ {
			lum := data[i*2]
			pix[i*4], pix[i*4+1], pix[i*4+2] = lum, lum, lum
			pix[i*4+3] = data[i*2+1]
		}
		return pix, nil

	case format == TexFormatR8 && size == rgbaSize/4:
		utils.Debug("    Type: R8")
		pix := make([]byte, rgbaSize)
		for i := uint32(0); i < w*h; i++ {
			v := data[i]
			pix[i*4], pix[i*4+1], pix[i*4+2], pix[i*4+3] = v, v, v, 255
		}
		return pix, nil

	case size == rgbaSize:
		utils.Debug("    Type: RGBA")
		return data, nil

	case format == TexFormatDXT5 || format == TexFormatDXT3 || size == blocks*16:
		utils.Debug("    Type: DXT5")
		return dxt.DecodeDXT5(data, uint(w), uint(h))

	case format == TexFormatDXT1 || size == blocks*8:
		utils.Debug("    Type: DXT1")
		return dxt.DecodeDXT1(data, uint(w), uint(h))
	}
	return nil, fmt.Errorf("unsupported format %d with size %d", format, size)
}
