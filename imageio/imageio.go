// Package imageio loads image files into host-side attribute data.
//
// Decoded pixels come back as render.Vec4 RGBA values in [0, 1], row-major
// from the top-left corner, ready to hand to a texture-shaped managed
// buffer via MarkHostUpdated.
package imageio

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	// PNG, JPEG, and GIF decoders from the standard library.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	// BMP and TIFF decoders.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/gogpu/vizbuf/render"
)

// Image is a decoded image as flat RGBA attribute data.
type Image struct {
	Width  int
	Height int
	// Pixels holds Width*Height RGBA values, row-major from the top-left.
	Pixels []render.Vec4
}

// Decode reads an encoded image from r. The format is detected from the
// stream; PNG, JPEG, GIF, BMP, and TIFF are supported.
func Decode(r io.Reader) (*Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("imageio: decode: %w", err)
	}
	out := fromImage(img)
	if len(out.Pixels) == 0 {
		return nil, fmt.Errorf("imageio: %s image has no pixels", format)
	}
	return out, nil
}

// Load reads and decodes the image file at path.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imageio: %w", err)
	}
	defer f.Close()

	out, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("imageio: load %s: %w", filepath.Base(path), err)
	}
	return out, nil
}

// SupportedExtension reports whether the file extension names a format
// Load can decode.
func SupportedExtension(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff":
		return true
	}
	return false
}

// fromImage converts any image.Image to flat [0, 1] RGBA values.
func fromImage(img image.Image) *Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pixels := make([]render.Vec4, 0, w*h)

	const scale = 1.0 / 65535.0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			pixels = append(pixels, render.Vec4{
				float32(r) * scale,
				float32(g) * scale,
				float32(b) * scale,
				float32(a) * scale,
			})
		}
	}

	return &Image{Width: w, Height: h, Pixels: pixels}
}
