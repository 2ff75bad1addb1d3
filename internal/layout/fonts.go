package layout

import (
	"fmt"
	"image"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	fontOnce   sync.Once
	parsedFont *opentype.Font
	fontErr    error
)

// defaultFont is parsed once and shared; faces are per render.
func defaultFont() (*opentype.Font, error) {
	fontOnce.Do(func() {
		parsedFont, fontErr = opentype.Parse(goregular.TTF)
	})
	return parsedFont, fontErr
}

// faceCache owns the faces of a single render. Not safe for concurrent use.
type faceCache struct {
	font  *opentype.Font
	faces map[int]font.Face
}

func newFaceCache() (*faceCache, error) {
	f, err := defaultFont()
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &faceCache{font: f, faces: make(map[int]font.Face)}, nil
}

func (c *faceCache) face(size int) (font.Face, error) {
	if f, ok := c.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(c.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("font face size %d: %w", size, err)
	}
	c.faces[size] = f
	return f, nil
}

func (c *faceCache) close() {
	for _, f := range c.faces {
		_ = f.Close()
	}
}

// inkBounds is the pixel box covered by word's glyphs, relative to the
// drawing origin (dot) on the baseline.
func inkBounds(face font.Face, word string) image.Rectangle {
	b, _ := font.BoundString(face, word)
	return image.Rect(b.Min.X.Floor(), b.Min.Y.Floor(), b.Max.X.Ceil(), b.Max.Y.Ceil())
}

// renderMask rasterizes word into an alpha mask exactly the size of ink.
func renderMask(face font.Face, word string, ink image.Rectangle) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, ink.Dx(), ink.Dy()))
	d := font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.P(-ink.Min.X, -ink.Min.Y),
	}
	d.DrawString(word)
	return mask
}

// rotate90 turns m a quarter turn counter-clockwise.
func rotate90(m *image.Alpha) *image.Alpha {
	w, h := m.Bounds().Dx(), m.Bounds().Dy()
	out := image.NewAlpha(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Pix[(w-1-x)*out.Stride+y] = m.Pix[y*m.Stride+x]
		}
	}
	return out
}
