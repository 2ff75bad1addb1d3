// Package export serializes rendered word clouds and their frequency
// tables.
package export

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/draw"
	"image/png"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/toricodesthings/wordcloud-service/internal/layout"
	"github.com/toricodesthings/wordcloud-service/internal/types"
)

// ImageFormat is an output encoding for a rendered canvas.
type ImageFormat string

const (
	PNG ImageFormat = "png"
	PDF ImageFormat = "pdf"
)

func ParseImageFormat(s string) (ImageFormat, error) {
	switch f := ImageFormat(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))); f {
	case "":
		return PNG, nil
	case PNG, PDF:
		return f, nil
	default:
		return "", types.InvalidConfig("export", "unsupported image format %q (expected png or pdf)", s)
	}
}

func (f ImageFormat) MIMEType() string {
	if f == PDF {
		return "application/pdf"
	}
	return "image/png"
}

func (f ImageFormat) Extension() string {
	if f == PDF {
		return ".pdf"
	}
	return ".png"
}

// pdfEpoch pins the document dates so equal canvases encode to equal bytes.
var pdfEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Encode serializes img. An empty format means PNG.
func Encode(img *layout.RenderedImage, format ImageFormat) ([]byte, error) {
	if err := checkCanvas(img); err != nil {
		return nil, err
	}
	switch format {
	case "", PNG:
		return encodePNG(img.Canvas)
	case PDF:
		return encodePDF(img)
	default:
		return nil, types.Encoding("encode", "unsupported image format "+string(format), nil)
	}
}

func checkCanvas(img *layout.RenderedImage) error {
	switch {
	case img == nil || img.Canvas == nil:
		return types.Encoding("encode", "no canvas to encode", nil)
	case img.Canvas.Bounds() != image.Rect(0, 0, img.Width, img.Height):
		return types.Encoding("encode", "canvas bounds do not match image size", nil)
	case len(img.Canvas.Pix) < img.Canvas.Stride*img.Height || img.Canvas.Stride < 4*img.Width:
		return types.Encoding("encode", "canvas pixel buffer is truncated", nil)
	}
	return nil
}

func encodePNG(canvas *image.RGBA) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(&buf, canvas); err != nil {
		return nil, types.Encoding("encode png", "png encoding failed", err)
	}
	return buf.Bytes(), nil
}

// encodePDF places the PNG rendering on a single page the size of the
// canvas, one point per pixel.
func encodePDF(img *layout.RenderedImage) ([]byte, error) {
	raster, err := encodePNG(img.Canvas)
	if err != nil {
		return nil, err
	}
	w, h := float64(img.Width), float64(img.Height)

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetCreationDate(pdfEpoch)
	pdf.SetCatalogSort(true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opt := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("wordcloud", opt, bytes.NewReader(raster))
	pdf.ImageOptions("wordcloud", 0, 0, w, h, false, opt, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, types.Encoding("encode pdf", "pdf encoding failed", err)
	}
	return buf.Bytes(), nil
}

// DecodePNG reads a PNG back into an RGBA canvas.
func DecodePNG(b []byte) (*image.RGBA, error) {
	src, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, types.Decode("decode png", "not a readable PNG", err)
	}
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba, nil
	}
	out := image.NewRGBA(src.Bounds())
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)
	return out, nil
}

// DataURI wraps b for inline embedding, e.g. in a JSON response.
func DataURI(b []byte, mime string) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(b)
}
