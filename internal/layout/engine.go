// Package layout places weighted words on a canvas without overlap.
//
// Words are sized by relative frequency, then placed largest first by
// walking an Archimedean spiral out from the canvas centre until the word's
// ink box fits. A word that finds no position is retried at a smaller size
// and finally skipped. All randomness comes from Config.Seed.
package layout

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"math"
	"math/rand"

	"github.com/toricodesthings/wordcloud-service/internal/frequency"
)

// PlacedWord is one word drawn on the canvas. X and Y are the top-left
// corner of Box.
type PlacedWord struct {
	Word     string          `json:"word"`
	Count    int             `json:"count"`
	FontSize int             `json:"fontSize"`
	X        int             `json:"x"`
	Y        int             `json:"y"`
	Box      image.Rectangle `json:"-"`
	Vertical bool            `json:"vertical"`
	Color    color.RGBA      `json:"-"`
}

// RenderedImage is the finished canvas plus a record of what landed on it.
type RenderedImage struct {
	Width      int
	Height     int
	Background Background
	Canvas     *image.RGBA
	Words      []PlacedWord
	// Skipped lists words that found no position even at the minimum size.
	Skipped []string
}

// Layout renders table under cfg.
func Layout(table frequency.Table, cfg Config) (*RenderedImage, error) {
	return LayoutContext(context.Background(), table, cfg)
}

// LayoutContext is Layout with cancellation checked between words.
func LayoutContext(ctx context.Context, table frequency.Table, cfg Config) (*RenderedImage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	canvas := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: cfg.Background.Color()}, image.Point{}, draw.Src)

	out := &RenderedImage{
		Width:      cfg.Width,
		Height:     cfg.Height,
		Background: cfg.Background,
		Canvas:     canvas,
		Words:      []PlacedWord{},
		Skipped:    []string{},
	}

	entries := table.Top(cfg.MaxWords)
	if len(entries) == 0 {
		return out, nil
	}

	faces, err := newFaceCache()
	if err != nil {
		return nil, err
	}
	defer faces.close()

	e := &engine{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		occ:    newOccupancy(cfg.Width, cfg.Height),
		faces:  faces,
		target: canvas,
		pitch:  math.Max(2, float64(max(cfg.Width, cfg.Height))/250),
	}

	top, err := e.topFontSize(entries[0].Word)
	if err != nil {
		return nil, err
	}
	maxCount := float64(entries[0].Count)

	for _, ent := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rs := cfg.RelativeScaling
		size := int(math.Round(float64(top) * (rs*float64(ent.Count)/maxCount + (1 - rs))))
		size = max(size, cfg.MinFontSize)

		pw, ok, err := e.place(ent, size)
		if err != nil {
			return nil, err
		}
		if !ok {
			out.Skipped = append(out.Skipped, ent.Word)
			continue
		}
		out.Words = append(out.Words, pw)
	}
	return out, nil
}

type engine struct {
	cfg    Config
	rng    *rand.Rand
	occ    *occupancy
	faces  *faceCache
	target *image.RGBA
	pitch  float64
	// failed holds box sizes that found no free position; any box at
	// least as large in both dimensions cannot fit either.
	failed []image.Point
}

// topFontSize is the size of the most frequent word, shrunk until its ink
// box fits the canvas.
func (e *engine) topFontSize(word string) (int, error) {
	size := e.cfg.MaxFontSize
	if size <= 0 {
		size = e.cfg.Height
	}
	size = max(size, e.cfg.MinFontSize)

	face, err := e.faces.face(size)
	if err != nil {
		return 0, err
	}
	ink := inkBounds(face, word)
	if ink.Dx() > e.cfg.Width || ink.Dy() > e.cfg.Height {
		scale := math.Min(float64(e.cfg.Width)/float64(max(ink.Dx(), 1)), float64(e.cfg.Height)/float64(max(ink.Dy(), 1)))
		size = max(int(float64(size)*scale), e.cfg.MinFontSize)
	}
	for size > e.cfg.MinFontSize {
		face, err := e.faces.face(size)
		if err != nil {
			return 0, err
		}
		ink := inkBounds(face, word)
		if ink.Dx() <= e.cfg.Width && ink.Dy() <= e.cfg.Height {
			break
		}
		size--
	}
	return size, nil
}

// place draws ent at size or smaller. It reports false when even the
// minimum size finds no position.
func (e *engine) place(ent frequency.Entry, size int) (PlacedWord, bool, error) {
	vertical := e.rng.Float64() >= e.cfg.PreferHorizontal
	clr := palette[e.rng.Intn(len(palette))]

	for ; size >= e.cfg.MinFontSize; size -= e.cfg.FontStep {
		face, err := e.faces.face(size)
		if err != nil {
			return PlacedWord{}, false, err
		}
		ink := inkBounds(face, ent.Word)
		if ink.Empty() {
			return PlacedWord{}, false, nil
		}
		w, h := ink.Dx(), ink.Dy()
		if vertical {
			w, h = h, w
		}
		at, ok := e.search(w, h)
		if !ok {
			continue
		}

		mask := renderMask(face, ent.Word, ink)
		if vertical {
			mask = rotate90(mask)
		}
		box := image.Rect(at.X, at.Y, at.X+w, at.Y+h)
		draw.DrawMask(e.target, box, &image.Uniform{C: clr}, image.Point{}, mask, image.Point{}, draw.Over)
		e.occ.mark(box.Inset(-e.cfg.Margin))

		return PlacedWord{
			Word:     ent.Word,
			Count:    ent.Count,
			FontSize: size,
			X:        box.Min.X,
			Y:        box.Min.Y,
			Box:      box,
			Vertical: vertical,
			Color:    clr,
		}, true, nil
	}
	return PlacedWord{}, false, nil
}

// search walks an Archimedean spiral from the canvas centre, stretched to
// the canvas aspect ratio, and returns the first free top-left corner for
// a w×h box.
func (e *engine) search(w, h int) (image.Point, bool) {
	W, H := e.cfg.Width, e.cfg.Height
	if w > W || h > H || e.dominatesFailure(w, h) {
		return image.Point{}, false
	}

	side := float64(max(W, H))
	ex, ey := float64(W)/side, float64(H)/side
	cx, cy := float64(W-w)/2, float64(H-h)/2

	// Big boxes move in big steps.
	pitch := math.Max(e.pitch, float64(min(w, h))/8)
	a := pitch / (2 * math.Pi)
	phase := e.rng.Float64() * 2 * math.Pi
	dir := 1.0
	if e.rng.Intn(2) == 0 {
		dir = -1
	}

	theta := 0.0
	for step := 0; step < e.cfg.SearchBudget; step++ {
		r := a * theta
		if r > side {
			break
		}
		x := int(math.Round(cx + dir*r*ex*math.Cos(theta+phase)))
		y := int(math.Round(cy + r*ey*math.Sin(theta+phase)))
		if e.occ.free(image.Rect(x, y, x+w, y+h)) {
			return image.Pt(x, y), true
		}
		theta += pitch / math.Max(r, pitch)
	}
	e.failed = append(e.failed, image.Pt(w, h))
	return image.Point{}, false
}

func (e *engine) dominatesFailure(w, h int) bool {
	for _, f := range e.failed {
		if w >= f.X && h >= f.Y {
			return true
		}
	}
	return false
}
