package layout

import "image"

// occupancy answers "is this rectangle free?" in O(1) using a summed-area
// table of occupied pixels. Marked rectangles may overlap; counts only ever
// grow, so a zero sum still means no marked pixel.
type occupancy struct {
	w, h int
	sat  []int32 // (w+1)*(h+1); sat[y*(w+1)+x] covers [0,x)×[0,y)
}

func newOccupancy(w, h int) *occupancy {
	return &occupancy{w: w, h: h, sat: make([]int32, (w+1)*(h+1))}
}

func (o *occupancy) bounds() image.Rectangle { return image.Rect(0, 0, o.w, o.h) }

func (o *occupancy) at(x, y int) int32 { return o.sat[y*(o.w+1)+x] }

// free reports whether r lies inside the canvas with no marked pixel.
func (o *occupancy) free(r image.Rectangle) bool {
	if r.Empty() || !r.In(o.bounds()) {
		return false
	}
	sum := o.at(r.Max.X, r.Max.Y) - o.at(r.Min.X, r.Max.Y) - o.at(r.Max.X, r.Min.Y) + o.at(r.Min.X, r.Min.Y)
	return sum == 0
}

// mark adds r, clipped to the canvas, to the table.
func (o *occupancy) mark(r image.Rectangle) {
	r = r.Intersect(o.bounds())
	if r.Empty() {
		return
	}
	stride := o.w + 1
	for y := r.Min.Y + 1; y <= o.h; y++ {
		dy := int32(min(y, r.Max.Y) - r.Min.Y)
		row := o.sat[y*stride:]
		for x := r.Min.X + 1; x <= o.w; x++ {
			row[x] += int32(min(x, r.Max.X)-r.Min.X) * dy
		}
	}
}
