package layout

import "image/color"

// Samples of the viridis color map.
var palette = []color.RGBA{
	{R: 68, G: 1, B: 84, A: 255},
	{R: 72, G: 40, B: 120, A: 255},
	{R: 62, G: 74, B: 137, A: 255},
	{R: 49, G: 104, B: 142, A: 255},
	{R: 38, G: 130, B: 142, A: 255},
	{R: 31, G: 158, B: 137, A: 255},
	{R: 53, G: 183, B: 121, A: 255},
	{R: 109, G: 205, B: 89, A: 255},
	{R: 180, G: 222, B: 44, A: 255},
	{R: 253, G: 231, B: 37, A: 255},
}
