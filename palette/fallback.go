package palette

import (
	"fmt"
	"image"
	"image/color"

	"github.com/ericpauley/go-quantize/quantize"
)

var fallback = []Entry{
	{1, "Black", RGB{0, 0, 0}},
	{2, "Dark Gray", RGB{60, 60, 60}},
	{3, "Gray", RGB{120, 120, 120}},
	{4, "Light Gray", RGB{210, 210, 210}},
	{5, "White", RGB{255, 255, 255}},
	{6, "Deep Red", RGB{96, 0, 24}},
	{7, "Red", RGB{237, 28, 36}},
	{8, "Orange", RGB{255, 127, 39}},
	{9, "Gold", RGB{246, 170, 9}},
	{10, "Yellow", RGB{249, 221, 59}},
	{11, "Light Yellow", RGB{255, 250, 188}},
	{12, "Dark Green", RGB{14, 185, 104}},
	{13, "Green", RGB{19, 230, 123}},
	{14, "Light Green", RGB{135, 255, 94}},
	{15, "Dark Teal", RGB{12, 129, 110}},
	{16, "Teal", RGB{16, 174, 166}},
	{17, "Light Teal", RGB{19, 225, 190}},
	{18, "Dark Blue", RGB{40, 80, 158}},
	{19, "Blue", RGB{64, 147, 228}},
	{20, "Cyan", RGB{96, 247, 242}},
	{21, "Indigo", RGB{107, 80, 246}},
	{22, "Light Indigo", RGB{153, 177, 251}},
	{23, "Dark Purple", RGB{120, 12, 153}},
	{24, "Purple", RGB{170, 56, 185}},
	{25, "Light Purple", RGB{224, 159, 249}},
	{26, "Dark Pink", RGB{203, 0, 122}},
	{27, "Pink", RGB{236, 31, 128}},
	{28, "Light Pink", RGB{243, 141, 169}},
	{29, "Dark Brown", RGB{104, 70, 52}},
	{30, "Brown", RGB{149, 104, 42}},
	{31, "Beige", RGB{248, 178, 119}},
}

// Fallback returns a copy of the built-in palette.
func Fallback() []Entry {
	return append(fallback[:0:0], fallback...)
}

// FromImage derives a palette of at most n colors from m using median cut.
// Entries are numbered from 1 in the order the quantizer returns them.
func FromImage(m image.Image, n int) []Entry {
	if n <= 0 {
		return nil
	}

	q := quantize.MedianCutQuantizer{}
	p := q.Quantize(make(color.Palette, 0, n), m)

	entries := make([]Entry, 0, len(p))
	for i, c := range p {
		nc := color.NRGBAModel.Convert(c).(color.NRGBA)
		rgb := RGB{nc.R, nc.G, nc.B}
		entries = append(entries, Entry{
			ID:    i + 1,
			Name:  fmt.Sprintf("Color %d", i+1),
			Color: rgb,
		})
	}
	return entries
}
