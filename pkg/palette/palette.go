// Package palette assigns colour keys to chord categories and their members.
//
// Categories are spread evenly around the hue wheel; members inherit their
// category's hue and get a lightness derived from a hash of their name so that
// neighbouring ribbons stay distinguishable. All colours are returned as
// "#rrggbb" strings so the rendering layer can use them directly.
package palette

import (
	"math"
	"unicode/utf16"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	saturation       = 0.75
	defaultLightness = 0.50
)

// Color returns the colour of category i out of n.
func Color(i, n int) string {
	return hsl(hue(i, n), defaultLightness).Hex()
}

// SubColor returns the colour of a member named name whose category colour is
// base. Invalid base colours fall back to hue 0.
func SubColor(base, name string) string {
	h := 0.0
	if c, err := colorful.Hex(base); err == nil {
		h, _, _ = c.Hsl()
	}
	return hsl(h, float64(Lightness(name))/100).Hex()
}

// Lightness maps name to a lightness percentage in [20, 99].
//
// It uses the classic 31-multiplier string hash with 32-bit wrap-around, so
// the same name always gets the same shade. Each code point contributes its
// first UTF-16 unit: the high surrogate for characters outside the BMP.
func Lightness(name string) int {
	var h int32
	for _, r := range name {
		unit := r
		if r >= 0x10000 {
			unit, _ = utf16.EncodeRune(r)
		}
		h = (h << 5) - h + int32(unit)
	}
	m := int(h % 80)
	if m < 0 {
		m = -m
	}
	return m + 20
}

func hue(i, n int) float64 {
	return math.Trunc(360 / float64(n+1) * float64(i))
}

func hsl(h, l float64) colorful.Color {
	return colorful.Hsl(h, saturation, l).Clamped()
}
