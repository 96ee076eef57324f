// Package color assigns stable RGBA colors to streamed entities. The
// key hash gives every display key a recognizable identity across the
// whole session; collisions between distinct keys are acceptable.
package color

import (
	"math"
	"strings"
)

// RGBA is one channel-per-byte color.
type RGBA struct {
	R, G, B, A uint8
}

// Unmatched is the sentinel for events with no display key.
var Unmatched = RGBA{R: 128, G: 128, B: 128, A: 200}

// ForKey maps a display key to its color. Empty keys get the
// unmatched gray; otherwise a 31-multiplier rolling hash, truncated to
// 32-bit signed, picks a hue at fixed saturation and lightness. No
// randomness and no state, so the mapping survives restarts.
func ForKey(key string) RGBA {
	if key == "" {
		return Unmatched
	}

	var h int32
	for i := 0; i < len(key); i++ {
		h = h*31 + int32(key[i])
	}

	hue := int(h)
	if hue < 0 {
		hue = -hue
	}
	hue %= 360

	r, g, b := hslToRGB(hue, 0.70, 0.50)
	return RGBA{R: r, G: g, B: b, A: 220}
}

// hslToRGB is the standard six-sector conversion. h in degrees, s and
// l in [0,1].
func hslToRGB(h int, s, l float64) (uint8, uint8, uint8) {
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(float64(h)/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return channel(r + m), channel(g + m), channel(b + m)
}

func channel(v float64) uint8 {
	return uint8(math.Round(v * 255))
}

// categoryColors is the closed category palette. Lookup is
// case-insensitive; anything else falls through to CategoryDefault.
var categoryColors = map[string]RGBA{
	"roadworks":   {R: 255, G: 140, B: 0, A: 230},
	"enforcement": {R: 220, G: 20, B: 60, A: 230},
	"incident":    {R: 178, G: 34, B: 34, A: 230},
	"congestion":  {R: 255, G: 215, B: 0, A: 230},
	"closure":     {R: 105, G: 105, B: 105, A: 230},
}

// CategoryDefault is returned for categories outside the palette.
var CategoryDefault = RGBA{R: 70, G: 130, B: 180, A: 230}

// ForCategory maps an event category to the fixed palette.
func ForCategory(category string) RGBA {
	if c, ok := categoryColors[strings.ToLower(category)]; ok {
		return c
	}
	return CategoryDefault
}
