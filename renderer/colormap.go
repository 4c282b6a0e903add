package renderer

import "image/color"

// gradient maps v in [0, 1] through dark blue, cyan and yellow to white.
// Values outside the range are clamped.
func gradient(v float32, alpha uint8) color.RGBA {
	v = min(max(v, 0), 1)
	var r, g, b float32
	switch {
	case v < 0.25:
		t := v / 0.25
		r, g, b = 10+t*30, 20+t*60, 60+t*100
	case v < 0.5:
		t := (v - 0.25) / 0.25
		r, g, b = 40+t*20, 80+t*120, 160+t*40
	case v < 0.75:
		t := (v - 0.5) / 0.25
		r, g, b = 60+t*140, 200-t*40, 200-t*150
	default:
		t := (v - 0.75) / 0.25
		r, g, b = 200+t*55, 160+t*95, 50+t*205
	}
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: alpha}
}
