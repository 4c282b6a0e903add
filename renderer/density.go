package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/mpm/camera"
	"github.com/pthm-cable/mpm/mpm"
)

// DensityRenderer draws the grid mass of the last sub-step as a texture,
// one texel per cell.
type DensityRenderer struct {
	tex         rl.Texture2D
	res         int
	pixels      []color.RGBA
	initialized bool
}

// NewDensityRenderer creates a density renderer for a res×res grid.
func NewDensityRenderer(res int) *DensityRenderer {
	return &DensityRenderer{res: res}
}

// Init creates the texture (must be called after raylib window is created).
func (r *DensityRenderer) Init() {
	if r.initialized {
		return
	}
	img := rl.GenImageColor(r.res, r.res, rl.Black)
	r.tex = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(r.tex, rl.FilterBilinear)
	rl.UnloadImage(img)
	r.pixels = make([]color.RGBA, r.res*r.res)
	r.initialized = true
}

// Update uploads the grid mass, scaled so twice the rest density is white.
// Texture rows run top-down while grid rows run bottom-up.
func (r *DensityRenderer) Update(grid *mpm.Grid, restDensity float32) {
	if !r.initialized {
		r.Init()
	}
	if grid.Res() != r.res {
		return
	}
	scale := 1 / (2 * restDensity)
	for y := 0; y < r.res; y++ {
		row := (r.res - 1 - y) * r.res
		for x := 0; x < r.res; x++ {
			m := grid.Mass(y*r.res + x)
			if m == 0 {
				r.pixels[row+x] = color.RGBA{}
				continue
			}
			r.pixels[row+x] = gradient(m*scale, 200)
		}
	}
	rl.UpdateTexture(r.tex, r.pixels)
}

// Draw stretches the part of the density texture visible through cam over
// its viewport.
func (r *DensityRenderer) Draw(cam *camera.Camera) {
	if !r.initialized {
		return
	}
	minX, minY, maxX, maxY := cam.VisibleWorldBounds()
	src := rl.Rectangle{X: minX, Y: float32(r.res) - maxY, Width: maxX - minX, Height: maxY - minY}
	dst := rl.Rectangle{X: cam.ViewX, Y: cam.ViewY, Width: cam.ViewSize, Height: cam.ViewSize}
	rl.DrawTexturePro(r.tex, src, dst, rl.Vector2{}, 0, rl.White)
}

// Unload frees GPU resources.
func (r *DensityRenderer) Unload() {
	if !r.initialized {
		return
	}
	rl.UnloadTexture(r.tex)
	r.initialized = false
}
