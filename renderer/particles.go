package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/mpm/camera"
	"github.com/pthm-cable/mpm/mpm"
)

// ParticleRenderer draws fluid particles as small squares colored by speed.
type ParticleRenderer struct {
	maxSpeed  float32 // speed mapped to the top of the gradient
	instances []mpm.Instance
}

// NewParticleRenderer creates a new particle renderer.
func NewParticleRenderer() *ParticleRenderer {
	return &ParticleRenderer{maxSpeed: 2}
}

// Draw renders the particles visible through cam.
func (r *ParticleRenderer) Draw(particles []mpm.Particle, cam *camera.Camera) {
	r.instances = mpm.Instances(particles, r.instances)

	size := max(cam.Scale()*0.5, 1)
	for i := range r.instances {
		in := &r.instances[i]
		if !cam.IsVisible(in.Pos.X, in.Pos.Y, 0.5) {
			continue
		}
		x, y := cam.WorldToScreen(in.Pos.X, in.Pos.Y)

		c := gradient(0.25+0.75*in.Speed/r.maxSpeed, 255)
		// Swirling fluid gets a warm tint.
		if in.Vorticity > 0.05 || in.Vorticity < -0.05 {
			c.R = uint8(min(int(c.R)+60, 255))
		}
		rl.DrawRectangleV(rl.Vector2{X: x - size/2, Y: y - size/2}, rl.Vector2{X: size, Y: size}, c)
	}
}
