package mpm

// gatherVelocity is the grid-to-particle pass: it rebuilds each particle's
// velocity and affine matrix from the resolved grid velocities, then
// advects and clamps the particle.
func (s *Solver) gatherVelocity(i0, i1 int) {
	prm := &s.params
	res := prm.GridRes
	g := s.grid
	dt := s.dt
	lo, hi := prm.lo(), prm.hi()

	for i := i0; i < i1; i++ {
		p := &s.ps[i]
		n := NewNeighborhood(p.Pos, res)

		var v Vec2
		var b Mat2
		for gy := 0; gy < 3; gy++ {
			for gx := 0; gx < 3; gx++ {
				idx, w, dpos := n.Cell(gx, gy, res)
				wv := g.Velocity(idx).Scale(w)
				v = v.Add(wv)
				b = b.Add(Outer(wv, dpos))
			}
		}

		pos := p.Pos.Add(v.Scale(dt))
		if !pos.finite() || !v.finite() {
			s.unstable.Store(true)
			continue
		}

		p.Vel = v
		p.C = b.Scale(affineScale)
		p.Pos = Vec2{clamp(pos.X, lo, hi), clamp(pos.Y, lo, hi)}

		if prm.WallMargin > 0 {
			s.softWalls(p)
		}
	}
}

// softWalls pushes back the velocity of a particle whose predicted next
// position lands inside the wall margin, by the amount of the overshoot.
func (s *Solver) softWalls(p *Particle) {
	wmin := s.params.WallMargin
	wmax := float32(s.params.GridRes-1) - wmin
	next := p.Pos.Add(p.Vel.Scale(s.dt))

	if next.X < wmin {
		p.Vel.X += wmin - next.X
	} else if next.X > wmax {
		p.Vel.X += wmax - next.X
	}
	if next.Y < wmin {
		p.Vel.Y += wmin - next.Y
	} else if next.Y > wmax {
		p.Vel.Y += wmax - next.Y
	}
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
