package mpm

// scatterForce is the second particle-to-grid pass. It gathers the mass
// field written by scatterMass to estimate each particle's density, turns
// that into a stress through the equation of state plus viscosity, and
// scatters the resulting impulse into the same momentum accumulators.
func (s *Solver) scatterForce(i0, i1 int) {
	res := s.params.GridRes
	g := s.grid

	for i := i0; i < i1; i++ {
		p := &s.ps[i]
		n := NewNeighborhood(p.Pos, res)

		density := s.gatherDensity(&n)
		term := s.stressImpulse(p, density)
		if term == (Mat2{}) {
			continue
		}

		for gy := 0; gy < 3; gy++ {
			for gx := 0; gx < 3; gx++ {
				idx, w, dpos := n.Cell(gx, gy, res)
				mom := term.MulVec(dpos).Scale(w)
				if !g.fits(mom) {
					s.unstable.Store(true)
					continue
				}
				g.addMomentum(idx, mom)
			}
		}
	}
}

// gatherDensity returns Σ w·mass over the stencil.
func (s *Solver) gatherDensity(n *Neighborhood) float32 {
	res := s.params.GridRes
	var density float32
	for gy := 0; gy < 3; gy++ {
		for gx := 0; gx < 3; gx++ {
			idx, w, _ := n.Cell(gx, gy, res)
			density += w * s.grid.accumulatedMass(idx)
		}
	}
	return density
}

// stressImpulse returns -V·ForceScale·σ·dt, the matrix that maps a cell's
// offset to the momentum it receives from particle p.
func (s *Solver) stressImpulse(p *Particle, density float32) Mat2 {
	prm := &s.params

	// Degenerate density counts as rest density with zero pressure.
	if !(density > 0) || !finite32(density) {
		density = prm.RestDensity
	}
	pressure := prm.Pressure(density)

	stress := Mat2{XX: -pressure, YY: -pressure}

	// Rate-of-strain estimate from the affine matrix with symmetrised
	// off-diagonal terms.
	strain := p.C
	shear := strain.XY + strain.YX
	strain.XY, strain.YX = shear, shear
	stress = stress.Add(strain.Scale(prm.DynamicViscosity))

	volume := p.Mass / density
	return stress.Scale(-volume * prm.ForceScale * s.dt)
}
