package mpm

// scatterMass is the first particle-to-grid pass: every particle deposits
// its mass and its APIC momentum m·(v + C·dpos) into its 3x3 stencil.
func (s *Solver) scatterMass(i0, i1 int) {
	res := s.params.GridRes
	g := s.grid

	for i := i0; i < i1; i++ {
		p := &s.ps[i]
		n := NewNeighborhood(p.Pos, res)

		for gy := 0; gy < 3; gy++ {
			for gx := 0; gx < 3; gx++ {
				idx, w, dpos := n.Cell(gx, gy, res)
				m := w * p.Mass

				// Affine correction lets the particle deposit a linear
				// velocity field instead of a constant one.
				q := p.C.MulVec(dpos)

				mom := p.Vel.Add(q).Scale(m)
				if !g.fits(mom) {
					s.unstable.Store(true)
					continue
				}
				g.addMass(idx, m)
				g.addMomentum(idx, mom)
			}
		}
	}
}
