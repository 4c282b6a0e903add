package mpm

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNeighborhoodPartitionOfUnity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const res = 64

	for i := 0; i < 10000; i++ {
		pos := Vec2{
			X: 1 + rng.Float32()*float32(res-3),
			Y: 1 + rng.Float32()*float32(res-3),
		}
		n := NewNeighborhood(pos, res)
		assert.InDelta(t, 1.0, n.WeightSum(), 1e-5, "pos=%v", pos)
	}
}

func TestNeighborhoodMoments(t *testing.T) {
	// Σ w·dpos = 0 and Σ w·dpos⊗dpos = I/4 are what make the affine
	// reconstruction exact for linear velocity fields.
	const res = 32
	for _, pos := range []Vec2{{16, 16}, {16.25, 9.9}, {3.5, 28.01}, {1, 29.999}} {
		n := NewNeighborhood(pos, res)
		var first Vec2
		var second Mat2
		for gy := 0; gy < 3; gy++ {
			for gx := 0; gx < 3; gx++ {
				_, w, dpos := n.Cell(gx, gy, res)
				first = first.Add(dpos.Scale(w))
				second = second.Add(Outer(dpos, dpos).Scale(w))
			}
		}
		assert.InDelta(t, 0, first.X, 1e-5, "pos=%v", pos)
		assert.InDelta(t, 0, first.Y, 1e-5, "pos=%v", pos)
		assert.InDelta(t, 0.25, second.XX, 1e-5, "pos=%v", pos)
		assert.InDelta(t, 0.25, second.YY, 1e-5, "pos=%v", pos)
		assert.InDelta(t, 0, second.XY, 1e-5, "pos=%v", pos)
	}
}

func TestNeighborhoodCellOffsets(t *testing.T) {
	const res = 16
	n := NewNeighborhood(Vec2{5.75, 8.25}, res)

	// Center slot is the containing cell.
	idx, w, dpos := n.Cell(1, 1, res)
	assert.Equal(t, 8*res+5, idx)
	assert.InDelta(t, 0.6875*0.6875, w, 1e-6) // d = ±0.25 on both axes
	assert.InDelta(t, -0.25, dpos.X, 1e-6)
	assert.InDelta(t, 0.25, dpos.Y, 1e-6)

	// Lower-left slot.
	idx, _, dpos = n.Cell(0, 0, res)
	assert.Equal(t, 7*res+4, idx)
	assert.InDelta(t, -1.25, dpos.X, 1e-6)
	assert.InDelta(t, -0.75, dpos.Y, 1e-6)
}

func TestNeighborhoodOffGridPanics(t *testing.T) {
	const res = 16
	for _, pos := range []Vec2{{0.5, 8}, {8, 0.99}, {15.2, 8}, {8, 15}} {
		assert.Panics(t, func() { NewNeighborhood(pos, res) }, "pos=%v", pos)
	}
	assert.NotPanics(t, func() { NewNeighborhood(Vec2{1, 14}, res) })
}

func TestQuadraticWeightsSymmetric(t *testing.T) {
	for _, d := range []float32{-0.5, -0.3, 0, 0.1, 0.49} {
		w := quadraticWeights(d)
		m := quadraticWeights(-d)
		assert.InDelta(t, w[0], m[2], 1e-7)
		assert.InDelta(t, w[1], m[1], 1e-7)
		assert.InDelta(t, 1, w[0]+w[1]+w[2], 1e-6)
	}
}
