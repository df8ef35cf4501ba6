package universe

import (
	"github.com/san-kum/moldyn/internal/model"
	"github.com/san-kum/moldyn/internal/topology"
	"github.com/san-kum/moldyn/internal/vec3"
)

// Atom is one simulated particle. All kinematic vectors are SI: metres,
// m/s, m/s², newtons. Bond adjacency lives in the universe's bond arena,
// not on the atom.
type Atom struct {
	Element model.Element
	Charge  float64 // C
	Epsilon float64 // J
	Sigma   float64 // m

	Pos vec3.Vec
	Vel vec3.Vec
	Acc vec3.Vec
	Frc vec3.Vec
}

// BondRec is one directed adjacency record: the working-atom index of the
// bonded neighbor and the harmonic strength shared by the pair.
type BondRec struct {
	Target   int
	Strength float64 // N/m
}

// bondArena stores every adjacency record in one contiguous slice, indexed
// by per-atom offset ranges. Sizes are fixed at construction by a two-pass
// counting scheme; nothing grows after that.
type bondArena struct {
	recs []BondRec
	off  []int // len = atom count + 1
}

// buildArena constructs symmetric adjacency from parsed bonds: each bond
// (a, b, k) appears in both a's and b's range with the same strength.
func buildArena(atomCount int, bonds []topology.Bond) bondArena {
	deg := make([]int, atomCount)
	for _, b := range bonds {
		deg[b.A]++
		deg[b.B]++
	}

	off := make([]int, atomCount+1)
	for i, d := range deg {
		off[i+1] = off[i] + d
	}

	recs := make([]BondRec, off[atomCount])
	fill := make([]int, atomCount)
	for _, b := range bonds {
		recs[off[b.A]+fill[b.A]] = BondRec{Target: b.B, Strength: b.Strength}
		fill[b.A]++
		recs[off[b.B]+fill[b.B]] = BondRec{Target: b.A, Strength: b.Strength}
		fill[b.B]++
	}

	return bondArena{recs: recs, off: off}
}

// replicate tiles the reference arena once per copy, shifting every target
// by the copy's atom-index base so bonds never cross replicas.
func (a bondArena) replicate(copies, refAtoms int) bondArena {
	out := bondArena{
		recs: make([]BondRec, len(a.recs)*copies),
		off:  make([]int, refAtoms*copies+1),
	}

	for c := 0; c < copies; c++ {
		base := c * refAtoms
		recBase := c * len(a.recs)
		for i := 0; i < refAtoms; i++ {
			out.off[base+i+1] = out.off[base+i] + (a.off[i+1] - a.off[i])
		}
		for r, rec := range a.recs {
			out.recs[recBase+r] = BondRec{Target: rec.Target + base, Strength: rec.Strength}
		}
	}

	return out
}

func (a bondArena) of(i int) []BondRec {
	return a.recs[a.off[i]:a.off[i+1]]
}
