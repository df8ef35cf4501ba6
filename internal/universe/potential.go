package universe

import (
	"fmt"
	"math"

	"github.com/san-kum/moldyn/internal/vec3"
)

// Coulomb constant, N·m²/C².
const coulombK = 8.9875517923e9

// Pairs closer than this are considered overlapping and abort evaluation
// rather than propagating Inf.
const minSeparation = 1e-14 // m

// mixLJ applies the Lorentz-Berthelot combination rule: arithmetic mean of
// sigmas, geometric mean of epsilons. Used consistently for both the
// non-bonded terms and the harmonic equilibrium length.
func mixLJ(a, b *Atom) (sigma, epsilon float64) {
	return 0.5 * (a.Sigma + b.Sigma), math.Sqrt(a.Epsilon * b.Epsilon)
}

// minimumImage returns the shortest displacement from a to b considering
// the cell's periodic images along each axis. math.Round breaks half-cell
// ties away from zero.
func (u *Universe) minimumImage(a, b vec3.Vec) vec3.Vec {
	d := vec3.Sub(b, a)
	d.X -= u.Size * math.Round(d.X/u.Size)
	d.Y -= u.Size * math.Round(d.Y/u.Size)
	d.Z -= u.Size * math.Round(d.Z/u.Size)
	return d
}

// pairSeparation returns the minimum-image distance between atoms i and j.
func (u *Universe) pairSeparation(i, j int) (float64, error) {
	r := u.minimumImage(u.Atoms[i].Pos, u.Atoms[j].Pos).Mag()
	if r < minSeparation {
		return 0, fmt.Errorf("%w: atoms %d and %d separated by %e m", ErrDegenerateGeometry, i, j, r)
	}
	return r, nil
}

// pairPotential is the non-bonded energy of the (i, j) pair at distance r:
// 12-6 Lennard-Jones plus Coulomb electrostatics.
func (u *Universe) pairPotential(i, j int, r float64) float64 {
	a, b := &u.Atoms[i], &u.Atoms[j]
	sigma, epsilon := mixLJ(a, b)

	sr := sigma / r
	sr6 := sr * sr * sr * sr * sr * sr
	lj := 4 * epsilon * (sr6*sr6 - sr6)
	coulomb := coulombK * a.Charge * b.Charge / r

	return lj + coulomb
}

// bondPotential is the harmonic energy of atom i's bond rec at distance r:
// 0.5 k (r − r0)² with r0 the Lorentz sigma mix of the pair.
func (u *Universe) bondPotential(i int, rec BondRec, r float64) float64 {
	r0, _ := mixLJ(&u.Atoms[i], &u.Atoms[rec.Target])
	dr := r - r0
	return 0.5 * rec.Strength * dr * dr
}

// Potential computes atom i's total potential energy: non-bonded terms
// against every other working atom under the minimum-image convention, plus
// one harmonic term per bonded neighbor.
func (u *Universe) Potential(i int) (float64, error) {
	total := 0.0

	for j := range u.Atoms {
		if j == i {
			continue
		}
		r, err := u.pairSeparation(i, j)
		if err != nil {
			return 0, err
		}
		total += u.pairPotential(i, j, r)
	}

	for _, rec := range u.bonds.of(i) {
		r, err := u.pairSeparation(i, rec.Target)
		if err != nil {
			return 0, err
		}
		total += u.bondPotential(i, rec, r)
	}

	if math.IsNaN(total) || math.IsInf(total, 0) {
		return 0, fmt.Errorf("%w: potential of atom %d", ErrNotFinite, i)
	}
	return total, nil
}
