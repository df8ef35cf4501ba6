package universe

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/moldyn/internal/vec3"
)

// Finite-difference step for numerical force evaluation, small against the
// ~1e-10 m atomic length scale.
const fdStep = 1e-13 // m

// forceAnalytic sums the closed-form negative gradient of every pair and
// bond term acting on atom i. With d the minimum-image vector from i to j
// and û = d/r, the force contribution is V'(r)·û for each term.
func (u *Universe) forceAnalytic(i int) (vec3.Vec, error) {
	var force vec3.Vec
	a := &u.Atoms[i]

	for j := range u.Atoms {
		if j == i {
			continue
		}
		b := &u.Atoms[j]

		d := u.minimumImage(a.Pos, b.Pos)
		r := d.Mag()
		if r < minSeparation {
			_, err := u.pairSeparation(i, j)
			return vec3.Vec{}, err
		}

		sigma, epsilon := mixLJ(a, b)
		sr := sigma / r
		sr6 := sr * sr * sr * sr * sr * sr

		// dV/dr of 4ε(σ¹²/r¹² − σ⁶/r⁶) and of k_e·q₁q₂/r.
		ljPrime := 24 * epsilon / r * (sr6 - 2*sr6*sr6)
		coulombPrime := -coulombK * a.Charge * b.Charge / (r * r)

		force = vec3.Add(force, vec3.Scale(d, (ljPrime+coulombPrime)/r))
	}

	for _, rec := range u.bonds.of(i) {
		b := &u.Atoms[rec.Target]

		d := u.minimumImage(a.Pos, b.Pos)
		r := d.Mag()
		if r < minSeparation {
			_, err := u.pairSeparation(i, rec.Target)
			return vec3.Vec{}, err
		}

		r0, _ := mixLJ(a, b)
		bondPrime := rec.Strength * (r - r0)
		force = vec3.Add(force, vec3.Scale(d, bondPrime/r))
	}

	return force, nil
}

// forceNumerical estimates the force on atom i by central differences of
// its per-atom potential: perturb one coordinate by ±fdStep, re-evaluate,
// restore, divide. Terms not involving atom i do not depend on its
// position, so the per-atom potential gradient is the true force.
func (u *Universe) forceNumerical(i int) (vec3.Vec, error) {
	coords := [3]*float64{&u.Atoms[i].Pos.X, &u.Atoms[i].Pos.Y, &u.Atoms[i].Pos.Z}
	var force [3]float64

	for axis, c := range coords {
		saved := *c

		*c = saved + fdStep
		plus, err := u.Potential(i)
		if err != nil {
			*c = saved
			return vec3.Vec{}, err
		}

		*c = saved - fdStep
		minus, err := u.Potential(i)
		*c = saved
		if err != nil {
			return vec3.Vec{}, err
		}

		force[axis] = -(plus - minus) / (2 * fdStep)
	}

	return vec3.Vec{X: force[0], Y: force[1], Z: force[2]}, nil
}

// updateForces recomputes every atom's force vector at the current
// positions. The analytic sweep partitions atoms across workers; each
// worker writes only its own atoms' force vectors, so no locks are needed
// and results are order-independent within floating-point tolerance. The
// numerical sweep runs serially because it perturbs positions other
// evaluations read.
func (u *Universe) updateForces() error {
	if u.cfg.Mode == ForceNumerical {
		for i := range u.Atoms {
			f, err := u.forceNumerical(i)
			if err != nil {
				return err
			}
			u.Atoms[i].Frc = f
		}
		return nil
	}

	n := len(u.Atoms)
	workers := u.cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			f, err := u.forceAnalytic(i)
			if err != nil {
				return err
			}
			u.Atoms[i].Frc = f
		}
		return nil
	}

	var g errgroup.Group
	chunk := (n + workers - 1) / workers
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		start, end := start, end
		g.Go(func() error {
			for i := start; i < end; i++ {
				f, err := u.forceAnalytic(i)
				if err != nil {
					return err
				}
				u.Atoms[i].Frc = f
			}
			return nil
		})
	}
	return g.Wait()
}
