package universe

import "github.com/san-kum/moldyn/internal/vec3"

const (
	// Starting displacement magnitude for minimizer perturbations.
	minimizeInitialStep = 1e-9 // m
	// Consecutive rejections before the displacement is annealed.
	minimizeAnnealAfter = 50
	// Geometric annealing factor applied after each rejection streak.
	minimizeAnnealFactor = 0.1
	// Attempt budget per atom. The reference algorithm retries forever; the
	// budget bounds pathological energy landscapes without altering the
	// strictly-lower acceptance criterion.
	minimizeMaxAttempts = 10000
)

// MinimizeStats reports what the minimizer did.
type MinimizeStats struct {
	Accepted  int // atoms that found a lower-energy position
	Exhausted int // atoms that ran out of attempts and kept their position
	Attempts  int // total perturbations tried
}

// Minimize applies stochastic local descent to each atom in array order:
// perturb in a random direction, re-wrap, and keep the move once the
// system potential drops strictly below the baseline recorded before the
// atom's perturbation sequence began. After 50 consecutive rejections the
// displacement magnitude shrinks by a factor of 10. An atom that exhausts
// its attempt budget is left at its original position.
func (u *Universe) Minimize() (MinimizeStats, error) {
	var stats MinimizeStats

	for i := range u.Atoms {
		baseline, err := u.PotentialEnergy()
		if err != nil {
			return stats, err
		}

		stepMag := minimizeInitialStep
		streak := 0
		accepted := false

		for attempt := 0; attempt < minimizeMaxAttempts; attempt++ {
			stats.Attempts++

			if streak < minimizeAnnealAfter {
				streak++
			} else {
				streak = 0
				stepMag *= minimizeAnnealFactor
			}

			backup := u.Atoms[i].Pos

			dir, err := vec3.Marsaglia(u.rng)
			if err != nil {
				return stats, err
			}
			u.Atoms[i].Pos = vec3.Add(u.Atoms[i].Pos, vec3.Scale(dir, stepMag))
			if err := u.enforcePBC(i); err != nil {
				return stats, err
			}

			after, err := u.PotentialEnergy()
			if err != nil {
				return stats, err
			}
			if after < baseline {
				stats.Accepted++
				accepted = true
				break
			}

			u.Atoms[i].Pos = backup
		}

		if !accepted {
			stats.Exhausted++
		}
	}

	return stats, nil
}
