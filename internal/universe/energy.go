package universe

// KineticEnergy sums 0.5·m·|v|² over the working atoms, in joules.
func (u *Universe) KineticEnergy() float64 {
	total := 0.0
	for i := range u.Atoms {
		v := u.Atoms[i].Vel.Mag()
		total += 0.5 * u.masses[i] * v * v
	}
	return total
}

// PotentialEnergy sums each atom's per-atom potential. This counts every
// pairwise interaction once per participating atom, i.e. twice in total —
// the convention downstream diagnostics are calibrated against. It is kept
// deliberately; see DESIGN.md.
func (u *Universe) PotentialEnergy() (float64, error) {
	total := 0.0
	for i := range u.Atoms {
		p, err := u.Potential(i)
		if err != nil {
			return 0, err
		}
		total += p
	}
	return total, nil
}

// TotalEnergy is kinetic plus (per-atom-summed) potential. It feeds
// external diagnostics only, never the integrator.
func (u *Universe) TotalEnergy() (float64, error) {
	potential, err := u.PotentialEnergy()
	if err != nil {
		return 0, err
	}
	return u.KineticEnergy() + potential, nil
}
