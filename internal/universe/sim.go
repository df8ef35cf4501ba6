package universe

import (
	"context"
	"math"

	"github.com/san-kum/moldyn/internal/vec3"
)

// Result accumulates per-run diagnostics: one sample per emitted frame plus
// summary counters.
type Result struct {
	Steps  uint64
	Frames int

	Times     []float64
	Kinetic   []float64
	Potential []float64
	Total     []float64

	// EnergyDrift is |E_last − E_first| / |E_first| over the sampled total
	// energy, zero when fewer than two frames were emitted.
	EnergyDrift float64
}

// Step advances the system one velocity-Verlet timestep:
//
//  1. pos ← pos + vel·dt + 0.5·acc·dt² for every atom
//  2. periodic wrap for every atom
//  3. force recompute for every atom at the new positions
//  4. acc ← force / mass
//  5. vel ← vel + 0.5·(acc_old + acc_new)·dt
//
// All positions are updated and wrapped before any force evaluation, since
// forces depend on all positions simultaneously. The clock advances by
// exactly one timestep.
func (u *Universe) Step() error {
	dt := u.cfg.Timestep
	halfDt2 := 0.5 * dt * dt

	for i := range u.Atoms {
		a := &u.Atoms[i]
		a.Pos = vec3.Add(a.Pos, vec3.Add(vec3.Scale(a.Vel, dt), vec3.Scale(a.Acc, halfDt2)))
	}

	for i := range u.Atoms {
		if err := u.enforcePBC(i); err != nil {
			return u.stepError(err)
		}
	}

	if err := u.updateForces(); err != nil {
		return u.stepError(err)
	}

	halfDt := 0.5 * dt
	for i := range u.Atoms {
		a := &u.Atoms[i]
		oldAcc := a.Acc
		a.Acc = vec3.Scale(a.Frc, 1/u.masses[i])
		a.Vel = vec3.Add(a.Vel, vec3.Scale(vec3.Add(oldAcc, a.Acc), halfDt))
	}

	u.Time += dt
	u.Iterations++
	return nil
}

// Simulate iterates until the simulated clock reaches the configured
// maximum time, emitting a frame every FrameSkip+1 steps. A failure
// mid-simulation loses the current step's work; frames already flushed
// stay valid.
func (u *Universe) Simulate(ctx context.Context) (*Result, error) {
	res := &Result{}

	skip := 0
	for u.Time < u.cfg.MaxTime {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		if skip == 0 {
			if err := u.emitFrame(res); err != nil {
				return res, u.stepError(err)
			}
			skip = u.cfg.FrameSkip
		} else {
			skip--
		}

		if err := u.Step(); err != nil {
			return res, err
		}
	}

	res.Steps = u.Iterations
	if n := len(res.Total); n > 1 && res.Total[0] != 0 {
		res.EnergyDrift = math.Abs(res.Total[n-1]-res.Total[0]) / math.Abs(res.Total[0])
	}
	if u.traj != nil {
		if err := u.traj.Flush(); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (u *Universe) emitFrame(res *Result) error {
	if err := u.WriteFrame(); err != nil {
		return err
	}

	kinetic := u.KineticEnergy()
	potential, err := u.PotentialEnergy()
	if err != nil {
		return err
	}

	res.Times = append(res.Times, u.Time)
	res.Kinetic = append(res.Kinetic, kinetic)
	res.Potential = append(res.Potential, potential)
	res.Total = append(res.Total, kinetic+potential)
	res.Frames++
	return nil
}

func (u *Universe) stepError(err error) error {
	return &SimulationError{Step: u.Iterations, Time: u.Time, Wrapped: err}
}
