// Package universe owns the full particle ensemble: the periodic cell, the
// reference topology and its replicas, force and potential evaluation,
// velocity-Verlet stepping, energy accounting, and the Monte Carlo
// minimizer.
package universe

import (
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/san-kum/moldyn/internal/model"
	"github.com/san-kum/moldyn/internal/topology"
	"github.com/san-kum/moldyn/internal/trajectory"
	"github.com/san-kum/moldyn/internal/vec3"
)

// Boltzmann constant, J/K.
const Boltzmann = 1.380649e-23

// ForceMode selects how forces are evaluated each step.
type ForceMode int

const (
	// ForceAnalytic sums closed-form negative gradients per pair and bond.
	ForceAnalytic ForceMode = iota
	// ForceNumerical finite-differences the per-atom potential. Intended as
	// a correctness cross-check, not for production-scale runs.
	ForceNumerical
)

func (m ForceMode) String() string {
	if m == ForceNumerical {
		return "numerical"
	}
	return "analytic"
}

// ParseForceMode maps a configuration string onto a ForceMode.
func ParseForceMode(s string) (ForceMode, error) {
	switch s {
	case "analytic", "":
		return ForceAnalytic, nil
	case "numerical":
		return ForceNumerical, nil
	default:
		return ForceAnalytic, fmt.Errorf("%w: unknown force mode %q", ErrBadConfig, s)
	}
}

// Config carries the externally supplied run parameters.
type Config struct {
	Temperature float64 // K, used only at initialization
	Pressure    float64 // Pa, used only at initialization
	Timestep    float64 // s
	MaxTime     float64 // s, simulated time to stop at
	Copies      int     // replicas of the reference system
	FrameSkip   int     // steps skipped between emitted frames
	Mode        ForceMode
	Seed        int64
	Workers     int // parallel force workers, 0 = GOMAXPROCS
}

func (c Config) validate() error {
	if c.Temperature <= 0 {
		return fmt.Errorf("%w: temperature %v K", ErrBadConfig, c.Temperature)
	}
	if c.Pressure <= 0 {
		return fmt.Errorf("%w: pressure %v Pa", ErrBadConfig, c.Pressure)
	}
	if c.Timestep <= 0 {
		return fmt.Errorf("%w: timestep %v s", ErrBadConfig, c.Timestep)
	}
	if c.MaxTime < 0 {
		return fmt.Errorf("%w: max time %v s", ErrBadConfig, c.MaxTime)
	}
	if c.Copies < 1 {
		return fmt.Errorf("%w: copies %d", ErrBadConfig, c.Copies)
	}
	if c.FrameSkip < 0 {
		return fmt.Errorf("%w: frameskip %d", ErrBadConfig, c.FrameSkip)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d", ErrBadConfig, c.Workers)
	}
	return nil
}

// Universe is the whole simulated system. It exclusively owns all atom
// storage and, when one is attached, the trajectory output stream.
type Universe struct {
	Name    string
	Author  string
	Comment string

	RefAtoms []Atom // canonical system, kinematics zero
	refBonds bondArena

	Atoms  []Atom // Copies × len(RefAtoms) working atoms
	bonds  bondArena
	Copies int

	Size       float64 // cell edge, m
	Time       float64 // simulated time, s
	Iterations uint64

	cfg     Config
	masses  []float64 // per working atom, cached from the element table
	symbols []string
	posBuf  []vec3.Vec // trajectory scratch
	rng     *rand.Rand
	traj    *trajectory.Writer
}

// New builds a universe from a validated topology: replicates the reference
// system into the periodic cell, wraps every atom, and assigns thermal
// velocities. Any failure aborts initialization; nothing is partially
// usable afterwards.
func New(top *topology.Topology, cfg Config) (*Universe, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	u := &Universe{
		Name:    top.Name,
		Author:  top.Author,
		Comment: top.Comment,
		Copies:  cfg.Copies,
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
	}

	u.loadReference(top)

	// Ideal-gas cell: edge = cuberoot(k_B · copies · T / P).
	u.Size = math.Cbrt(Boltzmann * float64(cfg.Copies) * cfg.Temperature / cfg.Pressure)

	if err := u.populate(); err != nil {
		return nil, err
	}
	if err := u.cacheElementData(); err != nil {
		return nil, err
	}
	for i := range u.Atoms {
		if err := u.enforcePBC(i); err != nil {
			return nil, err
		}
	}
	if err := u.setVelocities(top.MolecularMass()); err != nil {
		return nil, err
	}

	return u, nil
}

func (u *Universe) loadReference(top *topology.Topology) {
	u.RefAtoms = make([]Atom, len(top.Atoms))
	for i, spec := range top.Atoms {
		u.RefAtoms[i] = Atom{
			Element: spec.Element,
			Charge:  spec.Charge,
			Epsilon: spec.Epsilon,
			Sigma:   spec.Sigma,
			Pos:     spec.Pos,
		}
	}
	u.refBonds = buildArena(len(top.Atoms), top.Bonds)
}

// populate replicates the reference system once per copy. Each replica gets
// a single random offset so its molecule keeps its shape while replicas
// disperse through the cell; bond targets shift by the replica's index base.
func (u *Universe) populate() error {
	refN := len(u.RefAtoms)
	u.Atoms = make([]Atom, refN*u.Copies)

	for c := 0; c < u.Copies; c++ {
		dir, err := vec3.Marsaglia(u.rng)
		if err != nil {
			return err
		}
		offset := vec3.Scale(dir, u.rng.Float64()*u.Size)

		for i, ref := range u.RefAtoms {
			dup := &u.Atoms[c*refN+i]
			*dup = ref
			dup.Pos = vec3.Add(ref.Pos, offset)
		}
	}

	u.bonds = u.refBonds.replicate(u.Copies, refN)
	return nil
}

func (u *Universe) cacheElementData() error {
	u.masses = make([]float64, len(u.Atoms))
	u.symbols = make([]string, len(u.Atoms))
	u.posBuf = make([]vec3.Vec, len(u.Atoms))
	for i, a := range u.Atoms {
		m, ok := model.Mass(a.Element)
		if !ok || m <= 0 {
			return fmt.Errorf("%w: atom %d element %d", ErrZeroMass, i, a.Element)
		}
		u.masses[i] = m
		u.symbols[i] = model.Symbol(a.Element)
	}
	return nil
}

// setVelocities assigns every working atom a fixed Maxwell-consistent speed
// sqrt(3 k_B T / M) in an independent random direction. This is a
// simplified thermalization, not a full Maxwell-Boltzmann speed
// distribution.
func (u *Universe) setVelocities(molecularMass float64) error {
	if molecularMass <= 0 {
		return fmt.Errorf("%w: molecular mass %v kg", ErrZeroMass, molecularMass)
	}
	speed := math.Sqrt(3 * Boltzmann * u.cfg.Temperature / molecularMass)

	for i := range u.Atoms {
		dir, err := vec3.Marsaglia(u.rng)
		if err != nil {
			return err
		}
		u.Atoms[i].Vel = vec3.Scale(dir, speed)
	}
	return nil
}

// wrapCoord folds one coordinate into [0, size) by floor-modulo.
func wrapCoord(x, size float64) float64 {
	x -= size * math.Floor(x/size)
	if x >= size {
		x -= size
	}
	return x
}

// enforcePBC wraps atom i into the cell. Must run after every position
// update and before any minimum-image evaluation.
func (u *Universe) enforcePBC(i int) error {
	a := &u.Atoms[i]
	if !a.Pos.IsFinite() {
		return fmt.Errorf("%w: atom %d position", ErrNotFinite, i)
	}
	a.Pos.X = wrapCoord(a.Pos.X, u.Size)
	a.Pos.Y = wrapCoord(a.Pos.Y, u.Size)
	a.Pos.Z = wrapCoord(a.Pos.Z, u.Size)
	return nil
}

// BondsOf exposes atom i's adjacency records.
func (u *Universe) BondsOf(i int) []BondRec {
	return u.bonds.of(i)
}

// Mode reports the configured force-evaluation mode.
func (u *Universe) Mode() ForceMode {
	return u.cfg.Mode
}

// OpenTrajectory attaches a trajectory file the universe owns; Close
// releases it along every exit path.
func (u *Universe) OpenTrajectory(path string) error {
	w, err := trajectory.Create(path)
	if err != nil {
		return err
	}
	u.traj = w
	return nil
}

// StreamTrajectory attaches an unowned output stream for frame emission.
func (u *Universe) StreamTrajectory(w io.Writer) {
	u.traj = trajectory.NewWriter(w)
}

// WriteFrame emits the current positions to the attached trajectory
// stream, if any.
func (u *Universe) WriteFrame() error {
	if u.traj == nil {
		return nil
	}
	for i := range u.Atoms {
		u.posBuf[i] = u.Atoms[i].Pos
	}
	return u.traj.WriteFrame(u.Iterations, u.symbols, u.posBuf)
}

// Close flushes and releases the trajectory stream if one is attached.
// Frames already flushed remain valid even when a run fails mid-step.
func (u *Universe) Close() error {
	if u.traj == nil {
		return nil
	}
	err := u.traj.Close()
	u.traj = nil
	return err
}
