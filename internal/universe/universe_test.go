package universe

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/moldyn/internal/topology"
	"github.com/san-kum/moldyn/internal/vec3"
)

const diatomicTop = `hydrogen chloride
test author
one H-Cl molecule
2 1
0.0 0.0 0.0 1 0.0 6.06e-22 2.6e-10
1.27 0.0 0.0 17 0.0 1.74e-21 3.4e-10
1 2 480.0
`

const chainTop = `water-ish chain
test author
three atoms, two bonds
3 2
0.0 0.0 0.0 1 1.6e-19 6.06e-22 2.6e-10
0.96 0.0 0.0 8 -3.2e-19 1.08e-21 3.2e-10
1.92 0.0 0.0 1 1.6e-19 6.06e-22 2.6e-10
1 2 550.0
2 3 550.0
`

func testConfig() Config {
	return Config{
		Temperature: 300,
		Pressure:    101325,
		Timestep:    1e-17,
		MaxTime:     1e-15,
		Copies:      1,
		FrameSkip:   0,
		Mode:        ForceAnalytic,
		Seed:        42,
	}
}

func mustUniverse(t *testing.T, topText string, cfg Config) *Universe {
	t.Helper()
	top, err := topology.Parse(strings.NewReader(topText))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	u, err := New(top, cfg)
	if err != nil {
		t.Fatalf("universe init failed: %v", err)
	}
	return u
}

func TestConcreteDiatomicScenario(t *testing.T) {
	u := mustUniverse(t, diatomicTop, testConfig())

	// Cell edge from the ideal-gas relation at 300 K, 1 atm, one copy.
	expected := math.Cbrt(Boltzmann * 1 * 300 / 101325)
	if math.Abs(u.Size-expected)/expected > 1e-12 {
		t.Errorf("cell edge %e, expected %e", u.Size, expected)
	}

	if len(u.Atoms) != 2 {
		t.Fatalf("expected 2 working atoms, got %d", len(u.Atoms))
	}

	b0 := u.BondsOf(0)
	b1 := u.BondsOf(1)
	if len(b0) != 1 || len(b1) != 1 {
		t.Fatalf("expected one bond per atom, got %d and %d", len(b0), len(b1))
	}
	if b0[0].Target != 1 || b1[0].Target != 0 {
		t.Errorf("bond targets not symmetric: %+v %+v", b0[0], b1[0])
	}
	if b0[0].Strength != 480.0 || b1[0].Strength != 480.0 {
		t.Errorf("bond strengths not shared: %v %v", b0[0].Strength, b1[0].Strength)
	}
}

func TestReplicationInvariant(t *testing.T) {
	cfg := testConfig()
	cfg.Copies = 4
	u := mustUniverse(t, chainTop, cfg)

	refN := len(u.RefAtoms)
	if refN != 3 {
		t.Fatalf("expected 3 reference atoms, got %d", refN)
	}
	if len(u.Atoms) != 4*refN {
		t.Fatalf("expected %d working atoms, got %d", 4*refN, len(u.Atoms))
	}

	for i := range u.Atoms {
		replica := i / refN
		lo, hi := replica*refN, (replica+1)*refN

		for _, rec := range u.BondsOf(i) {
			if rec.Target < lo || rec.Target >= hi {
				t.Errorf("atom %d bond target %d escapes replica range [%d, %d)", i, rec.Target, lo, hi)
			}
		}

		// Static fields copy verbatim from the reference.
		ref := u.RefAtoms[i%refN]
		a := u.Atoms[i]
		if a.Element != ref.Element || a.Charge != ref.Charge ||
			a.Epsilon != ref.Epsilon || a.Sigma != ref.Sigma {
			t.Errorf("atom %d static fields differ from reference", i)
		}
	}
}

func TestBondSymmetry(t *testing.T) {
	cfg := testConfig()
	cfg.Copies = 3
	u := mustUniverse(t, chainTop, cfg)

	for i := range u.Atoms {
		for _, rec := range u.BondsOf(i) {
			found := false
			for _, back := range u.BondsOf(rec.Target) {
				if back.Target == i && back.Strength == rec.Strength {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("bond %d→%d has no symmetric partner", i, rec.Target)
			}
		}
	}
}

func TestWrapCoord(t *testing.T) {
	size := 10.0
	tests := []struct {
		in, out float64
	}{
		{0, 0},
		{3.5, 3.5},
		{10, 0},
		{12.5, 2.5},
		{-0.5, 9.5},
		{-20, 0},
		{25, 5},
	}

	for _, tt := range tests {
		got := wrapCoord(tt.in, size)
		if math.Abs(got-tt.out) > 1e-12 {
			t.Errorf("wrapCoord(%v): expected %v, got %v", tt.in, tt.out, got)
		}
		if got < 0 || got >= size {
			t.Errorf("wrapCoord(%v) = %v outside [0, %v)", tt.in, got, size)
		}
	}
}

func TestWrapIdempotence(t *testing.T) {
	u := mustUniverse(t, diatomicTop, testConfig())

	u.Atoms[0].Pos = vec3.Vec{X: -1.3 * u.Size, Y: 2.7 * u.Size, Z: u.Size}
	u.Atoms[1].Pos = vec3.Vec{X: u.Size / 3, Y: -1e-12, Z: 0}

	for i := range u.Atoms {
		if err := u.enforcePBC(i); err != nil {
			t.Fatalf("wrap failed: %v", err)
		}
	}

	once := []vec3.Vec{u.Atoms[0].Pos, u.Atoms[1].Pos}
	for i := range u.Atoms {
		p := u.Atoms[i].Pos
		if p.X < 0 || p.X >= u.Size || p.Y < 0 || p.Y >= u.Size || p.Z < 0 || p.Z >= u.Size {
			t.Errorf("atom %d not wrapped into cell: %+v", i, p)
		}
	}

	for i := range u.Atoms {
		if err := u.enforcePBC(i); err != nil {
			t.Fatalf("second wrap failed: %v", err)
		}
		if u.Atoms[i].Pos != once[i] {
			t.Errorf("wrap not idempotent for atom %d: %+v vs %+v", i, u.Atoms[i].Pos, once[i])
		}
	}
}

func TestWrapRejectsNonFinite(t *testing.T) {
	u := mustUniverse(t, diatomicTop, testConfig())
	u.Atoms[0].Pos.X = math.NaN()

	err := u.enforcePBC(0)
	if !errors.Is(err, ErrNotFinite) {
		t.Errorf("expected ErrNotFinite, got %v", err)
	}
}

func TestInitialVelocityMagnitude(t *testing.T) {
	cfg := testConfig()
	cfg.Copies = 5
	u := mustUniverse(t, diatomicTop, cfg)

	top, _ := topology.Parse(strings.NewReader(diatomicTop))
	expected := math.Sqrt(3 * Boltzmann * cfg.Temperature / top.MolecularMass())

	for i := range u.Atoms {
		speed := u.Atoms[i].Vel.Mag()
		if math.Abs(speed-expected)/expected > 1e-12 {
			t.Errorf("atom %d speed %e, expected %e", i, speed, expected)
		}
	}
}

// ljPair builds a charge-free, bond-free two-atom system at separation r
// along x, with identical Lennard-Jones parameters.
func ljPair(t *testing.T, r float64) *Universe {
	t.Helper()
	const top = `argon pair
test author
two neutral LJ atoms
2 0
0.0 0.0 0.0 8 0.0 1.65e-21 3.4e-10
2.0 0.0 0.0 8 0.0 1.65e-21 3.4e-10
`
	u := mustUniverse(t, top, testConfig())
	u.Atoms[0].Pos = vec3.Vec{X: u.Size / 2, Y: u.Size / 2, Z: u.Size / 2}
	u.Atoms[1].Pos = vec3.Vec{X: u.Size/2 + r, Y: u.Size / 2, Z: u.Size / 2}
	return u
}

func TestForceModeAgreement(t *testing.T) {
	u := ljPair(t, 1.2*3.4e-10)

	for i := range u.Atoms {
		analytic, err := u.forceAnalytic(i)
		if err != nil {
			t.Fatalf("analytic force failed: %v", err)
		}
		numerical, err := u.forceNumerical(i)
		if err != nil {
			t.Fatalf("numerical force failed: %v", err)
		}

		scale := analytic.Mag()
		if scale == 0 {
			t.Fatal("expected non-zero force at 1.2 sigma")
		}
		if vec3.Sub(analytic, numerical).Mag()/scale > 1e-3 {
			t.Errorf("atom %d force modes disagree: analytic %+v numerical %+v", i, analytic, numerical)
		}
	}

	// Newton's third law for the pair.
	f0, _ := u.forceAnalytic(0)
	f1, _ := u.forceAnalytic(1)
	if vec3.Add(f0, f1).Mag() > 1e-3*f0.Mag() {
		t.Errorf("pair forces not opposite: %+v %+v", f0, f1)
	}
}

func TestLJForceDirection(t *testing.T) {
	// Inside the well minimum (r < 2^(1/6) sigma) the pair repels.
	u := ljPair(t, 1.0*3.4e-10)
	f0, err := u.forceAnalytic(0)
	if err != nil {
		t.Fatalf("force failed: %v", err)
	}
	if f0.X >= 0 {
		t.Errorf("expected repulsion (negative x force on atom 0), got %+v", f0)
	}

	// Beyond the minimum the pair attracts.
	u = ljPair(t, 1.5*3.4e-10)
	f0, err = u.forceAnalytic(0)
	if err != nil {
		t.Fatalf("force failed: %v", err)
	}
	if f0.X <= 0 {
		t.Errorf("expected attraction (positive x force on atom 0), got %+v", f0)
	}
}

func TestDegenerateGeometry(t *testing.T) {
	u := ljPair(t, 0)

	if _, err := u.Potential(0); !errors.Is(err, ErrDegenerateGeometry) {
		t.Errorf("expected ErrDegenerateGeometry from potential, got %v", err)
	}

	err := u.Step()
	if !errors.Is(err, ErrDegenerateGeometry) {
		t.Errorf("expected ErrDegenerateGeometry from step, got %v", err)
	}
	var simErr *SimulationError
	if !errors.As(err, &simErr) {
		t.Errorf("step failure should carry simulation context, got %T", err)
	}
}

// harmonicPair builds a closed two-body system governed purely by its
// harmonic bond: no charge, no LJ well. The bond rest length is the sigma
// mix, 2e-10 m.
func harmonicPair(t *testing.T, stretch float64) *Universe {
	t.Helper()
	const top = `harmonic diatomic
test author
pure harmonic bond
2 1
0.0 0.0 0.0 1 0.0 0.0 2.0e-10
2.0 0.0 0.0 1 0.0 0.0 2.0e-10
1 2 500.0
`
	u := mustUniverse(t, top, testConfig())
	u.Atoms[0].Pos = vec3.Vec{X: u.Size / 2, Y: u.Size / 2, Z: u.Size / 2}
	u.Atoms[1].Pos = vec3.Vec{X: u.Size/2 + 2.0e-10 + stretch, Y: u.Size / 2, Z: u.Size / 2}
	for i := range u.Atoms {
		u.Atoms[i].Vel = vec3.Vec{}
		u.Atoms[i].Acc = vec3.Vec{}
		u.Atoms[i].Frc = vec3.Vec{}
	}
	return u
}

func TestVerletEnergyBounded(t *testing.T) {
	stretch := 0.2e-10
	u := harmonicPair(t, stretch)

	// Starting at rest, the per-atom-summed total energy is
	// E(t) = KE + 2U = U0 + U(t), so it must stay inside [U0, 2U0].
	u0 := 0.5 * 500.0 * stretch * stretch

	e0, err := u.TotalEnergy()
	if err != nil {
		t.Fatalf("energy failed: %v", err)
	}
	if math.Abs(e0-2*u0)/u0 > 1e-6 {
		t.Fatalf("initial doubled energy %e, expected %e", e0, 2*u0)
	}

	// ~2.5 vibration periods at dt = 1e-17 s.
	for step := 0; step < 2000; step++ {
		if err := u.Step(); err != nil {
			t.Fatalf("step %d failed: %v", step, err)
		}
		if step%10 != 0 {
			continue
		}
		e, err := u.TotalEnergy()
		if err != nil {
			t.Fatalf("energy failed at step %d: %v", step, err)
		}
		if e < 0.9*u0 || e > 2.1*u0 {
			t.Fatalf("energy %e escaped [%e, %e] at step %d", e, u0, 2*u0, step)
		}
	}
}

func TestStepAdvancesClock(t *testing.T) {
	u := mustUniverse(t, diatomicTop, testConfig())

	if err := u.Step(); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	if u.Iterations != 1 {
		t.Errorf("expected iteration 1, got %d", u.Iterations)
	}
	if math.Abs(u.Time-1e-17) > 1e-30 {
		t.Errorf("expected time 1e-17, got %e", u.Time)
	}
}

func TestPotentialDoubleCounting(t *testing.T) {
	u := ljPair(t, 1.5*3.4e-10)

	p0, err := u.Potential(0)
	if err != nil {
		t.Fatalf("potential failed: %v", err)
	}
	total, err := u.PotentialEnergy()
	if err != nil {
		t.Fatalf("total potential failed: %v", err)
	}

	// Each pairwise term appears once per participating atom.
	if math.Abs(total-2*p0) > math.Abs(total)*1e-12 {
		t.Errorf("expected doubled pair energy %e, got %e", 2*p0, total)
	}
}

func TestConfigValidation(t *testing.T) {
	top, err := topology.Parse(strings.NewReader(diatomicTop))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero temperature", func(c *Config) { c.Temperature = 0 }},
		{"negative pressure", func(c *Config) { c.Pressure = -1 }},
		{"zero timestep", func(c *Config) { c.Timestep = 0 }},
		{"negative max time", func(c *Config) { c.MaxTime = -1 }},
		{"zero copies", func(c *Config) { c.Copies = 0 }},
		{"negative frameskip", func(c *Config) { c.FrameSkip = -1 }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			if _, err := New(top, cfg); !errors.Is(err, ErrBadConfig) {
				t.Errorf("expected ErrBadConfig, got %v", err)
			}
		})
	}
}

func TestParseForceMode(t *testing.T) {
	if m, err := ParseForceMode("analytic"); err != nil || m != ForceAnalytic {
		t.Errorf("analytic: got %v, %v", m, err)
	}
	if m, err := ParseForceMode("numerical"); err != nil || m != ForceNumerical {
		t.Errorf("numerical: got %v, %v", m, err)
	}
	if _, err := ParseForceMode("quantum"); !errors.Is(err, ErrBadConfig) {
		t.Errorf("expected ErrBadConfig, got %v", err)
	}
}
