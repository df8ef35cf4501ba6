// Package topology parses and validates the line-oriented .mol description
// of a reference molecular system.
//
// The wire format is:
//
//	line 1: system name
//	line 2: author name
//	line 3: free-text comment
//	line 4: <atomCount> <bondCount>
//	atomCount lines: <x> <y> <z> <element> <charge> <epsilon> <sigma>
//	bondCount lines: <atom1> <atom2> <strength>   (1-based indices)
//
// Positions are Angstrom on the wire and converted to metres on load. All
// other fields are read verbatim in SI units. Bond indices are converted to
// zero-based. Any malformed record is a fatal parse error; there is no
// partial recovery.
package topology

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/san-kum/moldyn/internal/model"
	"github.com/san-kum/moldyn/internal/vec3"
)

// MetresPerAngstrom scales wire positions into SI.
const MetresPerAngstrom = 1e-10

// ErrMalformed indicates a record that fails to parse into the expected
// field count/types, or a short read.
var ErrMalformed = errors.New("topology: malformed input")

// AtomSpec is one reference atom as loaded from the topology file.
type AtomSpec struct {
	Pos     vec3.Vec // metres
	Element model.Element
	Charge  float64 // C
	Epsilon float64 // J, Lennard-Jones well depth
	Sigma   float64 // m, Lennard-Jones radius
}

// Bond joins two reference atoms with a harmonic strength constant.
// Indices are zero-based after parsing.
type Bond struct {
	A, B     int
	Strength float64 // N/m
}

// Topology is a validated reference system definition.
type Topology struct {
	Name    string
	Author  string
	Comment string
	Atoms   []AtomSpec
	Bonds   []Bond
}

// Parse reads a complete topology from r.
func Parse(r io.Reader) (*Topology, error) {
	sc := bufio.NewScanner(r)
	line := 0

	next := func() (string, error) {
		for sc.Scan() {
			line++
			return sc.Text(), nil
		}
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("%w: unexpected end of input after line %d", ErrMalformed, line)
	}

	top := &Topology{}
	var err error
	if top.Name, err = next(); err != nil {
		return nil, err
	}
	if top.Author, err = next(); err != nil {
		return nil, err
	}
	if top.Comment, err = next(); err != nil {
		return nil, err
	}

	counts, err := next()
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(counts)
	if len(fields) != 2 {
		return nil, fmt.Errorf("%w: line %d: expected atom and bond counts", ErrMalformed, line)
	}
	atomCount, err := strconv.Atoi(fields[0])
	if err != nil || atomCount < 1 {
		return nil, fmt.Errorf("%w: line %d: bad atom count %q", ErrMalformed, line, fields[0])
	}
	bondCount, err := strconv.Atoi(fields[1])
	if err != nil || bondCount < 0 {
		return nil, fmt.Errorf("%w: line %d: bad bond count %q", ErrMalformed, line, fields[1])
	}

	top.Atoms = make([]AtomSpec, atomCount)
	for i := range top.Atoms {
		text, err := next()
		if err != nil {
			return nil, err
		}
		if err := parseAtom(text, &top.Atoms[i]); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}
	}

	top.Bonds = make([]Bond, bondCount)
	for i := range top.Bonds {
		text, err := next()
		if err != nil {
			return nil, err
		}
		if err := parseBond(text, atomCount, &top.Bonds[i]); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}
	}

	return top, nil
}

func parseAtom(text string, a *AtomSpec) error {
	fields := strings.Fields(text)
	if len(fields) != 7 {
		return fmt.Errorf("expected 7 atom fields, got %d", len(fields))
	}

	vals := make([]float64, 7)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return fmt.Errorf("field %d: %q is not a number", i+1, f)
		}
		vals[i] = v
	}

	code := int(vals[3])
	if code < 0 || code > 255 || float64(code) != vals[3] {
		return fmt.Errorf("element code %v out of range", vals[3])
	}
	element := model.Element(code)
	if !model.Known(element) {
		return fmt.Errorf("unknown element code %d", code)
	}
	if vals[5] < 0 {
		return fmt.Errorf("negative epsilon %v", vals[5])
	}
	if vals[6] <= 0 {
		return fmt.Errorf("non-positive sigma %v", vals[6])
	}

	a.Pos = vec3.Scale(vec3.Vec{X: vals[0], Y: vals[1], Z: vals[2]}, MetresPerAngstrom)
	a.Element = element
	a.Charge = vals[4]
	a.Epsilon = vals[5]
	a.Sigma = vals[6]
	return nil
}

func parseBond(text string, atomCount int, b *Bond) error {
	fields := strings.Fields(text)
	if len(fields) != 3 {
		return fmt.Errorf("expected 3 bond fields, got %d", len(fields))
	}

	first, err := strconv.Atoi(fields[0])
	if err != nil {
		return fmt.Errorf("bad atom index %q", fields[0])
	}
	second, err := strconv.Atoi(fields[1])
	if err != nil {
		return fmt.Errorf("bad atom index %q", fields[1])
	}
	strength, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return fmt.Errorf("bad bond strength %q", fields[2])
	}

	if first < 1 || first > atomCount || second < 1 || second > atomCount {
		return fmt.Errorf("bond indices %d-%d out of range [1, %d]", first, second, atomCount)
	}
	if first == second {
		return fmt.Errorf("atom %d bonded to itself", first)
	}
	if strength <= 0 {
		return fmt.Errorf("non-positive bond strength %v", strength)
	}

	b.A = first - 1
	b.B = second - 1
	b.Strength = strength
	return nil
}

// Degrees returns the per-atom bond degree, the counting pass used to size
// the engine's bond arena.
func (t *Topology) Degrees() []int {
	deg := make([]int, len(t.Atoms))
	for _, b := range t.Bonds {
		deg[b.A]++
		deg[b.B]++
	}
	return deg
}

// MolecularMass returns the summed atomic mass of the reference system in
// kilograms. Element codes are validated at parse time, so lookups here
// cannot miss.
func (t *Topology) MolecularMass() float64 {
	total := 0.0
	for _, a := range t.Atoms {
		m, _ := model.Mass(a.Element)
		total += m
	}
	return total
}
