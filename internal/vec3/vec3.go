// Package vec3 provides the 3-D vector primitives used throughout the
// simulation engine, all in SI units.
package vec3

import (
	"errors"
	"math"
	"math/rand"
)

// ErrRejectionExhausted indicates the Marsaglia rejection loop failed to
// accept a sample within its attempt budget, which only happens with a
// pathological random source.
var ErrRejectionExhausted = errors.New("vec3: marsaglia rejection sampling exhausted")

const marsagliaMaxTries = 10000

type Vec struct {
	X, Y, Z float64
}

func Add(a, b Vec) Vec {
	return Vec{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

func Sub(a, b Vec) Vec {
	return Vec{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

func Scale(a Vec, s float64) Vec {
	return Vec{a.X * s, a.Y * s, a.Z * s}
}

func (v Vec) Mag() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

func (v Vec) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// Marsaglia draws a unit vector uniformly distributed over the sphere using
// Marsaglia's rejection method: sample u, v uniform in [-1, 1], reject while
// u²+v² ≥ 1, then project with s = sqrt(1 − u² − v²).
func Marsaglia(rng *rand.Rand) (Vec, error) {
	for try := 0; try < marsagliaMaxTries; try++ {
		u := 2*rng.Float64() - 1
		v := 2*rng.Float64() - 1
		d := u*u + v*v
		if d >= 1 {
			continue
		}
		s := math.Sqrt(1 - d)
		return Vec{2 * u * s, 2 * v * s, 1 - 2*d}, nil
	}
	return Vec{}, ErrRejectionExhausted
}
