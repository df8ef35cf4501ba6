// Package model maps element codes to the physical constants the engine
// needs: atomic mass and display symbol. Codes follow atomic numbers.
package model

// Element identifies an atomic species.
type Element uint8

const (
	Hydrogen   Element = 1
	Carbon     Element = 6
	Nitrogen   Element = 7
	Oxygen     Element = 8
	Fluorine   Element = 9
	Sodium     Element = 11
	Phosphorus Element = 15
	Sulfur     Element = 16
	Chlorine   Element = 17
)

// Atomic mass unit in kilograms.
const amu = 1.66053906660e-27

type properties struct {
	symbol string
	mass   float64 // kg
}

var table = map[Element]properties{
	Hydrogen:   {"H", 1.00794 * amu},
	Carbon:     {"C", 12.0107 * amu},
	Nitrogen:   {"N", 14.0067 * amu},
	Oxygen:     {"O", 15.9994 * amu},
	Fluorine:   {"F", 18.9984 * amu},
	Sodium:     {"Na", 22.9898 * amu},
	Phosphorus: {"P", 30.9738 * amu},
	Sulfur:     {"S", 32.065 * amu},
	Chlorine:   {"Cl", 35.453 * amu},
}

// Mass returns the atomic mass in kilograms. The second return is false for
// unknown element codes.
func Mass(e Element) (float64, bool) {
	p, ok := table[e]
	return p.mass, ok
}

// Symbol returns the element's display symbol, or "?" for unknown codes.
func Symbol(e Element) string {
	p, ok := table[e]
	if !ok {
		return "?"
	}
	return p.symbol
}

// Known reports whether the element code has an entry in the table.
func Known(e Element) bool {
	_, ok := table[e]
	return ok
}
