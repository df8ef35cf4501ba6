package config

// Presets are named starting points for common runs. Values not set by a
// preset keep their defaults.
var Presets = map[string]*Config{
	"quick": {
		Temperature: 300, Pressure: 101325, Dt: 1e-15, Duration: 1e-12,
		Copies: 10, FrameSkip: 5, Mode: "analytic",
	},
	"production": {
		Temperature: 300, Pressure: 101325, Dt: 5e-16, Duration: 1e-10,
		Copies: 200, FrameSkip: 50, Mode: "analytic",
	},
	"cryo": {
		Temperature: 77, Pressure: 101325, Dt: 1e-15, Duration: 1e-11,
		Copies: 50, FrameSkip: 10, Mode: "analytic", Minimize: true,
	},
	"force-check": {
		// Numerical differentiation is O(N) potential evaluations per atom
		// per axis; keep the system tiny.
		Temperature: 300, Pressure: 101325, Dt: 1e-15, Duration: 1e-13,
		Copies: 2, FrameSkip: 1, Mode: "numerical",
	},
}

func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *p
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
