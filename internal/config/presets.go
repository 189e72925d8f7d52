package config

import (
	"sort"

	"github.com/san-kum/gravsim/internal/physics"
)

var Presets = map[string]*Config{
	"binary": {
		Particles: 2, Steps: 2000, Dt: 0.01, OutputFreq: 100, Workers: 1,
		Init: InitGenerate, Diagnostics: true, Snapshots: true, ValidateState: true,
		Gravity: physics.G, Generator: physics.DefaultGenerator(),
	},
	"chain": {
		Particles: 100, Steps: 500, Dt: 0.01, OutputFreq: 50, Workers: 4,
		Init: InitGenerate, Diagnostics: true, ValidateState: true,
		Gravity: physics.G, Generator: physics.DefaultGenerator(),
	},
	"bench": {
		Particles: 2000, Steps: 100, Dt: 0.01, OutputFreq: 100, Workers: 8,
		Init: InitGenerate, Gravity: physics.G, Generator: physics.DefaultGenerator(),
	},
	"ingest": {
		Particles: 4, Steps: 1000, Dt: 0.01, OutputFreq: 100, Workers: 1,
		Init: InitIngest, Input: "-", Diagnostics: true, Snapshots: true, ValidateState: true,
		Gravity: physics.G,
	},
}

// GetPreset returns a copy of the named preset, or nil.
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
	sort.Strings(names)
	return names
}
