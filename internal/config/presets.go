package config

import (
	"sort"

	"github.com/san-kum/autodrive/internal/sim"
)

// Preset is a named starting position on the default field.
type Preset struct {
	Description string
	Start       sim.Start
}

var Presets = map[string]Preset{
	"wall": {
		Description: "parallel to the beacon wall, 13in in from the west wall",
		Start:       sim.Start{X: 13, Y: 130, Heading: 0},
	},
	"beacon-red": {
		Description: "angled toward the beacon wall from the red side",
		Start:       sim.Start{X: 12, Y: 96, Heading: 45},
	},
	"beacon-blue": {
		Description: "angled toward the beacon wall from the blue side",
		Start:       sim.Start{X: 132, Y: 96, Heading: 135},
	},
	"corner": {
		Description: "south-west corner facing east",
		Start:       sim.Start{X: 12, Y: 12, Heading: 0},
	},
	"center": {
		Description: "middle of the field facing north",
		Start:       sim.Start{X: 72, Y: 72, Heading: 90},
	},
}

// GetPreset returns the default config started at the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Sim.Start = p.Start
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
