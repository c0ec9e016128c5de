package automation

import (
	"sort"
	"time"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// Presets are the built-in routines, laid out for the default field.
var Presets = map[string]*Routine{
	"beacon-red": {
		Name:        "beacon-red",
		Description: "square up on the beacon wall and claim both red beacons",
		Preset:      "beacon-red",
		Steps: []Step{
			{Action: ActionDrive, Power: 0.5, Inches: 48},
			{Action: ActionSleep, Duration: ms(500)},
			{Action: ActionRotate, Degrees: -45},
			{Action: ActionParallelize},
			{Action: ActionSleep, Duration: ms(300)},
			{Action: ActionResetOrientation},
			{Action: ActionDriveUntilLine, Power: 0.25, Side: "leading"},
			{Action: ActionSleep, Duration: ms(150)},
			{Action: ActionPushBeacon, Color: "red", Power: 0.2, Approach: 5},
			{Action: ActionDriveUntilLine, Power: 0.25, Side: "leading", Min: 35, Max: 55},
			{Action: ActionSleep, Duration: ms(500)},
			{Action: ActionPushBeacon, Color: "red", Power: 0.2, Approach: 5},
			{Action: ActionRotate, Degrees: -40},
			{Action: ActionDrive, Power: 0.5, Inches: 30},
		},
	},
	"beacon-red-corner": {
		Name:        "beacon-red-corner",
		Description: "beacon-red, then back into the corner",
		Preset:      "beacon-red",
	},
	"beacon-red-base": {
		Name:        "beacon-red-base",
		Description: "beacon-red, then park on the base wiggling to settle",
		Preset:      "beacon-red",
	},
	"disrupter-blue": {
		Name:        "disrupter-blue",
		Description: "leave the corner, wait out the opponent, then cross the field",
		Preset:      "corner",
		Steps: []Step{
			{Action: ActionDrive, Power: 0.5, Inches: 5},
			{Action: ActionRotate, Degrees: 45},
			{Action: ActionDrive, Power: 0.5, Inches: 8},
			{Action: ActionRotate, Degrees: 100},
			{Action: ActionSleep, Duration: ms(1000)},
			{Action: ActionDrive, Power: -1, Inches: 10},
			{Action: ActionEncoderRotate, Power: 0.3, Inches: 20, Direction: "right"},
			{Action: ActionResetOrientation},
			{Action: ActionDrive, Power: 1, Inches: 60},
			{Action: ActionSleep, Duration: ms(1000)},
			{Action: ActionDrive, Power: -1, Inches: 20},
		},
	},
	"square": {
		Name:        "square",
		Description: "drive a 24in square from the middle of the field",
		Preset:      "center",
		Steps: []Step{
			{Action: ActionDrive, Power: 0.5, Inches: 24},
			{Action: ActionRotate, Degrees: 90},
			{Action: ActionDrive, Power: 0.5, Inches: 24},
			{Action: ActionRotate, Degrees: 90},
			{Action: ActionDrive, Power: 0.5, Inches: 24},
			{Action: ActionRotate, Degrees: 90},
			{Action: ActionDrive, Power: 0.5, Inches: 24},
			{Action: ActionRotate, Degrees: 90},
		},
	},
}

func init() {
	base := Presets["beacon-red"].Steps

	corner := Presets["beacon-red-corner"]
	corner.Steps = append(append([]Step(nil), base...),
		Step{Action: ActionRotate, Degrees: 90},
		Step{Action: ActionDrive, Power: -0.2, Inches: 30},
	)

	park := Presets["beacon-red-base"]
	park.Steps = append(append([]Step(nil), base...),
		Step{Action: ActionRotate, Degrees: -100},
		Step{Action: ActionDrive, Power: 0.5, Inches: 30},
		Step{Action: ActionEncoderRotate, Power: 1, Inches: 20, Direction: "left", Repeat: 3},
		Step{Action: ActionDrive, Power: 0.5, Inches: 20},
	)
}

// GetPreset returns a copy of the named routine, or nil.
func GetPreset(name string) *Routine {
	r, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *r
	c.Steps = append([]Step(nil), r.Steps...)
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
