// Package integrators advances a dynamo.System by fixed steps.
package integrators

import (
	"fmt"

	"github.com/san-kum/autodrive/internal/dynamo"
)

// New returns the integrator registered under name: "euler" or "rk4".
func New(name string) (dynamo.Integrator, error) {
	switch name {
	case "euler":
		return NewEuler(), nil
	case "rk4", "":
		return NewRK4(), nil
	default:
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
}

func List() []string {
	return []string{"euler", "rk4"}
}
