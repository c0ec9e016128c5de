package experiment

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/san-kum/autodrive/internal/automation"
	"github.com/san-kum/autodrive/internal/integrators"
	"github.com/san-kum/autodrive/internal/metrics"
)

// Registry resolves routine and metric names for the command line.
type Registry struct {
	routines map[string]func() *automation.Routine
	metrics  map[string]func() metrics.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		routines: make(map[string]func() *automation.Routine),
		metrics:  make(map[string]func() metrics.Metric),
	}

	for _, name := range automation.ListPresets() {
		name := name
		r.routines[name] = func() *automation.Routine { return automation.GetPreset(name) }
	}

	r.metrics["control_effort"] = func() metrics.Metric { return metrics.NewControlEffort() }
	r.metrics["energy"] = func() metrics.Metric { return metrics.NewEnergy() }
	r.metrics["peak_error"] = func() metrics.Metric { return metrics.NewPeakError() }
	r.metrics["stability"] = func() metrics.Metric { return metrics.NewStability(2) }
	r.metrics["oscillation"] = func() metrics.Metric { return metrics.NewOscillation() }
	r.metrics["ticks"] = func() metrics.Metric { return metrics.NewTicks() }

	return r
}

// RegisterRoutine adds or replaces a named routine.
func (r *Registry) RegisterRoutine(routine *automation.Routine) {
	saved := *routine
	saved.Steps = append([]automation.Step(nil), routine.Steps...)
	r.routines[routine.Name] = func() *automation.Routine {
		c := saved
		c.Steps = append([]automation.Step(nil), saved.Steps...)
		return &c
	}
}

// GetRoutine returns a fresh copy of a registered routine. A name ending in
// .yaml or .yml is loaded from disk instead.
func (r *Registry) GetRoutine(name string) (*automation.Routine, error) {
	if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
		return automation.LoadRoutine(name)
	}
	fn, ok := r.routines[name]
	if !ok {
		return nil, errors.Errorf("unknown routine: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListRoutines() []string {
	return sortedKeys(r.routines)
}

func (r *Registry) GetMetric(name string) (metrics.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, errors.Errorf("unknown metric: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListMetrics() []string {
	return sortedKeys(r.metrics)
}

// ListIntegrators names the integrators the simulator accepts.
func (r *Registry) ListIntegrators() []string {
	return integrators.List()
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
