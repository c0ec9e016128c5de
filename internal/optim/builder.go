package optim

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/san-kum/autodrive/internal/automation"
	"github.com/san-kum/autodrive/internal/config"
	"github.com/san-kum/autodrive/internal/control"
	"github.com/san-kum/autodrive/internal/experiment"
)

// PIDBuilder returns a buildExperiment func for Search that runs routine with
// the named controller's gains ("gyroscope" or "ultrasonic") overridden by
// the grid point.
func PIDBuilder(cfg *config.Config, routine *automation.Routine, controller string, logger *zap.SugaredLogger) (func(map[string]float64) (*experiment.Experiment, error), error) {
	if _, err := pidOf(cfg, controller); err != nil {
		return nil, err
	}
	return func(params map[string]float64) (*experiment.Experiment, error) {
		c := *cfg
		pid, _ := pidOf(&c, controller)
		for name, v := range params {
			if err := pid.SetParam(name, v); err != nil {
				return nil, errors.Wrap(err, "optim")
			}
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		exp := experiment.New(&c, logger)
		if err := exp.Setup(routine); err != nil {
			return nil, err
		}
		return exp, nil
	}, nil
}

func pidOf(cfg *config.Config, controller string) (*control.PIDConfig, error) {
	switch controller {
	case "gyroscope":
		return &cfg.Gyroscope.PID, nil
	case "ultrasonic":
		return &cfg.Ultrasonic.PID, nil
	}
	return nil, errors.Errorf("optim: unknown controller %q", controller)
}
