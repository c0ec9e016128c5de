package drive

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/san-kum/autodrive/internal/hardware"
)

// ErrEncoderReset is returned when encoders still read non-zero after
// repeated resets.
var ErrEncoderReset = errors.New("drive: encoders did not reset")

const (
	encoderResetAttempts = 50
	encoderResetPoll     = time.Millisecond
)

// ResetEncoders resets every motor whose position is not zero until all of
// them read zero.
func ResetEncoders(ctx context.Context, pacer Pacer, motors ...hardware.Motor) error {
	for attempt := 1; ; attempt++ {
		for _, m := range motors {
			if m.Position() != 0 {
				m.ResetEncoder()
			}
		}
		if allZero(motors) {
			return nil
		}
		if attempt == encoderResetAttempts {
			return errors.Wrapf(ErrEncoderReset, "after %d attempts", attempt)
		}
		if err := pacer.Wait(ctx, encoderResetPoll); err != nil {
			return err
		}
	}
}

func allZero(motors []hardware.Motor) bool {
	for _, m := range motors {
		if m.Position() != 0 {
			return false
		}
	}
	return true
}
