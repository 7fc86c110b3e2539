// Package sensor provides climate samplers: the kernel dht11 IIO driver on
// hardware, a simulated random walk for development, and a scripted fake.
package sensor

import (
	"context"
	"errors"

	"github.com/sweeney/taskcore/internal/logic"
)

// ErrInvalidReading is returned when a sensor value cannot be parsed.
var ErrInvalidReading = errors.New("sensor: invalid reading")

// Sampler takes one climate reading. Implementations may block for the
// duration of a bus transaction.
type Sampler interface {
	Sample(ctx context.Context) (logic.Reading, error)
}
