package sensor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sweeney/taskcore/internal/logic"
)

// DefaultIIODevice is where the dht11 overlay exposes its channels.
const DefaultIIODevice = "/sys/bus/iio/devices/iio:device0"

const (
	tempFile     = "in_temp_input"
	humidityFile = "in_humidityrelative_input"
)

// IIO reads a DHT11/DHT22 through the Linux industrial I/O driver.
// The driver reports milli-degrees and milli-percent; a failed bus
// transaction surfaces as a read error (usually EIO or ETIMEDOUT).
type IIO struct {
	dir string
}

// NewIIO creates a sampler for the IIO device directory dir.
func NewIIO(dir string) (*IIO, error) {
	if dir == "" {
		dir = DefaultIIODevice
	}
	if _, err := os.Stat(filepath.Join(dir, tempFile)); err != nil {
		return nil, fmt.Errorf("sensor: open iio device %s: %w", dir, err)
	}
	return &IIO{dir: dir}, nil
}

// Sample implements Sampler.
func (s *IIO) Sample(ctx context.Context) (logic.Reading, error) {
	if err := ctx.Err(); err != nil {
		return logic.Reading{}, err
	}
	t, err := s.readMilli(tempFile)
	if err != nil {
		return logic.Reading{}, err
	}
	h, err := s.readMilli(humidityFile)
	if err != nil {
		return logic.Reading{}, err
	}
	return logic.Reading{Temperature: t, Humidity: h}, nil
}

func (s *IIO) readMilli(name string) (float64, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return 0, fmt.Errorf("sensor: read %s: %w", name, err)
	}
	v, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q", ErrInvalidReading, name, strings.TrimSpace(string(raw)))
	}
	return float64(v) / 1000, nil
}
