package sensor

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"github.com/sweeney/taskcore/internal/logic"
)

// SimConfig configures a simulated sensor.
type SimConfig struct {
	Seed  int64
	Start logic.Reading
	Step  float64 // largest change per sample in either field

	// NaNEvery makes every Nth sample fail the way a DHT read does.
	// Zero never fails.
	NaNEvery int
}

// Sim is a deterministic random-walk climate sensor.
type Sim struct {
	mu    sync.Mutex
	cfg   SimConfig
	rnd   *rand.Rand
	cur   logic.Reading
	count int
}

// NewSim creates a simulated sensor.
func NewSim(cfg SimConfig) *Sim {
	if cfg.Step <= 0 {
		cfg.Step = 0.2
	}
	if cfg.Start == (logic.Reading{}) {
		cfg.Start = logic.Reading{Temperature: 21, Humidity: 45}
	}
	return &Sim{cfg: cfg, rnd: rand.New(rand.NewSource(cfg.Seed)), cur: cfg.Start}
}

// Sample implements Sampler.
func (s *Sim) Sample(ctx context.Context) (logic.Reading, error) {
	if err := ctx.Err(); err != nil {
		return logic.Reading{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.count++
	if s.cfg.NaNEvery > 0 && s.count%s.cfg.NaNEvery == 0 {
		return logic.Reading{Temperature: math.NaN(), Humidity: math.NaN()}, nil
	}

	s.cur.Temperature += (s.rnd.Float64()*2 - 1) * s.cfg.Step
	s.cur.Humidity = clamp(s.cur.Humidity+(s.rnd.Float64()*2-1)*s.cfg.Step, 0, 100)
	return s.cur, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
