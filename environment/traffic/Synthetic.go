package traffic

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// SyntheticConfig configures a Synthetic simulation
type SyntheticConfig struct {
	Edges        []string  // Incoming edges of the intersection
	ArrivalRates []float64 // Mean vehicle arrivals per tick on each edge

	// GreenEdges lists the edges which discharge vehicles under each
	// traffic light phase
	GreenEdges map[int][]string

	Discharge int // Vehicles leaving each green edge per tick
	Demand    int // Total vehicles generated before the simulation drains
}

// DefaultSyntheticConfig returns a configuration matching
// DefaultConfig, with heavier north-south demand
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Edges:        []string{"n2c", "s2c", "e2c", "w2c"},
		ArrivalRates: []float64{0.12, 0.12, 0.08, 0.08},
		GreenEdges: map[int][]string{
			0: {"n2c", "s2c"},
			2: {"e2c", "w2c"},
		},
		Discharge: 1,
		Demand:    400,
	}
}

// Validate checks a SyntheticConfig to ensure it is a valid
// configuration of a Synthetic simulation
func (c SyntheticConfig) Validate() error {
	if len(c.Edges) != len(c.ArrivalRates) {
		return fmt.Errorf("validate: invalid number of arrival rates"+
			"\n\twant(%v)\n\thave(%v)", len(c.Edges), len(c.ArrivalRates))
	}
	for i, rate := range c.ArrivalRates {
		if rate < 0 {
			return fmt.Errorf("validate: arrival rate of edge %v must be "+
				"non-negative \n\thave(%v)", c.Edges[i], rate)
		}
	}
	if c.Discharge < 0 || c.Demand < 0 {
		return fmt.Errorf("validate: discharge and demand must be " +
			"non-negative")
	}
	return nil
}

// vehicle is a single queued vehicle
type vehicle struct {
	id      string
	waiting float64
}

// Synthetic is a deterministic Surface simulating queues at a single
// intersection. Every tick, vehicles arrive on each edge following a
// Poisson distribution, each edge that has green discharges up to
// Discharge vehicles, and every vehicle still queued waits one more
// tick. Once Demand vehicles have been generated, no more arrive and
// the simulation drains.
type Synthetic struct {
	config   SyntheticConfig
	arrivals []distuv.Poisson

	queues   map[string][]*vehicle
	vehicles map[string]*vehicle

	phase     int
	generated int
	closed    bool
}

// NewSynthetic returns a new Synthetic simulation seeded with seed
func NewSynthetic(config SyntheticConfig, seed uint64) (*Synthetic, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("newSynthetic: %w", err)
	}

	src := rand.NewSource(seed)
	arrivals := make([]distuv.Poisson, len(config.Edges))
	queues := make(map[string][]*vehicle, len(config.Edges))
	for i, edge := range config.Edges {
		arrivals[i] = distuv.Poisson{Lambda: config.ArrivalRates[i], Src: src}
		queues[edge] = nil
	}

	return &Synthetic{
		config:   config,
		arrivals: arrivals,
		queues:   queues,
		vehicles: make(map[string]*vehicle),
	}, nil
}

// NewSyntheticLauncher returns a Launcher which starts a new Synthetic
// simulation on each launch. The n-th launch is seeded with seed+n, so
// a sequence of episodes is reproducible given seed.
func NewSyntheticLauncher(config SyntheticConfig, seed uint64) Launcher {
	var launches uint64
	return LauncherFunc(func() (Surface, error) {
		s, err := NewSynthetic(config, seed+launches)
		launches++
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// Phase returns the current traffic light phase
func (s *Synthetic) Phase() int {
	return s.phase
}

// SetPhase implements the Surface interface
func (s *Synthetic) SetPhase(_ string, phase int, _ float64) error {
	if s.closed {
		return ErrDisconnected
	}
	if _, ok := s.config.GreenEdges[phase]; !ok {
		return fmt.Errorf("setPhase: unknown phase %v", phase)
	}
	s.phase = phase
	return nil
}

// SimulationStep implements the Surface interface
func (s *Synthetic) SimulationStep() error {
	if s.closed {
		return ErrDisconnected
	}

	for i, edge := range s.config.Edges {
		if s.generated >= s.config.Demand || s.config.ArrivalRates[i] == 0 {
			continue
		}
		n := int(s.arrivals[i].Rand())
		if remaining := s.config.Demand - s.generated; n > remaining {
			n = remaining
		}
		for j := 0; j < n; j++ {
			v := &vehicle{id: fmt.Sprintf("%v.%v", edge, s.generated)}
			s.generated++
			s.queues[edge] = append(s.queues[edge], v)
			s.vehicles[v.id] = v
		}
	}

	for _, edge := range s.config.GreenEdges[s.phase] {
		queue := s.queues[edge]
		n := s.config.Discharge
		if n > len(queue) {
			n = len(queue)
		}
		for _, v := range queue[:n] {
			delete(s.vehicles, v.id)
		}
		s.queues[edge] = queue[n:]
	}

	for _, v := range s.vehicles {
		v.waiting++
	}
	return nil
}

// HaltingNumber implements the Surface interface
func (s *Synthetic) HaltingNumber(edge string) (int, error) {
	if s.closed {
		return 0, ErrDisconnected
	}
	queue, ok := s.queues[edge]
	if !ok {
		return 0, fmt.Errorf("haltingNumber: unknown edge %v", edge)
	}
	return len(queue), nil
}

// VehicleIDs implements the Surface interface
func (s *Synthetic) VehicleIDs(edge string) ([]string, error) {
	if s.closed {
		return nil, ErrDisconnected
	}
	queue, ok := s.queues[edge]
	if !ok {
		return nil, fmt.Errorf("vehicleIDs: unknown edge %v", edge)
	}
	ids := make([]string, len(queue))
	for i, v := range queue {
		ids[i] = v.id
	}
	return ids, nil
}

// AccumulatedWaitingTime implements the Surface interface
func (s *Synthetic) AccumulatedWaitingTime(id string) (float64, error) {
	if s.closed {
		return 0, ErrDisconnected
	}
	v, ok := s.vehicles[id]
	if !ok {
		return 0, fmt.Errorf("accumulatedWaitingTime: unknown vehicle %v", id)
	}
	return v.waiting, nil
}

// MinExpectedVehicles implements the Surface interface
func (s *Synthetic) MinExpectedVehicles() (int, error) {
	if s.closed {
		return 0, ErrDisconnected
	}
	return s.config.Demand - s.generated + len(s.vehicles), nil
}

// Close implements the Surface interface
func (s *Synthetic) Close() error {
	s.closed = true
	return nil
}
