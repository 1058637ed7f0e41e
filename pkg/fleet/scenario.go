// Package fleet estimates savings for a whole fleet described as a YAML
// scenario. Vehicles either state a monthly distance or a lane that is
// resolved to a distance through a routing service.
package fleet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/NERVsystems/greenroute/pkg/impact"
)

// ErrInvalidScenario is wrapped by every scenario validation failure.
var ErrInvalidScenario = errors.New("invalid fleet scenario")

// LaneSpec describes a recurring trip between two points. From and To accept
// any notation understood by coords.Parse.
type LaneSpec struct {
	From          string  `yaml:"from" json:"from"`
	To            string  `yaml:"to" json:"to"`
	TripsPerMonth float64 `yaml:"trips_per_month" json:"trips_per_month"`
	RoundTrip     bool    `yaml:"round_trip" json:"round_trip"`
}

// Entry is a group of identical vehicles.
type Entry struct {
	Name              string    `yaml:"name" json:"name"`
	Class             string    `yaml:"class" json:"class"`
	Count             int       `yaml:"count" json:"count"`
	MonthlyDistanceKm float64   `yaml:"monthly_distance_km,omitempty" json:"monthly_distance_km,omitempty"`
	Lane              *LaneSpec `yaml:"lane,omitempty" json:"lane,omitempty"`
	// FuelPricePerLiter overrides the scenario price when set.
	FuelPricePerLiter float64 `yaml:"fuel_price_per_liter,omitempty" json:"fuel_price_per_liter,omitempty"`
}

// Scenario is a named fleet with a shared fuel price.
type Scenario struct {
	Name              string  `yaml:"name" json:"name"`
	FuelPricePerLiter float64 `yaml:"fuel_price_per_liter" json:"fuel_price_per_liter"`
	Vehicles          []Entry `yaml:"vehicles" json:"vehicles"`
}

// Parse decodes and validates a YAML scenario. Unknown keys are rejected.
func Parse(data []byte) (*Scenario, error) {
	return decode(bytes.NewReader(data))
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()
	return decode(f)
}

func decode(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidScenario)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// EntryError reports a failure for one fleet entry.
type EntryError struct {
	Index int
	Name  string
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("vehicle %d (%s): %v", e.Index+1, e.Name, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }

// Validate checks the scenario structure. Distances and prices are checked
// later by the estimator so the messages match single estimates.
func (s *Scenario) Validate() error {
	if len(s.Vehicles) == 0 {
		return fmt.Errorf("%w: no vehicles", ErrInvalidScenario)
	}
	for i := range s.Vehicles {
		if err := s.Vehicles[i].validate(); err != nil {
			return &EntryError{Index: i, Name: s.Vehicles[i].label(i), Err: err}
		}
	}
	return nil
}

func (e *Entry) label(i int) string {
	if e.Name != "" {
		return e.Name
	}
	return fmt.Sprintf("#%d", i+1)
}

func (e *Entry) validate() error {
	if _, err := impact.ParseVehicleClass(e.Class); err != nil {
		return err
	}
	if e.Count < 1 {
		return fmt.Errorf("%w: count must be at least 1, got %d", ErrInvalidScenario, e.Count)
	}
	if e.Lane == nil {
		if e.MonthlyDistanceKm == 0 {
			return fmt.Errorf("%w: either monthly_distance_km or lane is required", ErrInvalidScenario)
		}
		return nil
	}
	if e.MonthlyDistanceKm != 0 {
		return fmt.Errorf("%w: monthly_distance_km and lane are mutually exclusive", ErrInvalidScenario)
	}
	if strings.TrimSpace(e.Lane.From) == "" || strings.TrimSpace(e.Lane.To) == "" {
		return fmt.Errorf("%w: lane needs both from and to", ErrInvalidScenario)
	}
	if !(e.Lane.TripsPerMonth > 0) || math.IsInf(e.Lane.TripsPerMonth, 0) {
		return fmt.Errorf("%w: lane trips_per_month must be positive", ErrInvalidScenario)
	}
	return nil
}

// VehicleCount is the number of vehicles across all entries.
func (s *Scenario) VehicleCount() int {
	n := 0
	for _, e := range s.Vehicles {
		n += e.Count
	}
	return n
}
