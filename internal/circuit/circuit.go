// Package circuit turns physical DC circuits and named benchmark scenarios
// into linear systems A·x = b.
package circuit

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/me/linsched/pkg/model"
)

// System is a named linear system ready to be submitted.
type System struct {
	Name string
	A    [][]float64
	B    []float64
}

// Size returns the dimension of the system.
func (s System) Size() int { return len(s.B) }

// Topology is the wiring of the resistors around a single voltage source.
type Topology string

const (
	TopologySeries   Topology = "series"
	TopologyParallel Topology = "parallel"
)

// ParseTopology accepts the topology names, including the legacy Spanish
// spellings serie and paralelo.
func ParseTopology(s string) (Topology, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "series", "serie":
		return TopologySeries, nil
	case "parallel", "paralelo":
		return TopologyParallel, nil
	case "":
		return "", model.Invalidf("topology is required")
	}
	return "", model.Invalidf("unknown topology %q", s)
}

// Series builds the single-loop KVL system: (ΣR)·I = V.
func Series(voltage float64, resistances []float64) ([][]float64, []float64, error) {
	if err := validate(voltage, resistances); err != nil {
		return nil, nil, err
	}
	var total float64
	for _, r := range resistances {
		total += r
	}
	return [][]float64{{total}}, []float64{voltage}, nil
}

// Parallel builds one Ohm's-law equation per branch: R_i·I_i = V.
func Parallel(voltage float64, resistances []float64) ([][]float64, []float64, error) {
	if err := validate(voltage, resistances); err != nil {
		return nil, nil, err
	}
	n := len(resistances)
	a := make([][]float64, n)
	b := make([]float64, n)
	for i, r := range resistances {
		a[i] = make([]float64, n)
		a[i][i] = r
		b[i] = voltage
	}
	return a, b, nil
}

// Build dispatches to Series or Parallel. The system is labelled
// <name>-<unix millis>; an empty name defaults to the topology.
func Build(topology Topology, voltage float64, resistances []float64, name string, now time.Time) (System, error) {
	var (
		a   [][]float64
		b   []float64
		err error
	)
	switch topology {
	case TopologySeries:
		a, b, err = Series(voltage, resistances)
	case TopologyParallel:
		a, b, err = Parallel(voltage, resistances)
	default:
		return System{}, model.Invalidf("unknown topology %q", topology)
	}
	if err != nil {
		return System{}, err
	}
	if strings.TrimSpace(name) == "" {
		name = string(topology)
	}
	return System{Name: fmt.Sprintf("%s-%d", name, now.UnixMilli()), A: a, B: b}, nil
}

func validate(voltage float64, resistances []float64) error {
	if len(resistances) == 0 {
		return model.Invalidf("at least one resistance is required")
	}
	if voltage == 0 || math.IsNaN(voltage) || math.IsInf(voltage, 0) {
		return model.Invalidf("voltage must be finite and non-zero, got %v", voltage)
	}
	for i, r := range resistances {
		if !(r > 0) || math.IsInf(r, 0) {
			return model.Invalidf("resistance %d must be finite and positive, got %v", i, r)
		}
	}
	return nil
}

// DefaultSizes are the predefined scenario dimensions.
var DefaultSizes = map[string]int{
	"simple":   3,
	"medio":    20,
	"complejo": 80,
}

// Generator produces randomized scenario systems.
type Generator struct {
	sizes map[string]int
	now   func() time.Time
}

// NewGenerator returns a Generator using sizes, falling back to DefaultSizes
// for names sizes does not mention. now stamps scenario labels; nil means
// time.Now.
func NewGenerator(sizes map[string]int, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	merged := make(map[string]int, len(DefaultSizes))
	for k, v := range DefaultSizes {
		merged[k] = v
	}
	for k, v := range sizes {
		merged[strings.ToLower(k)] = v
	}
	return &Generator{sizes: merged, now: now}
}

// Names returns the known scenario names.
func (g *Generator) Names() []string {
	out := make([]string, 0, len(g.sizes))
	for k := range g.sizes {
		out = append(out, k)
	}
	return out
}

// Scenario generates a well-conditioned symmetric positive definite system
// MᵀM + 0.5·I with M uniform in (−5, 5) and b uniform in (−10, 10). The
// label is name-<unix millis>.
func (g *Generator) Scenario(name string, rng *rand.Rand) (System, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return System{}, model.Invalidf("scenario is required")
	}
	n, ok := g.sizes[key]
	if !ok || n <= 0 {
		return System{}, model.Invalidf("unknown scenario %q", name)
	}

	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			m[i][j] = rng.Float64()*10 - 5
		}
	}
	a := make([][]float64, n)
	for i := range a {
		a[i] = make([]float64, n)
		for j := range a[i] {
			var s float64
			for k := 0; k < n; k++ {
				s += m[k][i] * m[k][j]
			}
			if i == j {
				s += 0.5
			}
			a[i][j] = s
		}
	}
	b := make([]float64, n)
	for i := range b {
		b[i] = rng.Float64()*20 - 10
	}
	return System{
		Name: fmt.Sprintf("%s-%d", key, g.now().UnixMilli()),
		A:    a,
		B:    b,
	}, nil
}
