package circuit

import (
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/me/linsched/internal/solver"
	"github.com/me/linsched/pkg/model"
)

func TestSeries(t *testing.T) {
	a, b, err := Series(12, []float64{2, 4})
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 1 || a[0][0] != 6 {
		t.Errorf("A = %v, want [[6]]", a)
	}
	if len(b) != 1 || b[0] != 12 {
		t.Errorf("b = %v, want [12]", b)
	}
}

func TestParallel(t *testing.T) {
	a, b, err := Parallel(10, []float64{5, 2, 1})
	if err != nil {
		t.Fatal(err)
	}
	want := [][]float64{{5, 0, 0}, {0, 2, 0}, {0, 0, 1}}
	for i := range want {
		for j := range want[i] {
			if a[i][j] != want[i][j] {
				t.Errorf("A[%d][%d] = %v, want %v", i, j, a[i][j], want[i][j])
			}
		}
		if b[i] != 10 {
			t.Errorf("b[%d] = %v, want 10", i, b[i])
		}
	}
}

func TestSolveCircuits(t *testing.T) {
	rs := []float64{4, 2, 1}
	tests := []struct {
		name  string
		build func(float64, []float64) ([][]float64, []float64, error)
		want  []float64
	}{
		{"series", Series, []float64{12.0 / 7}},
		{"parallel", Parallel, []float64{3, 6, 12}},
	}
	for _, tt := range tests {
		a, b, err := tt.build(12, rs)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		for _, m := range model.Methods {
			x, err := solver.Solve(m, a, b)
			if err != nil {
				t.Fatalf("%s/%s: %v", tt.name, m, err)
			}
			if len(x) != len(tt.want) {
				t.Fatalf("%s/%s: x = %v, want %v", tt.name, m, x, tt.want)
			}
			for i := range tt.want {
				if math.Abs(x[i]-tt.want[i]) > 1e-9 {
					t.Errorf("%s/%s: I[%d] = %v, want %v", tt.name, m, i, x[i], tt.want[i])
				}
			}
		}
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		rs   []float64
	}{
		{"no resistors", 5, nil},
		{"zero resistance", 5, []float64{1, 0}},
		{"negative resistance", 5, []float64{-1}},
		{"nan resistance", 5, []float64{math.NaN()}},
		{"inf resistance", 5, []float64{math.Inf(1)}},
		{"zero voltage", 0, []float64{1}},
		{"nan voltage", math.NaN(), []float64{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Series(tt.v, tt.rs); !errors.Is(err, model.ErrInvalidInput) {
				t.Errorf("Series error = %v, want ErrInvalidInput", err)
			}
			if _, _, err := Parallel(tt.v, tt.rs); !errors.Is(err, model.ErrInvalidInput) {
				t.Errorf("Parallel error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestParseTopology(t *testing.T) {
	tests := []struct {
		in      string
		want    Topology
		wantErr bool
	}{
		{"series", TopologySeries, false},
		{"Serie", TopologySeries, false},
		{"paralelo", TopologyParallel, false},
		{"PARALLEL", TopologyParallel, false},
		{"mesh", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTopology(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTopology(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseTopology(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuild_DefaultName(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	sys, err := Build(TopologyParallel, 9, []float64{3, 3}, "", now)
	if err != nil {
		t.Fatal(err)
	}
	if sys.Name != "parallel-1700000000123" {
		t.Errorf("Name = %q", sys.Name)
	}
	sys, err = Build(TopologySeries, 9, []float64{3}, "lamp", now)
	if err != nil {
		t.Fatal(err)
	}
	if sys.Name != "lamp-1700000000123" || sys.Size() != 1 {
		t.Errorf("system = %+v", sys)
	}
}

func TestScenario(t *testing.T) {
	g := NewGenerator(nil, func() time.Time { return time.UnixMilli(1700000000000) })
	rng := rand.New(rand.NewPCG(1, 2))

	for name, size := range DefaultSizes {
		sys, err := g.Scenario(strings.ToUpper(name), rng)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if sys.Size() != size || len(sys.A) != size {
			t.Errorf("%s: size %d, want %d", name, sys.Size(), size)
		}
		if sys.Name != name+"-1700000000000" {
			t.Errorf("%s: label %q", name, sys.Name)
		}
		for i := range sys.A {
			if sys.A[i][i] < 0.5 {
				t.Errorf("%s: diagonal %d = %v, want >= 0.5", name, i, sys.A[i][i])
			}
			for j := range sys.A {
				if sys.A[i][j] != sys.A[j][i] {
					t.Fatalf("%s: not symmetric at %d,%d", name, i, j)
				}
			}
			if sys.B[i] <= -10 || sys.B[i] >= 10 {
				t.Errorf("%s: b[%d] = %v out of range", name, i, sys.B[i])
			}
		}
	}
}

func TestScenario_Unknown(t *testing.T) {
	g := NewGenerator(map[string]int{"tiny": 2}, nil)
	rng := rand.New(rand.NewPCG(1, 2))
	if _, err := g.Scenario("enorme", rng); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
	sys, err := g.Scenario("tiny", rng)
	if err != nil {
		t.Fatal(err)
	}
	if sys.Size() != 2 {
		t.Errorf("size = %d, want 2", sys.Size())
	}
}
