// Package testutil provides shared test infrastructure for the simulator.
// It holds the golden dataset types and assertion helpers used by the sim
// test packages.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is a single-pool run with fixed arrival times, fixed
// activity durations and one case profile shared by every order, so its
// outcome can be worked out by hand.
type GoldenTestCase struct {
	Name      string        `json:"name"`
	Capacity  int           `json:"capacity"`
	Horizon   int64         `json:"horizon"`
	Arrivals  []int64       `json:"arrivals"`
	Durations []int64       `json:"durations"`
	QMax      int           `json:"qmax"`
	WMax      int64         `json:"wmax"`
	Metrics   GoldenMetrics `json:"metrics"`
}

// GoldenMetrics represents the expected metrics from a golden test case.
type GoldenMetrics struct {
	// Exact match metrics
	Completed    int   `json:"completed"`
	Balked       int   `json:"balked"`
	Reneged      int   `json:"reneged"`
	Unfinished   int   `json:"unfinished"`
	MaxWait      int64 `json:"max_wait"`
	SimEndedTime int64 `json:"sim_ended_time"`

	// Means compared with a tolerance
	MeanWait          float64 `json:"mean_wait"`
	MeanOrderDuration float64 `json:"mean_order_duration"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}
	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
