package sim_test

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/pathwaylab/hybrid"
	"github.com/pathwaylab/hybrid/rate"
	"github.com/pathwaylab/hybrid/sim"
)

func TestRecorderWritesTrajectory(t *testing.T) {
	n := chain(t, hybrid.NewContinuous("flow", rate.Constant(1)), 4)

	var buf bytes.Buffer
	rec := sim.NewRecorder(&buf, []string{"P1", "P2"})
	c, err := sim.New(n, sim.WithSettings(manual(0.5)), sim.WithObserver(rec))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		c.Step(0.5)
	}
	if err := rec.Flush(); err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows: got %d, want header plus 3 steps", len(rows))
	}
	header := rows[0]
	if header[0] != "time" || header[1] != "P1" || header[2] != "P2" {
		t.Errorf("header: got %v", header)
	}
	// One unit of flow per two steps of 0.5.
	if rows[2][1] != "3" || rows[2][2] != "1" {
		t.Errorf("second step row: got %v, want P1=3 P2=1", rows[2])
	}
}
