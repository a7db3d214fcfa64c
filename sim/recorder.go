package sim

import (
	"encoding/csv"
	"io"
	"strconv"
)

var _ Observer = (*Recorder)(nil)

// Recorder writes the marking trajectory as CSV, one row per step:
// time followed by the marking of each tracked place. It stands in for
// a display layer when running headless.
type Recorder struct {
	w      *csv.Writer
	places []string
	wrote  bool
}

// NewRecorder tracks the given places. An empty place list records
// nothing but time.
func NewRecorder(w io.Writer, places []string) *Recorder {
	return &Recorder{
		w:      csv.NewWriter(w),
		places: places,
	}
}

func (r *Recorder) header() {
	row := make([]string, 0, len(r.places)+1)
	row = append(row, "time")
	row = append(row, r.places...)
	_ = r.w.Write(row)
	r.wrote = true
}

func (r *Recorder) StepExecuted(e *StepEvent) {
	if !r.wrote {
		r.header()
	}
	row := make([]string, 0, len(r.places)+1)
	row = append(row, strconv.FormatFloat(e.Time, 'g', -1, 64))
	for _, p := range r.places {
		row = append(row, strconv.FormatFloat(e.Marking.Get(p), 'g', -1, 64))
	}
	_ = r.w.Write(row)
}

func (r *Recorder) ResetExecuted() {}

func (r *Recorder) SettingsChanged(Settings) {}

// Flush writes buffered rows to the underlying writer.
func (r *Recorder) Flush() error {
	r.w.Flush()
	return r.w.Error()
}
