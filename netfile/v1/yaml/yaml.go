// Package yaml implements the v1 YAML net file format.
package yaml

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/pathwaylab/hybrid"
	"github.com/pathwaylab/hybrid/conflict"
	"github.com/pathwaylab/hybrid/netfile"
	"github.com/pathwaylab/hybrid/rate"
	"github.com/pathwaylab/hybrid/sim"
	"gopkg.in/yaml.v3"
)

var _ netfile.Service = (*Service)(nil)

// File is the on-disk shape of a v1 net definition.
type File struct {
	Name        string       `yaml:"name"`
	Places      []Place      `yaml:"places"`
	Transitions []Transition `yaml:"transitions"`
	Arcs        []Arc        `yaml:"arcs"`
	Settings    *RunSettings `yaml:"settings,omitempty"`
}

type Place struct {
	Name    string  `yaml:"name"`
	Initial float64 `yaml:"initial,omitempty"`
	Bound   float64 `yaml:"bound,omitempty"`
}

type Transition struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Priority int    `yaml:"priority,omitempty"`
	// Timed window.
	Earliest *float64 `yaml:"earliest,omitempty"`
	Latest   *float64 `yaml:"latest,omitempty"`
	// Stochastic and continuous rate. A bare number is a constant;
	// anything else is an expression over place names.
	Rate     string   `yaml:"rate,omitempty"`
	MaxBurst int      `yaml:"maxBurst,omitempty"`
	MinRate  *float64 `yaml:"minRate,omitempty"`
	MaxRate  *float64 `yaml:"maxRate,omitempty"`
}

type Arc struct {
	From   string  `yaml:"from"`
	To     string  `yaml:"to"`
	Weight float64 `yaml:"weight,omitempty"`
}

type RunSettings struct {
	TimeUnits string   `yaml:"timeUnits,omitempty"`
	Duration  *float64 `yaml:"duration,omitempty"`
	TimeScale *float64 `yaml:"timeScale,omitempty"`
	Dt        *float64 `yaml:"dt,omitempty"`
	Policy    string   `yaml:"policy,omitempty"`
}

type Service struct{}

func (s *Service) Version() netfile.Version { return netfile.V1 }

func (s *Service) Load(_ context.Context, r io.Reader) (*netfile.Model, error) {
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, err
	}
	return f.Model()
}

func (s *Service) Save(_ context.Context, w io.Writer, m *netfile.Model) error {
	f, err := fileOf(m)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()
	return enc.Encode(f)
}

// Model builds the net and settings a file declares.
func (f *File) Model() (*netfile.Model, error) {
	net := hybrid.NewNet(f.Name)
	for _, p := range f.Places {
		pl := hybrid.NewPlace(p.Name, p.Initial).WithBound(p.Bound)
		if _, err := net.AddPlace(pl); err != nil {
			return nil, err
		}
	}
	for _, td := range f.Transitions {
		t, err := td.transition()
		if err != nil {
			return nil, err
		}
		if _, err := net.AddTransition(t); err != nil {
			return nil, err
		}
	}
	for _, a := range f.Arcs {
		from, to, err := endpoints(net, a)
		if err != nil {
			return nil, err
		}
		weight := a.Weight
		if weight == 0 {
			weight = 1
		}
		if _, err := net.AddArc(from, to, weight); err != nil {
			return nil, err
		}
	}
	settings, err := f.settings()
	if err != nil {
		return nil, err
	}
	return &netfile.Model{Net: net, Settings: settings}, nil
}

func (td *Transition) transition() (*hybrid.Transition, error) {
	typ, err := hybrid.ParseType(td.Type)
	if err != nil {
		return nil, fmt.Errorf("transition %s: %w", td.Name, err)
	}
	var t *hybrid.Transition
	switch typ {
	case hybrid.Immediate:
		t = hybrid.NewImmediate(td.Name)
	case hybrid.Timed:
		if td.Earliest == nil || td.Latest == nil {
			return nil, fmt.Errorf("transition %s: timed transitions need earliest and latest", td.Name)
		}
		t = hybrid.NewTimed(td.Name, *td.Earliest, *td.Latest)
	case hybrid.Stochastic:
		r, err := strconv.ParseFloat(td.Rate, 64)
		if err != nil {
			return nil, fmt.Errorf("transition %s: stochastic rate %q is not a number", td.Name, td.Rate)
		}
		t = hybrid.NewStochastic(td.Name, r)
		if td.MaxBurst > 0 {
			t = t.WithMaxBurst(td.MaxBurst)
		}
	case hybrid.Continuous:
		fn, err := rate.Parse(td.Rate)
		if err != nil {
			return nil, fmt.Errorf("transition %s: %w", td.Name, err)
		}
		t = hybrid.NewContinuous(td.Name, fn)
		min, max := 0.0, math.Inf(1)
		if td.MinRate != nil {
			min = *td.MinRate
		}
		if td.MaxRate != nil {
			max = *td.MaxRate
		}
		t = t.WithRateBounds(min, max)
	}
	return t.WithPriority(td.Priority), nil
}

func endpoints(net *hybrid.Net, a Arc) (hybrid.Node, hybrid.Node, error) {
	var from, to hybrid.Node
	if p := net.Place(a.From); p != nil {
		from = p
	} else if t := net.Transition(a.From); t != nil {
		from = t
	} else {
		return nil, nil, fmt.Errorf("arc %s -> %s: unknown node %s", a.From, a.To, a.From)
	}
	if p := net.Place(a.To); p != nil {
		to = p
	} else if t := net.Transition(a.To); t != nil {
		to = t
	} else {
		return nil, nil, fmt.Errorf("arc %s -> %s: unknown node %s", a.From, a.To, a.To)
	}
	return from, to, nil
}

func (f *File) settings() (sim.Settings, error) {
	s := sim.DefaultSettings()
	rs := f.Settings
	if rs == nil {
		return s, nil
	}
	if rs.TimeUnits != "" {
		tu, err := sim.ParseTimeUnit(rs.TimeUnits)
		if err != nil {
			return s, err
		}
		s.TimeUnits = tu
	}
	if rs.Duration != nil {
		s.Duration = rs.Duration
	}
	if rs.TimeScale != nil {
		s.TimeScale = *rs.TimeScale
	}
	if rs.Dt != nil {
		s.DtAuto = false
		s.DtManual = *rs.Dt
	}
	if rs.Policy != "" {
		p, err := conflict.ParsePolicy(rs.Policy)
		if err != nil {
			return s, err
		}
		s.ConflictPolicy = p
	}
	return s, nil
}

func fileOf(m *netfile.Model) (*File, error) {
	f := &File{Name: m.Net.Name}
	for _, p := range m.Net.Places {
		f.Places = append(f.Places, Place{Name: p.Name, Initial: p.Initial, Bound: p.Bound})
	}
	for _, t := range m.Net.Transitions {
		td := Transition{
			Name:     t.Name,
			Type:     t.Type.String(),
			Priority: t.Priority,
		}
		switch t.Type {
		case hybrid.Timed:
			td.Earliest = &t.Timed.Earliest
			td.Latest = &t.Timed.Latest
		case hybrid.Stochastic:
			td.Rate = strconv.FormatFloat(t.Stochastic.Rate, 'g', -1, 64)
			td.MaxBurst = t.Stochastic.MaxBurst
		case hybrid.Continuous:
			td.Rate = t.Continuous.RateFunc.String()
			if t.Continuous.MinRate != 0 {
				td.MinRate = &t.Continuous.MinRate
			}
			if !math.IsInf(t.Continuous.MaxRate, 1) {
				td.MaxRate = &t.Continuous.MaxRate
			}
		}
		f.Transitions = append(f.Transitions, td)
	}
	for _, a := range m.Net.Arcs {
		f.Arcs = append(f.Arcs, Arc{From: a.Src.String(), To: a.Dest.String(), Weight: a.Weight})
	}
	d := m.Settings
	f.Settings = &RunSettings{
		TimeUnits: string(d.TimeUnits),
		Duration:  d.Duration,
		Policy:    string(d.ConflictPolicy),
	}
	if !d.DtAuto {
		dt := d.DtManual
		f.Settings.Dt = &dt
	}
	if d.TimeScale != 1.0 {
		ts := d.TimeScale
		f.Settings.TimeScale = &ts
	}
	return f, nil
}
