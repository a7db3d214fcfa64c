// Package graphviz renders a hybrid net as a graph: places as circles,
// transitions as boxes styled by type, arcs labeled with their weight.
package graphviz

import (
	"fmt"
	"io"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/pathwaylab/hybrid"
)

type Font string

func (f Font) Or(other Font) Font {
	return f + "," + other
}

const (
	Helvetica Font = "Helvetica"
	Arial     Font = "Arial"
	SansSerif Font = "sans-serif"
	Serif     Font = "Serif"
	Times     Font = "Times"
)

type RankDir string

const (
	LeftToRight RankDir = "LR"
	RightToLeft RankDir = "RL"
	TopToBottom RankDir = "TB"
	BottomToTop RankDir = "BT"
)

// Format selects the render output.
type Format string

const (
	DOT Format = Format(graphviz.XDOT)
	SVG Format = Format(graphviz.SVG)
	PNG Format = Format(graphviz.PNG)
)

type Config struct {
	Name string
	Font
	RankDir
	Format
}

// Writer renders nets with the given configuration. A zero Format
// renders DOT.
type Writer struct {
	*Config
	g       *cgraph.Graph
	mapping map[hybrid.Node]*cgraph.Node
}

func New(config *Config) *Writer {
	if config.Name == "" {
		config.Name = "hybrid"
	}
	if config.Format == "" {
		config.Format = DOT
	}
	return &Writer{
		Config:  config,
		mapping: make(map[hybrid.Node]*cgraph.Node),
	}
}

func (w *Writer) writePlace(i int, p *hybrid.Place) error {
	name := fmt.Sprintf("p%d", i)
	node, err := w.g.CreateNode(name)
	if err != nil {
		return err
	}
	node.SetShape(cgraph.CircleShape)
	label := p.Name
	if p.Initial != 0 {
		label = fmt.Sprintf("%s\n%g", p.Name, p.Initial)
	}
	node.SetLabel(label)
	node.Set("fontname", string(w.Font))
	w.mapping[p] = node
	return nil
}

// transitionLabel puts the type-specific parameters under the name so
// the rendered net reads as a model, not just a topology.
func transitionLabel(t *hybrid.Transition) string {
	switch t.Type {
	case hybrid.Timed:
		return fmt.Sprintf("%s\n[%g, %g]", t.Name, t.Timed.Earliest, t.Timed.Latest)
	case hybrid.Stochastic:
		return fmt.Sprintf("%s\nexp(%g)", t.Name, t.Stochastic.Rate)
	case hybrid.Continuous:
		return fmt.Sprintf("%s\n%s", t.Name, t.Continuous.RateFunc)
	}
	return t.Name
}

func (w *Writer) writeTransition(i int, t *hybrid.Transition) error {
	name := fmt.Sprintf("t%d", i)
	node, err := w.g.CreateNode(name)
	if err != nil {
		return err
	}
	w.mapping[t] = node
	node.SetShape(cgraph.BoxShape)
	node.SetLabel(transitionLabel(t))
	node.Set("fontname", string(w.Font))
	switch t.Type {
	case hybrid.Immediate:
		node.SetStyle(cgraph.FilledNodeStyle)
		node.Set("fillcolor", "black")
		node.Set("fontcolor", "white")
	case hybrid.Continuous:
		// Continuous transitions are drawn hollow with a double border,
		// the usual convention for hybrid nets.
		node.Set("peripheries", "2")
	}
	return nil
}

func (w *Writer) writeArc(i int, a *hybrid.Arc) error {
	src := w.mapping[a.Src]
	dst := w.mapping[a.Dest]
	name := fmt.Sprintf("a%d", i)
	edge, err := w.g.CreateEdge(name, src, dst)
	if err != nil {
		return err
	}
	if a.Weight != 1 {
		edge.SetLabel(fmt.Sprintf("%g", a.Weight))
		edge.Set("fontname", string(w.Font))
	}
	return nil
}

// Flush renders the net to out in the configured format.
func (w *Writer) Flush(out io.Writer, n *hybrid.Net) error {
	graph := graphviz.New()
	defer func() {
		_ = graph.Close()
	}()
	g, err := graph.Graph()
	if err != nil {
		return err
	}
	g.SetRankDir(cgraph.RankDir(w.RankDir))
	w.g = g
	for i, p := range n.Places {
		if err := w.writePlace(i, p); err != nil {
			return err
		}
	}
	for i, t := range n.Transitions {
		if err := w.writeTransition(i, t); err != nil {
			return err
		}
	}
	for i, a := range n.Arcs {
		if err := w.writeArc(i, a); err != nil {
			return err
		}
	}
	return graph.Render(w.g, graphviz.Format(w.Format), out)
}
