package sim

import (
	"github.com/pathwaylab/hybrid"
	"github.com/pathwaylab/hybrid/behavior"
)

// StepEvent is the data emitted after each completed step. It is plain
// data: the engine has no knowledge of how observers display it.
type StepEvent struct {
	// Time after the step's advance.
	Time float64 `json:"time"`
	// Marking is a copy of the marking after the step.
	Marking hybrid.Marking `json:"marking"`
	// Fired is the step's single discrete firing, nil when none fired.
	Fired *behavior.FireDetails `json:"fired,omitempty"`
	// Flows are the continuous integrations of this step, one per
	// transition captured in the step's snapshot.
	Flows []*behavior.FlowDetails `json:"flows,omitempty"`
	// Expired names timed transitions whose window has been overshot
	// without firing, a modeling violation surfaced to the observer.
	Expired []string `json:"expired,omitempty"`
	// Errors carries rejected firings and skipped integrations.
	Errors []error `json:"-"`
}

// Observer receives engine notifications synchronously at the end of
// each operation. Observers are registered at construction; the
// engine never grows hooks after that.
type Observer interface {
	StepExecuted(e *StepEvent)
	ResetExecuted()
	SettingsChanged(s Settings)
}

// ObserverFunc adapts a step callback to the Observer interface.
type ObserverFunc func(e *StepEvent)

func (f ObserverFunc) StepExecuted(e *StepEvent) { f(e) }

func (f ObserverFunc) ResetExecuted() {}

func (f ObserverFunc) SettingsChanged(Settings) {}
