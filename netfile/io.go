// Package netfile reads and writes net definition files. Formats are
// versioned services; v1 is YAML.
package netfile

import (
	"context"
	"io"

	"github.com/pathwaylab/hybrid"
	"github.com/pathwaylab/hybrid/sim"
)

// Model couples a topology with the run configuration declared next to
// it in the file.
type Model struct {
	Net      *hybrid.Net
	Settings sim.Settings
}

// Service loads and saves net files of one format version.
type Service interface {
	Load(ctx context.Context, r io.Reader) (*Model, error)
	Save(ctx context.Context, w io.Writer, m *Model) error
	Version() Version
}

type Version string

const (
	V1 Version = "v1"
)
