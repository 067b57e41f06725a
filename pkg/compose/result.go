package compose

import (
	"github.com/robolearn/traincfg/pkg/confignode"
)

// Result is the composed configuration handed to downstream consumers
// once the validation gate has passed. The tree is treated as read-only;
// consumers needing a mutable copy take Config.Clone().
type Result struct {
	// Config is the fully merged, overridden, validated tree.
	Config *confignode.Node
	// Steps is the resolved merge order, selection overrides applied.
	Steps []Step
	// Selections maps each category to the fragment name that was merged.
	Selections map[string]string
	// OutputDir is the run output directory designated on the CLI, empty
	// when the reserved assignment was not supplied.
	OutputDir string
	// RunID identifies this composition run in logs and telemetry.
	RunID string
	// Provenance records the winning source per leaf path.
	Provenance *Provenance
}

// Lookup resolves a dotted path against the composed tree.
func (r *Result) Lookup(path string) (*confignode.Node, bool) {
	if r == nil || r.Config == nil {
		return nil, false
	}
	return r.Config.Lookup(path)
}
