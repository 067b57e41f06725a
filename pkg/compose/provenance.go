package compose

import (
	"fmt"
	"sort"
	"strings"
)

// OverrideLabel marks leaves set by a CLI path assignment.
const OverrideLabel = "override"

// Provenance tracks which merge step or override last defined each leaf
// path, plus a human-readable trail of replacements in the order they
// happened. It feeds the compose summary so users can see where every
// effective value came from.
type Provenance struct {
	origins map[string]string
	trail   []string
}

// NewProvenance constructs an empty tracker.
func NewProvenance() *Provenance {
	return &Provenance{origins: map[string]string{}}
}

// Record notes that label now defines the leaf at path. A replacement of a
// value from a different source is appended to the trail. Any previously
// recorded leaves underneath path are dropped, since the subtree they
// described has been replaced wholesale.
func (p *Provenance) Record(path, label string) {
	if p == nil {
		return
	}
	if previous, ok := p.origins[path]; ok && previous != label {
		p.trail = append(p.trail, fmt.Sprintf("%s overrides %s (was %s)", label, path, previous))
	}
	childPrefix := path + "."
	for existing := range p.origins {
		if strings.HasPrefix(existing, childPrefix) {
			delete(p.origins, existing)
		}
	}
	p.origins[path] = label
}

// Origin reports the source label that last defined the leaf at path.
func (p *Provenance) Origin(path string) (string, bool) {
	if p == nil {
		return "", false
	}
	label, ok := p.origins[path]
	return label, ok
}

// Trail returns the replacement log in occurrence order.
func (p *Provenance) Trail() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.trail...)
}

// Paths returns every tracked leaf path in lexical order.
func (p *Provenance) Paths() []string {
	if p == nil {
		return nil
	}
	paths := make([]string, 0, len(p.origins))
	for path := range p.origins {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
