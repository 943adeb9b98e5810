/*
Package pathwayid builds the stable, canonical identifiers the orchestrator
attaches to an executed derivation tree.

The format is a dot-separated sequence of `parameter.method` segments in
sorted order, e.g. `E.bergfeld.density.geldsetzer`, adapted from the
teacher's node-address path model (segment list, canonical `String()`
join) but keyed on method choices rather than instance names — a pathway
has no natural position in a tree the way a running node instance does, so
sorting by parameter name is what makes the identifier stable across
enumeration order.
*/
package pathwayid

import (
	"sort"
	"strings"
)

// Choice is a single (parameter, method) commitment made by a pathway.
type Choice struct {
	Parameter string
	Method    string
}

// Build returns a stable identifier and a human-readable description for a
// set of method choices. Both are deterministic functions of the choice set:
// order of the input slice does not matter.
func Build(choices []Choice) (id string, description string) {
	sorted := make([]Choice, len(choices))
	copy(sorted, choices)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Parameter != sorted[j].Parameter {
			return sorted[i].Parameter < sorted[j].Parameter
		}
		return sorted[i].Method < sorted[j].Method
	})

	idParts := make([]string, 0, len(sorted))
	descParts := make([]string, 0, len(sorted))
	for _, c := range sorted {
		idParts = append(idParts, c.Parameter+"."+c.Method)
		descParts = append(descParts, c.Parameter+":"+c.Method)
	}
	return strings.Join(idParts, "."), strings.Join(descParts, "->")
}

// Fingerprint returns the sorted (parameter, method) pair list as a string:
// the same value as Build's id, which the enumerator uses to deduplicate
// structurally distinct trees that commit to the same methods (spec §4.2).
// It reuses Choice so the enumerator and the orchestrator agree on ordering
// without either depending on the other.
func Fingerprint(choices []Choice) string {
	id, _ := Build(choices)
	return id
}
