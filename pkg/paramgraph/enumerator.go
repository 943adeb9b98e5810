package paramgraph

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/vk/paramgraph/internal/pathwayid"
)

// DerivationTree is one complete, concrete way to derive a target parameter:
// a Method chosen at Parameter, recursively applied to the trees that
// derive each of that method's required inputs. The source node and any
// pass-through parameter (reached only by a DataFlow edge) carry an empty
// Method.
type DerivationTree struct {
	Parameter   string
	Method      string
	Children    []*DerivationTree
	Fingerprint string
	Description string
}

// Choices flattens the tree into the ordered set of (parameter, method)
// decisions it makes, skipping pass-through nodes that chose no method.
// Two distinct DerivationTree values that make the same choices are the
// same pathway, per spec §4.2's method-fingerprint dedup rule.
func (t *DerivationTree) Choices() []pathwayid.Choice {
	var out []pathwayid.Choice
	var walk func(n *DerivationTree)
	walk = func(n *DerivationTree) {
		if n == nil {
			return
		}
		if n.Method != "" {
			out = append(out, pathwayid.Choice{Parameter: n.Parameter, Method: n.Method})
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(t)
	return out
}

// Enumerator walks a sealed Graph backward from a target to its source,
// producing every distinct DerivationTree. Results are memoized per node
// name for the lifetime of the Enumerator; singleflight collapses
// concurrent first-computations of the same node into one, the way the
// teacher guards concurrent first-use of a shared resource.
type Enumerator struct {
	graph *Graph
	memo  sync.Map // string -> []*DerivationTree
	sfg   singleflight.Group
}

// NewEnumerator returns an Enumerator over a sealed graph.
func NewEnumerator(graph *Graph) (*Enumerator, error) {
	if !graph.Sealed() {
		return nil, ErrGraphNotSealed
	}
	return &Enumerator{graph: graph}, nil
}

// Enumerate returns every distinct derivation tree for target, deduplicated
// by the set of (parameter, method) choices it makes.
func (en *Enumerator) Enumerate(target string) ([]*DerivationTree, error) {
	if _, err := en.graph.GetNode(target); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, target)
	}

	trees, err := en.treesFor(target)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(trees))
	out := make([]*DerivationTree, 0, len(trees))
	for _, t := range trees {
		choices := t.Choices()
		id, desc := pathwayid.Build(choices)
		if seen[id] {
			continue
		}
		seen[id] = true
		t.Fingerprint = id
		t.Description = desc
		out = append(out, t)
	}
	return out, nil
}

func (en *Enumerator) treesFor(name string) ([]*DerivationTree, error) {
	if cached, ok := en.memo.Load(name); ok {
		return cached.([]*DerivationTree), nil
	}

	v, err, _ := en.sfg.Do(name, func() (any, error) {
		trees, err := en.computeTrees(name)
		if err != nil {
			return nil, err
		}
		en.memo.Store(name, trees)
		return trees, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*DerivationTree), nil
}

func (en *Enumerator) computeTrees(name string) ([]*DerivationTree, error) {
	incoming := en.graph.Incoming(name)
	if len(incoming) == 0 {
		return []*DerivationTree{{Parameter: name}}, nil
	}

	var results []*DerivationTree
	for _, edge := range incoming {
		// A node fed directly by the graph source is a leaf: over a DataFlow
		// edge it reads the raw record field named after it, over a method
		// edge its method reads its raw inputs itself. Do not recurse into a
		// separate subtree for the source (it names nothing on the record).
		if edge.Source == en.graph.Source() {
			results = append(results, &DerivationTree{Parameter: name, Method: edge.Method})
			continue
		}

		if edge.DataFlow {
			subtrees, err := en.treesFor(edge.Source)
			if err != nil {
				return nil, err
			}
			for _, st := range subtrees {
				results = append(results, &DerivationTree{
					Parameter: name,
					Children:  []*DerivationTree{st},
				})
			}
			continue
		}

		sourceNode, err := en.graph.GetNode(edge.Source)
		if err != nil {
			return nil, err
		}
		if sourceNode.Kind == Merge {
			combos, err := en.mergeInputCombinations(edge.Source)
			if err != nil {
				return nil, err
			}
			for _, combo := range combos {
				results = append(results, &DerivationTree{
					Parameter: name,
					Method:    edge.Method,
					Children:  combo,
				})
			}
			continue
		}

		// Method edge with a single Parameter source.
		subtrees, err := en.treesFor(edge.Source)
		if err != nil {
			return nil, err
		}
		for _, st := range subtrees {
			results = append(results, &DerivationTree{
				Parameter: name,
				Method:    edge.Method,
				Children:  []*DerivationTree{st},
			})
		}
	}
	return results, nil
}

// mergeInputCombinations returns the cartesian product of the derivation
// trees available for each of a merge node's required inputs: AND logic
// means every incoming edge must be satisfied, and each has its own
// independent set of OR choices behind it.
func (en *Enumerator) mergeInputCombinations(mergeName string) ([][]*DerivationTree, error) {
	incoming := en.graph.Incoming(mergeName)
	perInput := make([][]*DerivationTree, len(incoming))
	for i, edge := range incoming {
		trees, err := en.treesFor(edge.Source)
		if err != nil {
			return nil, err
		}
		perInput[i] = trees
	}
	return cartesianProduct(perInput), nil
}

func cartesianProduct(sets [][]*DerivationTree) [][]*DerivationTree {
	result := [][]*DerivationTree{{}}
	for _, set := range sets {
		var next [][]*DerivationTree
		for _, combo := range result {
			for _, item := range set {
				extended := make([]*DerivationTree, len(combo), len(combo)+1)
				copy(extended, combo)
				extended = append(extended, item)
				next = append(next, extended)
			}
		}
		result = next
	}
	return result
}
