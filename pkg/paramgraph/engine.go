package paramgraph

import (
	"context"
	"fmt"

	"github.com/vk/paramgraph/internal/cache"
	"github.com/vk/paramgraph/internal/ctxlog"
	"github.com/vk/paramgraph/internal/pathwayid"
)

// Engine ties a sealed Graph and a populated MethodRegistry together and
// drives execute_all / execute_single / list_pathways, the way the
// teacher's executor.Executor drives a dag.Graph plus a registry.Registry.
type Engine struct {
	graph      *Graph
	registry   *MethodRegistry
	enumerator *Enumerator
}

// NewEngine builds an Engine over a sealed graph and its method registry.
func NewEngine(graph *Graph, registry *MethodRegistry) (*Engine, error) {
	en, err := NewEnumerator(graph)
	if err != nil {
		return nil, err
	}
	return &Engine{graph: graph, registry: registry, enumerator: en}, nil
}

// ListPathways returns every distinct derivation tree for target without
// executing any of them (spec §12: pathway descriptions are derivable from
// the graph alone).
func (e *Engine) ListPathways(target string) ([]PathwayInfo, error) {
	trees, err := e.enumerator.Enumerate(target)
	if err != nil {
		return nil, err
	}
	out := make([]PathwayInfo, 0, len(trees))
	for _, t := range trees {
		out = append(out, PathwayInfo{
			Fingerprint: t.Fingerprint,
			Description: t.Description,
			Methods:     choicesToMap(t.Choices()),
		})
	}
	return out, nil
}

// ExecuteAll enumerates every derivation tree for target and executes each
// one against record, sharing one run-scoped cache across all of them. The
// cache is cleared at the start of every call (spec §4.4).
func (e *Engine) ExecuteAll(ctx context.Context, record *Record, target string, config *ExecutionConfig) (*ExecutionResults, error) {
	if config == nil {
		config = &ExecutionConfig{IncludeMethodUncertainty: true}
	}
	trees, err := e.enumerator.Enumerate(target)
	if err != nil {
		return nil, err
	}

	logger := ctxlog.FromContext(ctx)
	c := cache.New()
	pathways := make(map[string]*PathwayResult, len(trees))
	var successful, failed uint32
	for _, t := range trees {
		pr := e.runTree(t, record, config, c)
		logger.Debug("executed pathway", "target", target, "fingerprint", pr.Fingerprint, "success", pr.Success)
		pathways[pr.Description] = pr
		if pr.Success {
			successful++
		} else {
			failed++
		}
	}
	return &ExecutionResults{
		Target:       target,
		SourceRecord: record,
		Pathways:     pathways,
		Total:        uint32(len(trees)),
		Successful:   successful,
		Failed:       failed,
		CacheStats:   c.Stats(),
	}, nil
}

// ExecuteSingle runs only the derivation tree matching methods exactly,
// against a fresh, empty cache. It fails with ErrNoSuchPathway if no
// enumerated tree matches.
func (e *Engine) ExecuteSingle(ctx context.Context, record *Record, target string, methods map[string]string, config *ExecutionConfig) (*PathwayResult, error) {
	if config == nil {
		config = &ExecutionConfig{IncludeMethodUncertainty: true}
	}
	trees, err := e.enumerator.Enumerate(target)
	if err != nil {
		return nil, err
	}
	for _, t := range trees {
		if mapsEqual(choicesToMap(t.Choices()), methods) {
			return e.runTree(t, record, config, cache.New()), nil
		}
	}
	return nil, ErrNoSuchPathway
}

func choicesToMap(choices []pathwayid.Choice) map[string]string {
	out := make(map[string]string, len(choices))
	for _, c := range choices {
		out[c.Parameter] = c.Method
	}
	return out
}

func mapsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// workingState is the mutable, copy-on-write execution context for one
// pathway run: it clones sub-records lazily, on first write, and otherwise
// shares them with the input record by reference (spec §5).
type workingState struct {
	record *Record
	orig   []*SubRecord
	clones map[int]*SubRecord
	steps  []StepTrace
	warns  []string
}

func newWorkingState(record *Record) *workingState {
	return &workingState{
		record: record.cloneShell(),
		orig:   record.Layers,
		clones: make(map[int]*SubRecord),
	}
}

func (w *workingState) layer(i int) *SubRecord {
	if l, ok := w.clones[i]; ok {
		return l
	}
	cloned := w.orig[i].Clone()
	w.clones[i] = cloned
	w.record.Layers[i] = cloned
	return cloned
}

func (w *workingState) writeComputed(level Level, layerIndex int, name string, v UncertainValue) {
	if level == Layer {
		w.layer(layerIndex).Computed[name] = v
	} else {
		w.record.Computed[name] = v
	}
}

func (w *workingState) rawField(level Level, layerIndex int, name string) (RawValue, bool) {
	if level == Layer {
		l := w.record.Layers[layerIndex]
		if v, ok := l.Computed[name]; ok {
			return RawUncertain(v.Mean, v.Stddev), true
		}
		v, ok := l.Raw[name]
		return v, ok
	}
	if v, ok := w.record.Computed[name]; ok {
		return RawUncertain(v.Mean, v.Stddev), true
	}
	v, ok := w.record.Raw[name]
	return v, ok
}

// runTree executes one derivation tree against record, once per sub-record
// if target is Layer-level, once against the whole record if Slab-level.
func (e *Engine) runTree(tree *DerivationTree, record *Record, config *ExecutionConfig, c *cache.Cache) *PathwayResult {
	result := &PathwayResult{
		Fingerprint: tree.Fingerprint,
		Description: tree.Description,
		Methods:     choicesToMap(tree.Choices()),
	}

	node, err := e.graph.GetNode(tree.Parameter)
	if err != nil {
		result.Failure = &Failure{Kind: MissingInput, Detail: err.Error()}
		return result
	}

	w := newWorkingState(record)

	switch node.Level {
	case Layer:
		for i := range record.Layers {
			v, failure := e.evaluate(w, tree, Layer, i, config, c)
			if failure != nil {
				continue
			}
			result.Values = append(result.Values, v)
		}
	case Slab:
		v, failure := e.evaluate(w, tree, Slab, -1, config, c)
		if failure != nil {
			result.Failure = failure
		} else {
			result.Values = append(result.Values, v)
		}
	default:
		result.Failure = &Failure{Kind: MissingInput, Detail: "target is not a leveled parameter"}
	}

	result.Record = w.record
	result.Trace = ComputationTrace{Steps: w.steps}
	result.Warnings = append(result.Warnings, w.warns...)
	result.Success = len(result.Values) > 0
	return result
}

// evaluate computes tree's value bottom-up, writing every intermediate
// result into w so ancestor methods can resolve it by name through
// MethodRegistry.Execute, and consulting/populating c for cacheable nodes.
func (e *Engine) evaluate(w *workingState, tree *DerivationTree, level Level, layerIndex int, config *ExecutionConfig, c *cache.Cache) (UncertainValue, *Failure) {
	node, err := e.graph.GetNode(tree.Parameter)
	if err != nil {
		return UncertainValue{}, &Failure{Kind: MissingInput, Detail: err.Error()}
	}
	effLevel := level
	if node.Level != LevelNone {
		effLevel = node.Level
	}

	if tree.Method == "" {
		if len(tree.Children) == 0 {
			raw, ok := w.rawField(effLevel, layerIndex, tree.Parameter)
			if !ok {
				return UncertainValue{}, &Failure{Kind: MissingInput, Detail: tree.Parameter}
			}
			v, err := raw.AsUncertain()
			if err != nil {
				return UncertainValue{}, &Failure{Kind: MissingInput, Detail: tree.Parameter}
			}
			return v, nil
		}
		v, failure := e.evaluate(w, tree.Children[0], effLevel, layerIndex, config, c)
		if failure != nil {
			return UncertainValue{}, failure
		}
		w.writeComputed(effLevel, layerIndex, tree.Parameter, v)
		return v, nil
	}

	cacheable := e.graph.IsCacheable(tree.Parameter)
	subIndex := -1
	if effLevel == Layer {
		subIndex = layerIndex
	}
	key := cache.Key{SubIndex: subIndex, Parameter: tree.Parameter, Method: tree.Method}

	if cacheable {
		if v, ok := c.Get(key); ok {
			w.writeComputed(effLevel, layerIndex, tree.Parameter, v)
			w.steps = append(w.steps, StepTrace{
				Parameter: tree.Parameter, Method: tree.Method, SubIndex: subIndex,
				CacheHit: true, Success: true, Value: v,
			})
			return v, nil
		}
	}

	for _, child := range tree.Children {
		childNode, err := e.graph.GetNode(child.Parameter)
		if err != nil {
			f := &Failure{Kind: MissingPrerequisite, Detail: err.Error()}
			w.steps = append(w.steps, StepTrace{Parameter: tree.Parameter, Method: tree.Method, SubIndex: subIndex, Failure: f})
			return UncertainValue{}, f
		}

		// A Slab-level method with a Layer-level child requires that child on
		// every sub-record (spec §9 open question 3): evaluate it across all
		// layers rather than once at the parent's own scope.
		if effLevel == Slab && childNode.Level == Layer {
			var failedAt = -1
			for i := range w.record.Layers {
				if _, failure := e.evaluate(w, child, Layer, i, config, c); failure != nil && failedAt == -1 {
					failedAt = i
				}
			}
			if failedAt != -1 {
				f := &Failure{Kind: MissingPrerequisite, Detail: fmt.Sprintf("%s@%d", child.Parameter, failedAt)}
				w.steps = append(w.steps, StepTrace{Parameter: tree.Parameter, Method: tree.Method, SubIndex: subIndex, Failure: f})
				return UncertainValue{}, f
			}
			continue
		}

		if _, failure := e.evaluate(w, child, effLevel, layerIndex, config, c); failure != nil {
			f := &Failure{Kind: MissingPrerequisite, Detail: fmt.Sprintf("%s: %s", child.Parameter, failure.Error())}
			w.steps = append(w.steps, StepTrace{
				Parameter: tree.Parameter, Method: tree.Method, SubIndex: subIndex,
				Success: false, Failure: f,
			})
			return UncertainValue{}, f
		}
	}

	ctx := ExecContext{
		Record:     w.record,
		LayerIndex: layerIndex,
		Flags:      CallFlags{IncludeMethodUncertainty: config.IncludeMethodUncertainty},
	}
	if effLevel == Layer {
		ctx.Layer = w.record.Layers[layerIndex]
	}

	outcome := e.registry.Execute(tree.Parameter, tree.Method, ctx)
	step := StepTrace{
		Parameter: tree.Parameter, Method: tree.Method, SubIndex: subIndex,
		Success: outcome.Success, Value: outcome.Value, Failure: outcome.Failure,
		InputSummary: outcome.InputSummary,
	}
	w.steps = append(w.steps, step)

	if !outcome.Success {
		return UncertainValue{}, outcome.Failure
	}

	for _, name := range outcome.DomainFallback {
		w.warns = append(w.warns, fmt.Sprintf("parameter %q method %q: input %q resolved via general domain fallback", tree.Parameter, tree.Method, name))
	}

	if cacheable {
		c.Put(key, outcome.Value)
	}
	w.writeComputed(effLevel, layerIndex, tree.Parameter, outcome.Value)
	return outcome.Value, nil
}
