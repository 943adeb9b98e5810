package paramgraph

import (
	"fmt"
	"sync"

	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

func foldCode(s string) string { return foldCaser.String(s) }

// runePrefix returns the first n runes of s, or all of s if it is shorter.
func runePrefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ExecContext carries the record scope a method invocation resolves its
// required inputs against: Layer is set for a Layer-level method, nil for a
// Slab-level one.
type ExecContext struct {
	Record     *Record
	Layer      *SubRecord
	LayerIndex int
	Flags      CallFlags
}

// Outcome is the result of one MethodRegistry.Execute call: either a value,
// or a Failure describing why none was produced. DomainFallback lists the
// required-input names that resolved through a domain table's general
// prefix tier rather than an exact specific-code match, so the orchestrator
// can attach a pathway warning (spec §4.3, §6).
type Outcome struct {
	Success        bool
	Value          UncertainValue
	Failure        *Failure
	InputSummary   map[string]string
	DomainFallback []string
}

func failed(kind FailureKind, detail string) Outcome {
	return Outcome{Failure: &Failure{Kind: kind, Detail: detail}}
}

// MethodRegistry maps (parameter, method id) pairs to their MethodSpec, the
// generalization of the teacher's registry.Registry which maps runner types
// to constructors. Register is builder-time; Execute is called once per
// derivation-tree step at run time.
type MethodRegistry struct {
	mu    sync.RWMutex
	specs map[string]*MethodSpec
}

// NewMethodRegistry returns an empty registry.
func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{specs: make(map[string]*MethodSpec)}
}

func methodKey(parameter, method string) string { return parameter + "\x00" + method }

// Register adds a method spec, failing if (Parameter, Method) is already
// registered.
func (r *MethodRegistry) Register(spec MethodSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := methodKey(spec.Parameter, spec.Method)
	if _, exists := r.specs[key]; exists {
		return fmt.Errorf("%w: parameter %q method %q", ErrDuplicateMethod, spec.Parameter, spec.Method)
	}
	s := spec
	r.specs[key] = &s
	return nil
}

// Lookup returns the registered spec for (parameter, method), if any.
func (r *MethodRegistry) Lookup(parameter, method string) (*MethodSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specs[methodKey(parameter, method)]
	return s, ok
}

// Execute runs one derivation step: resolves required inputs from ctx,
// applies domain-table resolution to any categorical inputs, invokes the
// callable, and classifies the result, per spec §4.3 steps 1-5. It never
// panics out to the caller: a panicking callable is reported as a
// MethodFailed outcome, keeping one bad method from aborting a pathway.
func (r *MethodRegistry) Execute(parameter, method string, ctx ExecContext) (outcome Outcome) {
	spec, ok := r.Lookup(parameter, method)
	if !ok {
		return failed(MethodFailed, fmt.Sprintf("method %q not registered for parameter %q", method, parameter))
	}

	defer func() {
		if rec := recover(); rec != nil {
			outcome = failed(MethodFailed, fmt.Sprintf("panic: %v", rec))
		}
	}()

	inputs := make(CallableInputs, len(spec.RequiredInputs))
	summary := make(map[string]string, len(spec.RequiredInputs))
	var fallbacks []string

	for _, name := range spec.RequiredInputs {
		raw, err := resolveInput(ctx, spec.Level, name)
		if err != nil {
			return failed(MissingInput, name)
		}

		if table, needsDomain := spec.DomainTables[name]; needsDomain {
			code, err := raw.AsString()
			if err != nil {
				return failed(UnsupportedDomain, fmt.Sprintf("%s: %v", name, err))
			}
			resolved, usedGeneral, ok := resolveDomain(table, code)
			if !ok {
				return failed(UnsupportedDomain, fmt.Sprintf("%s: %q", name, code))
			}
			if usedGeneral {
				fallbacks = append(fallbacks, name)
			}
			raw = RawString(resolved)
		}

		inputs[name] = raw
		summary[name] = raw.String()
	}

	value, err := spec.Callable(inputs, ctx.Flags)
	if err != nil {
		return failed(MethodFailed, err.Error())
	}
	if value.IsNaN() {
		return failed(NumericalFailure, "")
	}

	return Outcome{Success: true, Value: value, InputSummary: summary, DomainFallback: fallbacks}
}

// resolveInput fetches a required input by name from the appropriate scope.
// Layer-level methods read only their own sub-record. Slab-level methods
// read the record's own slots first; if name instead names a Layer-level
// parameter, its values are gathered across every sub-record into one
// RawSeries (spec §9 open question 3's layer-level-inputs convention).
func resolveInput(ctx ExecContext, level Level, name string) (RawValue, error) {
	if level == Layer {
		if ctx.Layer == nil {
			return RawValue{}, fmt.Errorf("layer-level method has no sub-record in scope")
		}
		if v, ok := ctx.Layer.Computed[name]; ok {
			return RawUncertain(v.Mean, v.Stddev), nil
		}
		if v, ok := ctx.Layer.Raw[name]; ok {
			return v, nil
		}
		return RawValue{}, fmt.Errorf("%q not found on sub-record", name)
	}

	if v, ok := ctx.Record.Computed[name]; ok {
		return RawUncertain(v.Mean, v.Stddev), nil
	}
	if v, ok := ctx.Record.Raw[name]; ok {
		return v, nil
	}

	series := make([]UncertainValue, 0, len(ctx.Record.Layers))
	for _, layer := range ctx.Record.Layers {
		v, ok := layer.Computed[name]
		if !ok {
			return RawValue{}, fmt.Errorf("%q not found on record or on every sub-record", name)
		}
		series = append(series, v)
	}
	if len(series) == 0 {
		return RawValue{}, fmt.Errorf("%q not found and record has no sub-records", name)
	}
	return RawSeries(series), nil
}

// resolveDomain applies the two-tier lookup of spec §4.3: an exact,
// case-folded match against Specific always wins; otherwise the code's
// PrefixLen-rune case-folded prefix is looked up in General.
func resolveDomain(table DomainTable, code string) (resolved string, usedGeneral bool, ok bool) {
	folded := foldCode(code)
	for specific := range table.Specific {
		if foldCode(specific) == folded {
			return code, false, true
		}
	}
	if table.PrefixLen <= 0 || len([]rune(folded)) < table.PrefixLen {
		return "", false, false
	}
	prefix := runePrefix(folded, table.PrefixLen)
	for general := range table.General {
		if foldCode(general) == prefix {
			return prefix, true, true
		}
	}
	return "", false, false
}
