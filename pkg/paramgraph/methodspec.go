package paramgraph

import (
	"github.com/vk/paramgraph/internal/uncertain"
)

// UncertainValue is a scalar with a mean and a standard deviation, closed
// under the arithmetic method callables need. The concrete implementation
// lives in internal/uncertain; this is a type alias so callers never import
// that package directly.
type UncertainValue = uncertain.Value

// FailureKind enumerates the recoverable, per-step failure reasons of
// spec §7. These are never returned as Go errors — they are embedded in a
// ComputationTrace so a failing step never aborts a sibling pathway.
type FailureKind string

const (
	MissingInput        FailureKind = "MissingInput"
	UnsupportedDomain   FailureKind = "UnsupportedDomain"
	MethodFailed        FailureKind = "MethodFailed"
	NumericalFailure    FailureKind = "NumericalFailure"
	MissingPrerequisite FailureKind = "MissingPrerequisite"
)

// Failure describes why a method invocation did not produce a value.
type Failure struct {
	Kind   FailureKind
	Detail string
}

func (f Failure) Error() string {
	if f.Detail == "" {
		return string(f.Kind)
	}
	return string(f.Kind) + ": " + f.Detail
}

// CallableInputs is the resolved input map passed to a method callable: one
// entry per MethodSpec.RequiredInputs, already domain-resolved.
type CallableInputs map[string]RawValue

// CallFlags carries per-invocation execution flags to a callable.
type CallFlags struct {
	IncludeMethodUncertainty bool
}

// Callable is the uniform calling convention every registered method must
// implement: given resolved inputs and flags, produce a value or a failure
// description. Domain calculation formulas are pluggable functions behind
// this interface and are explicitly out of this module's scope (spec §1);
// tests exercise it with trivial arithmetic, exactly as spec §8's scenarios
// do ("λ x. x", "λ a, b. a + b").
type Callable func(inputs CallableInputs, flags CallFlags) (UncertainValue, error)

// DomainTable is a two-tier categorical vocabulary lookup for one required
// input (spec §4.3): a raw code resolves directly if it is in Specific;
// otherwise its canonical prefix (first PrefixLen runes, case-folded) is
// looked up in General; otherwise resolution fails.
type DomainTable struct {
	Specific  map[string]struct{}
	General   map[string]struct{}
	PrefixLen int
}

// MethodSpec binds one (parameter, method id) pair to a callable and
// describes how to prepare its inputs.
type MethodSpec struct {
	Parameter      string
	Method         string
	Level          Level
	RequiredInputs []string
	// DomainTables maps a required input name that needs categorical
	// resolution to its two-tier lookup table. Inputs absent from this map
	// are resolved directly (parameter slot or raw field), no vocabulary
	// mapping applied.
	DomainTables map[string]DomainTable
	// SupportsMethodUncertainty, when true, means the callable honors
	// CallFlags.IncludeMethodUncertainty = false by suppressing its own
	// method-level uncertainty contribution. Methods that do not support
	// this mode simply ignore the flag (spec §4.3 step 5).
	SupportsMethodUncertainty bool
	Callable                  Callable
}
