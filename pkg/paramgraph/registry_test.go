package paramgraph

import (
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/vk/paramgraph/internal/uncertain"
)

func TestRegisterRejectsDuplicateMethod(t *testing.T) {
	r := NewMethodRegistry()
	spec := MethodSpec{Parameter: "p", Method: "m", Level: Layer, Callable: identityCallable("x")}
	must(t, r.Register(spec))
	if err := r.Register(spec); !errors.Is(err, ErrDuplicateMethod) {
		t.Fatalf("got %v, want ErrDuplicateMethod", err)
	}
}

func identityCallable(field string) Callable {
	return func(inputs CallableInputs, flags CallFlags) (UncertainValue, error) {
		return inputs[field].AsUncertain()
	}
}

func TestExecuteResolvesRawFieldFromLayer(t *testing.T) {
	r := NewMethodRegistry()
	must(t, r.Register(MethodSpec{
		Parameter: "p_out", Method: "direct", Level: Layer,
		RequiredInputs: []string{"m_raw"}, Callable: identityCallable("m_raw"),
	}))

	layer := NewSubRecord(map[string]RawValue{"m_raw": RawUncertain(10, 1)})
	out := r.Execute("p_out", "direct", ExecContext{Layer: layer})
	if !out.Success {
		t.Fatalf("expected success, got failure %+v", out.Failure)
	}
	if out.Value.Mean != 10 || out.Value.Stddev != 1 {
		t.Fatalf("got %+v", out.Value)
	}
}

func TestExecuteMissingInputFails(t *testing.T) {
	r := NewMethodRegistry()
	must(t, r.Register(MethodSpec{
		Parameter: "p_out", Method: "direct", Level: Layer,
		RequiredInputs: []string{"m_raw"}, Callable: identityCallable("m_raw"),
	}))
	out := r.Execute("p_out", "direct", ExecContext{Layer: NewSubRecord(nil)})
	if out.Success || out.Failure == nil || out.Failure.Kind != MissingInput {
		t.Fatalf("got %+v, want MissingInput failure", out)
	}
}

func TestExecuteUnregisteredMethodFails(t *testing.T) {
	r := NewMethodRegistry()
	out := r.Execute("p", "nope", ExecContext{})
	if out.Success || out.Failure.Kind != MethodFailed {
		t.Fatalf("got %+v, want MethodFailed", out)
	}
}

func TestExecuteNaNResultIsNumericalFailure(t *testing.T) {
	r := NewMethodRegistry()
	must(t, r.Register(MethodSpec{
		Parameter: "p", Method: "explode", Level: Slab,
		Callable: func(CallableInputs, CallFlags) (UncertainValue, error) { return uncertain.NaN(), nil },
	}))
	out := r.Execute("p", "explode", ExecContext{Record: NewRecord(nil, nil)})
	if out.Success || out.Failure.Kind != NumericalFailure {
		t.Fatalf("got %+v, want NumericalFailure", out)
	}
}

func TestExecuteRecoversPanickingCallable(t *testing.T) {
	r := NewMethodRegistry()
	must(t, r.Register(MethodSpec{
		Parameter: "p", Method: "boom", Level: Slab,
		Callable: func(CallableInputs, CallFlags) (UncertainValue, error) { panic("kaboom") },
	}))
	out := r.Execute("p", "boom", ExecContext{Record: NewRecord(nil, nil)})
	if out.Success || out.Failure.Kind != MethodFailed {
		t.Fatalf("got %+v, want MethodFailed from recovered panic", out)
	}
}

// Scenario E (spec §8): a categorical input resolves through the general
// prefix tier and emits a fallback marker; an unresolvable code fails
// UnsupportedDomain without any fallback.
func TestExecuteDomainResolution(t *testing.T) {
	table := DomainTable{
		Specific:  map[string]struct{}{"ABc": {}},
		General:   map[string]struct{}{"AB": {}},
		PrefixLen: 2,
	}
	r := NewMethodRegistry()
	must(t, r.Register(MethodSpec{
		Parameter: "grain_form", Method: "lookup", Level: Layer,
		RequiredInputs: []string{"code"},
		DomainTables:   map[string]DomainTable{"code": table},
		Callable: func(inputs CallableInputs, flags CallFlags) (UncertainValue, error) {
			return uncertain.Of(1, 0), nil
		},
	}))

	fallback := r.Execute("grain_form", "lookup", ExecContext{
		Layer: NewSubRecord(map[string]RawValue{"code": RawString("ABx")}),
	})
	if !fallback.Success || len(fallback.DomainFallback) != 1 || fallback.DomainFallback[0] != "code" {
		t.Fatalf("got %+v, want success with general-prefix fallback", fallback)
	}

	unresolved := r.Execute("grain_form", "lookup", ExecContext{
		Layer: NewSubRecord(map[string]RawValue{"code": RawString("XY")}),
	})
	if unresolved.Success || unresolved.Failure.Kind != UnsupportedDomain || len(unresolved.DomainFallback) != 0 {
		t.Fatalf("got %+v, want UnsupportedDomain with no fallback", unresolved)
	}
}

func TestExecuteInvokesInvokerExactlyOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	mock := NewMockInvoker(ctrl)
	mock.EXPECT().Invoke(gomock.Any(), gomock.Any()).Return(uncertain.Of(42, 2), nil).Times(1)

	r := NewMethodRegistry()
	must(t, r.Register(MethodSpec{
		Parameter: "p", Method: "m", Level: Layer,
		RequiredInputs: []string{"x"},
		Callable: func(inputs CallableInputs, flags CallFlags) (UncertainValue, error) {
			return mock.Invoke(inputs, flags)
		},
	}))

	out := r.Execute("p", "m", ExecContext{Layer: NewSubRecord(map[string]RawValue{"x": RawNumber(1)})})
	if !out.Success || out.Value.Mean != 42 {
		t.Fatalf("got %+v", out)
	}
}
