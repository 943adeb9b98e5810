package paramgraph

import (
	"reflect"

	"go.uber.org/mock/gomock"
)

// Invoker is the interface a Callable delegates to when a test needs to
// assert on invocation counts (spec §8's "non-caching non-sharing"
// property). MockInvoker below follows the shape mockgen would generate for
// it, hand-authored rather than run through `go:generate` since this module
// never invokes the Go toolchain.
type Invoker interface {
	Invoke(inputs CallableInputs, flags CallFlags) (UncertainValue, error)
}

// MockInvoker is a mock of the Invoker interface.
type MockInvoker struct {
	ctrl     *gomock.Controller
	recorder *MockInvokerMockRecorder
}

// MockInvokerMockRecorder is the mock recorder for MockInvoker.
type MockInvokerMockRecorder struct {
	mock *MockInvoker
}

// NewMockInvoker creates a new mock instance.
func NewMockInvoker(ctrl *gomock.Controller) *MockInvoker {
	mock := &MockInvoker{ctrl: ctrl}
	mock.recorder = &MockInvokerMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockInvoker) EXPECT() *MockInvokerMockRecorder {
	return m.recorder
}

// Invoke mocks base method.
func (m *MockInvoker) Invoke(inputs CallableInputs, flags CallFlags) (UncertainValue, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Invoke", inputs, flags)
	ret0, _ := ret[0].(UncertainValue)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Invoke indicates an expected call of Invoke.
func (mr *MockInvokerMockRecorder) Invoke(inputs, flags any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Invoke", reflect.TypeOf((*MockInvoker)(nil).Invoke), inputs, flags)
}
