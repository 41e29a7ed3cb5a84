// Package node defines the per-kind DSP operator contract (spec §4.4) and
// the built-in kind registry. Every kind satisfies Node; Process is the
// only method ever called from the realtime thread and must never
// allocate, lock, or block.
package node

import (
	"github.com/elemaudio/audiograph/internal/resource"
	"github.com/elemaudio/audiograph/value"
)

// ID is a client-assigned node identifier, globally unique across a
// Runtime's lifetime (spec §3).
type ID int32

// ReturnCode is the closed taxonomy from spec §6.
type ReturnCode int

const (
	Ok ReturnCode = iota
	UnknownNodeType
	NodeNotFound
	NodeAlreadyExists
	NodeTypeAlreadyExists
	InvalidPropertyType
	InvalidPropertyValue
	InvariantViolation
	InvalidInstructionFormat
)

func (c ReturnCode) String() string {
	switch c {
	case Ok:
		return "Ok"
	case UnknownNodeType:
		return "UnknownNodeType"
	case NodeNotFound:
		return "NodeNotFound"
	case NodeAlreadyExists:
		return "NodeAlreadyExists"
	case NodeTypeAlreadyExists:
		return "NodeTypeAlreadyExists"
	case InvalidPropertyType:
		return "InvalidPropertyType"
	case InvalidPropertyValue:
		return "InvalidPropertyValue"
	case InvariantViolation:
		return "InvariantViolation"
	case InvalidInstructionFormat:
		return "InvalidInstructionFormat"
	default:
		return "Unknown"
	}
}

// Error wraps a ReturnCode as a Go error; call sites compare its Code
// field (or recover it with errors.As), and the boundary
// (Runtime.ApplyInstructions) reports the §6 integer taxonomy via
// ReturnCode(). Error has no Is method, so errors.Is only matches the
// identical *Error pointer.
type Error struct {
	Code ReturnCode
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Code.String()
	}
	return e.Code.String() + ": " + e.Msg
}

// ReturnCode reports the wire return code for this error.
func (e *Error) ReturnCode() int { return int(e.Code) }

// NewError constructs an *Error for the given code.
func NewError(code ReturnCode, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Event is a (name, payload) pair a node emits from ProcessEvents.
type Event struct {
	Name    string
	Payload value.Value
}

// EmitFunc receives events drained from a node's internal queue.
type EmitFunc func(name string, payload value.Value)

// Context is passed to Process on every block. The Renderer keeps one
// Context and refills it for every op, so passing it never allocates.
type Context struct {
	Inputs     [][]float32 // one slice per child edge, length NumSamples
	Outputs    [][]float32 // one slice per declared output channel
	NumSamples int
	Active     bool // propagated from the owning root's activation state
	SampleRate float64
	UserData   any
}

// Node is the per-kind DSP operator contract (spec §4.4).
type Node interface {
	// SetProperty validates and applies a property change. Called only on
	// the control thread. Implementations that need the realtime self to
	// see the change push it through an internal SPSC queue rather than
	// mutating shared state directly.
	SetProperty(key string, v value.Value, resources *resource.Map) *Error

	// Process fills ctx.Outputs for exactly ctx.NumSamples samples.
	// Realtime, non-allocating. If a required input is missing, the
	// implementation zeroes its output rather than erroring.
	Process(ctx *Context)

	// ProcessEvents drains any producer-ring Process wrote to and invokes
	// emit for each queued event. Control thread only.
	ProcessEvents(emit EmitFunc)

	// Reset clears internal state (delay lines, sample readers). Control
	// thread only.
	Reset()
}

// Promoter is implemented by feedback-tap producer nodes (spec §4.6):
// Promote publishes the block just rendered into the node's shared tap
// buffer. The Renderer calls it once per root's tap-out list, after
// every root has finished rendering for the block.
type Promoter interface {
	Promote()
}

// OutputChannels reports how many output channels a node declares, used
// by the scheduler to size scratch buffer assignments. Kinds with a
// single output channel need not implement this — the scheduler defaults
// to 1 for kinds that don't implement MultiOutput.
type MultiOutput interface {
	OutputChannels() int
}

// Factory constructs a new instance of a node kind.
type Factory func(id ID, sampleRate float64, blockSize int) Node

// Registry maps kind name to Factory. Create one with NewRegistry (it
// starts empty) and seed it with RegisterBuiltins for the built-in kind
// set.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry. Runtime.New seeds one with
// RegisterBuiltins.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name. Returns false if name is already
// registered (maps to NodeTypeAlreadyExists at the Runtime boundary).
func (r *Registry) Register(name string, f Factory) bool {
	if _, exists := r.factories[name]; exists {
		return false
	}
	r.factories[name] = f
	return true
}

// Lookup returns the factory registered for name, if any.
func (r *Registry) Lookup(name string) (Factory, bool) {
	f, ok := r.factories[name]
	return f, ok
}

// Create instantiates a node of the given kind, or returns false if kind
// is not registered.
func (r *Registry) Create(kind string, id ID, sampleRate float64, blockSize int) (Node, bool) {
	f, ok := r.factories[kind]
	if !ok {
		return nil, false
	}
	return f(id, sampleRate, blockSize), true
}
