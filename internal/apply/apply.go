// Package apply implements the InstructionApplier (spec §4.9):
// application of a client instruction batch against the NodeStore,
// triggering a schedule rebuild on CommitUpdates. Side effects are
// applied one instruction at a time; a failing batch is not rolled back.
package apply

import (
	"github.com/elemaudio/audiograph/internal/resource"
	"github.com/elemaudio/audiograph/internal/store"
	"github.com/elemaudio/audiograph/node"
	"github.com/elemaudio/audiograph/value"
)

// Kind is an instruction's tag (spec §6's wire-format leading integer).
type Kind int

const (
	CreateNode Kind = iota
	_                // wire tag 1 is reserved (DeleteNode in the two-API source lineage, spec §9); unused here
	AppendChild
	SetProperty
	ActivateRoots
	CommitUpdates
)

// Instruction is one tagged tuple from a client batch (spec §6).
type Instruction struct {
	Kind Kind

	NodeID        node.ID
	NodeKind      string
	Key           string
	Value         value.Value
	Parent        node.ID
	Child         node.ID
	OutputChannel int
	RootIDs       []node.ID
}

// Applier mutates a store.Store per instruction, reporting a rebuild
// request to the caller whenever a batch's CommitUpdates follows an
// ActivateRoots (spec §4.9).
type Applier struct {
	store     *store.Store
	resources *resource.Map
}

// New returns an Applier bound to the given store and resource map.
func New(s *store.Store, resources *resource.Map) *Applier {
	return &Applier{store: s, resources: resources}
}

// Apply processes batch in order, applying side effects incrementally
// and returning the first non-Ok error encountered (spec §4.9, §9: the
// reference behavior does not roll back already-applied SetPropertys
// within a failing batch). needsRebuild is true iff an ActivateRoots
// instruction was followed by CommitUpdates in this batch.
func (a *Applier) Apply(batch []Instruction) (needsRebuild bool, err *node.Error) {
	sawActivate := false
	for _, instr := range batch {
		switch instr.Kind {
		case CreateNode:
			if e := a.store.CreateNode(instr.NodeID, instr.NodeKind); e != nil {
				return false, e
			}
		case SetProperty:
			if e := a.store.SetProperty(instr.NodeID, instr.Key, instr.Value, a.resources); e != nil {
				return false, e
			}
		case AppendChild:
			if e := a.store.AppendChild(instr.Parent, instr.Child, instr.OutputChannel); e != nil {
				return false, e
			}
		case ActivateRoots:
			if e := a.store.ActivateRoots(instr.RootIDs); e != nil {
				return false, e
			}
			sawActivate = true
		case CommitUpdates:
			if sawActivate {
				needsRebuild = true
			}
		default:
			return false, node.NewError(node.InvalidInstructionFormat, "unknown instruction kind")
		}
	}
	return needsRebuild, nil
}
