package apply

import (
	"encoding/json"
	"fmt"

	"github.com/elemaudio/audiograph/node"
	"github.com/elemaudio/audiograph/value"
)

// DecodeBatch decodes the §6 wire format — an array of arrays, each
// beginning with an instruction-type integer — into an Instruction
// slice. This is test/demo convenience, not the core wire codec (spec
// §1 treats instruction serialization as an external collaborator).
func DecodeBatch(raw []byte) ([]Instruction, error) {
	var tuples [][]any
	if err := json.Unmarshal(raw, &tuples); err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}

	out := make([]Instruction, 0, len(tuples))
	for _, t := range tuples {
		if len(t) == 0 {
			return nil, fmt.Errorf("apply: empty instruction tuple")
		}
		tagF, ok := t[0].(float64)
		if !ok {
			return nil, fmt.Errorf("apply: instruction tag must be a number")
		}
		instr, err := decodeOne(Kind(int(tagF)), t)
		if err != nil {
			return nil, err
		}
		out = append(out, instr)
	}
	return out, nil
}

func decodeOne(kind Kind, t []any) (Instruction, error) {
	switch kind {
	case CreateNode:
		if len(t) != 3 {
			return Instruction{}, fmt.Errorf("apply: CreateNode wants (tag,id,kind)")
		}
		id, ok1 := t[1].(float64)
		k, ok2 := t[2].(string)
		if !ok1 || !ok2 {
			return Instruction{}, fmt.Errorf("apply: CreateNode has wrong field types")
		}
		return Instruction{Kind: CreateNode, NodeID: node.ID(id), NodeKind: k}, nil

	case AppendChild:
		if len(t) != 4 {
			return Instruction{}, fmt.Errorf("apply: AppendChild wants (tag,parent,child,outChannel)")
		}
		parent, ok1 := t[1].(float64)
		child, ok2 := t[2].(float64)
		ch, ok3 := t[3].(float64)
		if !ok1 || !ok2 || !ok3 {
			return Instruction{}, fmt.Errorf("apply: AppendChild has wrong field types")
		}
		return Instruction{Kind: AppendChild, Parent: node.ID(parent), Child: node.ID(child), OutputChannel: int(ch)}, nil

	case SetProperty:
		if len(t) != 4 {
			return Instruction{}, fmt.Errorf("apply: SetProperty wants (tag,id,key,value)")
		}
		id, ok1 := t[1].(float64)
		key, ok2 := t[2].(string)
		if !ok1 || !ok2 {
			return Instruction{}, fmt.Errorf("apply: SetProperty has wrong field types")
		}
		v, err := value.FromJSON(t[3])
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Kind: SetProperty, NodeID: node.ID(id), Key: key, Value: v}, nil

	case ActivateRoots:
		if len(t) != 2 {
			return Instruction{}, fmt.Errorf("apply: ActivateRoots wants (tag,[ids])")
		}
		ids, ok := t[1].([]any)
		if !ok {
			return Instruction{}, fmt.Errorf("apply: ActivateRoots expects an id array")
		}
		rootIDs := make([]node.ID, 0, len(ids))
		for _, raw := range ids {
			f, ok := raw.(float64)
			if !ok {
				return Instruction{}, fmt.Errorf("apply: root id must be a number")
			}
			rootIDs = append(rootIDs, node.ID(f))
		}
		return Instruction{Kind: ActivateRoots, RootIDs: rootIDs}, nil

	case CommitUpdates:
		return Instruction{Kind: CommitUpdates}, nil

	default:
		return Instruction{}, fmt.Errorf("apply: unknown instruction tag %d", kind)
	}
}
