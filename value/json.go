package value

import (
	"encoding/json"
	"fmt"
)

// FromJSON converts a decoded JSON value (as produced by encoding/json's
// default unmarshal into interface{}) into a Value. This exists purely as
// test/demo convenience for feeding the §6 wire format's per-instruction
// payload into the engine — wire serialization itself is out of scope
// per spec §1.
func FromJSON(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case string:
		return String(t), nil
	case []any:
		out := make([]Value, len(t))
		for i, e := range t {
			v, err := FromJSON(e)
			if err != nil {
				return Value{}, err
			}
			out[i] = v
		}
		return Array(out), nil
	case map[string]any:
		out := make(map[string]Value, len(t))
		for k, e := range t {
			v, err := FromJSON(e)
			if err != nil {
				return Value{}, err
			}
			out[k] = v
		}
		return Object(out), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("value: %w", err)
		}
		return Number(f), nil
	default:
		return Value{}, fmt.Errorf("value: unsupported JSON type %T", raw)
	}
}
