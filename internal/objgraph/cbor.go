package objgraph

import (
	"fmt"
	"reflect"
	"unicode/utf8"

	"github.com/fxamacker/cbor/v2"
)

// encMode uses Core Deterministic Encoding: the same graph always produces
// the same bytes. Object property order is therefore not retained.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("objgraph: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("objgraph: CBOR decoder initialization failed: " + err.Error())
	}
}

// MarshalCBOR encodes a value as CBOR. Strings that are valid UTF-8 become
// text strings; anything else, such as binary payloads read through a
// size attribute, becomes a byte string.
func MarshalCBOR(v Value) ([]byte, error) {
	data, err := toCBOR(v, map[*Object]bool{})
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(data)
}

// UnmarshalCBOR decodes CBOR produced by MarshalCBOR. Map keys come back
// sorted.
func UnmarshalCBOR(data []byte) (Value, error) {
	var v any
	if err := decMode.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("objgraph: decode CBOR: %w", err)
	}
	return FromNative(v)
}

func toCBOR(v Value, path map[*Object]bool) (any, error) {
	switch t := v.(type) {
	case String:
		if utf8.ValidString(string(t)) {
			return string(t), nil
		}
		return []byte(t), nil
	case Array:
		out := make([]any, len(t))
		for i, ev := range t {
			cv, err := toCBOR(ev, path)
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	case *Object:
		if path[t] {
			return nil, ErrCyclic
		}
		path[t] = true
		defer delete(path, t)
		out := make(map[string]any, t.Len())
		var err error
		t.Range(func(k string, pv Value) bool {
			var cv any
			if cv, err = toCBOR(pv, path); err != nil {
				return false
			}
			out[k] = cv
			return true
		})
		return out, err
	default:
		return nil, fmt.Errorf("objgraph: unsupported value %T", v)
	}
}
