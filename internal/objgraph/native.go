package objgraph

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"sort"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ToNative converts a value into generic Go data: map[string]any, []any and
// string. Property order is lost.
func ToNative(v Value) (any, error) {
	return toNative(v, map[*Object]bool{})
}

func toNative(v Value, path map[*Object]bool) (any, error) {
	switch t := v.(type) {
	case String:
		return string(t), nil
	case Array:
		out := make([]any, len(t))
		for i, ev := range t {
			nv, err := toNative(ev, path)
			if err != nil {
				return nil, err
			}
			out[i] = nv
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
			var nv any
			if nv, err = toNative(pv, path); err != nil {
				err = fmt.Errorf("%s: %w", k, err)
				return false
			}
			out[k] = nv
			return true
		})
		return out, err
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("objgraph: unsupported value %T", v)
	}
}

// ToOrdered converts a value into generic Go data whose objects are
// ordered maps, suitable for order-preserving JSON or YAML encoding.
func ToOrdered(v Value) (any, error) {
	return toOrdered(v, map[*Object]bool{})
}

func toOrdered(v Value, path map[*Object]bool) (any, error) {
	switch t := v.(type) {
	case Array:
		out := make([]any, len(t))
		for i, ev := range t {
			nv, err := toOrdered(ev, path)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	case *Object:
		if path[t] {
			return nil, ErrCyclic
		}
		path[t] = true
		defer delete(path, t)
		out := orderedmap.New[string, any]()
		var err error
		t.Range(func(k string, pv Value) bool {
			var nv any
			if nv, err = toOrdered(pv, path); err != nil {
				err = fmt.Errorf("%s: %w", k, err)
				return false
			}
			out.Set(k, nv)
			return true
		})
		return out, err
	default:
		return toNative(v, path)
	}
}

// MarshalJSON encodes the object with its properties in insertion order.
// JSON strings are UTF-8: invalid byte sequences in a String are replaced
// with U+FFFD. Use MarshalCBOR to keep arbitrary bytes intact.
func (o *Object) MarshalJSON() ([]byte, error) {
	ordered, err := ToOrdered(o)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ordered)
}

// FromNative converts generic Go data, as produced by script engines, into
// a value. Scalars are rendered as strings, since attribute values are
// strings. Map keys are sorted because Go maps carry no order. Nil values
// inside containers are dropped.
func FromNative(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case Value:
		return t, nil
	case string:
		return String(t), nil
	case []byte:
		return String(t), nil
	case bool:
		return String(strconv.FormatBool(t)), nil
	case int:
		return String(strconv.Itoa(t)), nil
	case int64:
		return String(strconv.FormatInt(t, 10)), nil
	case uint64:
		return String(strconv.FormatUint(t, 10)), nil
	case float64:
		return String(strconv.FormatFloat(t, 'f', -1, 64)), nil
	case json.Number:
		return String(t.String()), nil
	case *big.Float:
		return String(t.Text('f', -1)), nil
	case []any:
		out := make(Array, 0, len(t))
		for i, ev := range t {
			cv, err := FromNative(ev)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			if cv != nil {
				out = append(out, cv)
			}
		}
		return out, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			cv, err := FromNative(t[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			if cv != nil {
				obj.Set(k, cv)
			}
		}
		return obj, nil
	case *orderedmap.OrderedMap[string, any]:
		obj := NewObject()
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			cv, err := FromNative(pair.Value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", pair.Key, err)
			}
			if cv != nil {
				obj.Set(pair.Key, cv)
			}
		}
		return obj, nil
	}

	// Remaining numeric kinds and typed slices or maps.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return String(strconv.FormatInt(rv.Int(), 10)), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return String(strconv.FormatUint(rv.Uint(), 10)), nil
	case reflect.Float32:
		return String(strconv.FormatFloat(rv.Float(), 'f', -1, 32)), nil
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return FromNative(items)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return FromNative(m)
	}
	return nil, fmt.Errorf("objgraph: cannot convert %T", v)
}
