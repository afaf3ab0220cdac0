package hclscript

import (
	"fmt"
	"strconv"

	"github.com/vk/attrbridge/internal/objgraph"
	"github.com/zclconf/go-cty/cty"
)

// objectToCty exposes an object to expressions. A missing binding is an
// empty object.
func objectToCty(o *objgraph.Object) cty.Value {
	if o == nil {
		return cty.EmptyObjectVal
	}
	return toCty(o, map[*objgraph.Object]bool{})
}

// toCty converts a value. An object met again on its own path becomes null.
func toCty(v objgraph.Value, onPath map[*objgraph.Object]bool) cty.Value {
	switch t := v.(type) {
	case objgraph.String:
		return cty.StringVal(string(t))
	case objgraph.Array:
		if len(t) == 0 {
			return cty.EmptyTupleVal
		}
		vals := make([]cty.Value, len(t))
		for i, ev := range t {
			vals[i] = toCty(ev, onPath)
		}
		return cty.TupleVal(vals)
	case *objgraph.Object:
		if onPath[t] {
			return cty.NullVal(cty.DynamicPseudoType)
		}
		if t.Len() == 0 {
			return cty.EmptyObjectVal
		}
		onPath[t] = true
		defer delete(onPath, t)
		attrs := make(map[string]cty.Value, t.Len())
		t.Range(func(k string, pv objgraph.Value) bool {
			attrs[k] = toCty(pv, onPath)
			return true
		})
		return cty.ObjectVal(attrs)
	}
	return cty.NullVal(cty.DynamicPseudoType)
}

// fromCty converts an evaluation result. Scalars become strings, nulls are
// dropped. cty objects carry no attribute order, so properties come out
// sorted by name.
func fromCty(v cty.Value) (objgraph.Value, error) {
	v, _ = v.UnmarkDeep()
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsKnown() {
		return nil, fmt.Errorf("value is not known")
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return objgraph.String(v.AsString()), nil
	case ty == cty.Number:
		return objgraph.String(v.AsBigFloat().Text('f', -1)), nil
	case ty == cty.Bool:
		return objgraph.String(strconv.FormatBool(v.True())), nil
	case ty.IsObjectType() || ty.IsMapType():
		obj := objgraph.NewObject()
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			cv, err := fromCty(ev)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k.AsString(), err)
			}
			if cv != nil {
				obj.Set(k.AsString(), cv)
			}
		}
		return obj, nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		arr := make(objgraph.Array, 0, v.LengthInt())
		i := 0
		for it := v.ElementIterator(); it.Next(); i++ {
			_, ev := it.Element()
			cv, err := fromCty(ev)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			if cv != nil {
				arr = append(arr, cv)
			}
		}
		return arr, nil
	}
	return nil, fmt.Errorf("unsupported value of type %s", ty.FriendlyName())
}
