// Package script defines the data model for node-graph documents: property
// values, references, nodes, graphs and whole scripts, plus their JSON form.
package script

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind string

const (
	KindNone       Kind = "none"
	KindBool       Kind = "bool"
	KindFloat      Kind = "float"
	KindFloatArray Kind = "float_array"
	KindInt        Kind = "int"
	KindIntArray   Kind = "int_array"
	KindString     Kind = "string"
	KindList       Kind = "list"
	KindDict       Kind = "dict"
)

// Value is a tagged union over the property values a node can carry.
// The zero Value holds none. Accessors panic when the kind does not match.
type Value struct {
	kind Kind
	b    bool
	f    float64
	i    int64
	s    string
	fs   []float64
	is   []int64
	list []Value
	dict map[string]Value
}

// None returns the none Value.
func None() Value { return Value{kind: KindNone} }

// Bool returns a bool Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Float returns a float Value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Int returns an int Value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// FloatArray returns a float-array Value. The slice is not copied.
func FloatArray(fs []float64) Value { return Value{kind: KindFloatArray, fs: fs} }

// IntArray returns an int-array Value. The slice is not copied.
func IntArray(is []int64) Value { return Value{kind: KindIntArray, is: is} }

// List returns a list Value. The slice is not copied.
func List(vs []Value) Value { return Value{kind: KindList, list: vs} }

// Dict returns a dict Value. The map is not copied.
func Dict(m map[string]Value) Value { return Value{kind: KindDict, dict: m} }

// Kind reports the variant held by v.
func (v Value) Kind() Kind {
	if v.kind == "" {
		return KindNone
	}
	return v.kind
}

func (v Value) mustKind(k Kind) {
	if v.Kind() != k {
		panic(fmt.Sprintf("script: value holds %s, not %s", v.Kind(), k))
	}
}

// AsBool returns the bool payload.
func (v Value) AsBool() bool { v.mustKind(KindBool); return v.b }

// AsFloat returns the float payload.
func (v Value) AsFloat() float64 { v.mustKind(KindFloat); return v.f }

// AsInt returns the int payload.
func (v Value) AsInt() int64 { v.mustKind(KindInt); return v.i }

// AsString returns the string payload.
func (v Value) AsString() string { v.mustKind(KindString); return v.s }

// AsFloatArray returns the float-array payload.
func (v Value) AsFloatArray() []float64 { v.mustKind(KindFloatArray); return v.fs }

// AsIntArray returns the int-array payload.
func (v Value) AsIntArray() []int64 { v.mustKind(KindIntArray); return v.is }

// AsList returns the list payload.
func (v Value) AsList() []Value { v.mustKind(KindList); return v.list }

// AsDict returns the dict payload.
func (v Value) AsDict() map[string]Value { v.mustKind(KindDict); return v.dict }

// Equal reports structural equality: same kind, equal payload.
func (v Value) Equal(o Value) bool {
	if v.Kind() != o.Kind() {
		return false
	}
	switch v.Kind() {
	case KindNone:
		return true
	case KindBool:
		return v.b == o.b
	case KindFloat:
		return v.f == o.f
	case KindInt:
		return v.i == o.i
	case KindString:
		return v.s == o.s
	case KindFloatArray:
		return slices.Equal(v.fs, o.fs)
	case KindIntArray:
		return slices.Equal(v.is, o.is)
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindDict:
		if len(v.dict) != len(o.dict) {
			return false
		}
		for k, ve := range v.dict {
			oe, ok := o.dict[k]
			if !ok || !ve.Equal(oe) {
				return false
			}
		}
		return true
	}
	panic(fmt.Sprintf("script: unknown value kind %q", v.kind))
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.Kind() {
	case KindFloatArray:
		v.fs = slices.Clone(v.fs)
	case KindIntArray:
		v.is = slices.Clone(v.is)
	case KindList:
		cp := make([]Value, len(v.list))
		for i := range v.list {
			cp[i] = v.list[i].Clone()
		}
		v.list = cp
	case KindDict:
		cp := make(map[string]Value, len(v.dict))
		for k, e := range v.dict {
			cp[k] = e.Clone()
		}
		v.dict = cp
	}
	return v
}

// formatFloat renders f so it reads back as a float, never as an int.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// MarshalJSON encodes the value polymorphically: none as null, scalars and
// strings directly, arrays and dicts recursively. Floats always carry a
// decimal point so the kind survives a round trip.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind() {
	case KindNone:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindFloat:
		return []byte(formatFloat(v.f)), nil
	case KindInt:
		return json.Marshal(v.i)
	case KindString:
		return json.Marshal(v.s)
	case KindFloatArray:
		parts := make([]string, len(v.fs))
		for i, f := range v.fs {
			parts[i] = formatFloat(f)
		}
		return []byte("[" + strings.Join(parts, ",") + "]"), nil
	case KindIntArray:
		return json.Marshal(v.is)
	case KindList:
		return json.Marshal(v.list)
	case KindDict:
		return json.Marshal(v.dict)
	}
	return nil, fmt.Errorf("marshaling value: unknown kind %q", v.kind)
}

// UnmarshalJSON decodes the polymorphic form. Numbers written without a
// decimal point or exponent become ints (floats when they overflow int64);
// all other numbers become floats. Arrays of homogeneous numbers become int_array or
// float_array (float wins when any element is a float); anything else
// in an array makes it a list.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("unmarshaling value: %w", err)
	}
	val, err := fromJSON(raw)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

func fromJSON(raw interface{}) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return None(), nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case json.Number:
		return numberValue(x)
	case []interface{}:
		return arrayValue(x)
	case map[string]interface{}:
		dict := make(map[string]Value, len(x))
		for k, e := range x {
			ev, err := fromJSON(e)
			if err != nil {
				return Value{}, err
			}
			dict[k] = ev
		}
		return Dict(dict), nil
	}
	return Value{}, fmt.Errorf("unmarshaling value: unsupported JSON token %T", raw)
}

func numberValue(n json.Number) (Value, error) {
	if strings.ContainsAny(n.String(), ".eE") {
		f, err := n.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("unmarshaling number %q: %w", n, err)
		}
		return Float(f), nil
	}
	i, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil {
			return Value{}, fmt.Errorf("unmarshaling number %q: %w", n, ferr)
		}
		return Float(f), nil
	}
	return Int(i), nil
}

func arrayValue(raw []interface{}) (Value, error) {
	vals := make([]Value, len(raw))
	numeric := len(raw) > 0
	anyFloat := false
	for i, e := range raw {
		ev, err := fromJSON(e)
		if err != nil {
			return Value{}, err
		}
		vals[i] = ev
		switch ev.Kind() {
		case KindInt:
		case KindFloat:
			anyFloat = true
		default:
			numeric = false
		}
	}
	if !numeric {
		return List(vals), nil
	}
	if anyFloat {
		fs := make([]float64, len(vals))
		for i, ev := range vals {
			if ev.Kind() == KindInt {
				fs[i] = float64(ev.AsInt())
			} else {
				fs[i] = ev.AsFloat()
			}
		}
		return FloatArray(fs), nil
	}
	is := make([]int64, len(vals))
	for i, ev := range vals {
		is[i] = ev.AsInt()
	}
	return IntArray(is), nil
}
