// Package value models the semi-structured payloads returned by the artifact
// service: null, booleans, numbers, strings, objects and arrays.
//
// Objects preserve the key order of the payload they were decoded from, which
// keeps rendering and type inference deterministic. Values are immutable once
// built; every accessor returns copies of scalar data and shares nested values.
package value

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrMalformed reports JSON text that could not be decoded.
var ErrMalformed = errors.New("value: malformed JSON")

// Kind is the variant held by a Value.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Number
	String
	Object
	Array
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Object:
		return "object"
	case Array:
		return "array"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a semi-structured value. The zero Value is JSON null.
type Value struct {
	kind  Kind
	b     bool
	num   float64
	raw   string // number text as received, or string contents
	keys  []string
	props map[string]Value
	items []Value
}

// Member is one key of an object under construction.
type Member struct {
	Key   string
	Value Value
}

func NullValue() Value           { return Value{} }
func BoolValue(b bool) Value     { return Value{kind: Bool, b: b} }
func StringValue(s string) Value { return Value{kind: String, raw: s} }

// IntValue returns an integral number.
func IntValue(n int64) Value {
	return Value{kind: Number, num: float64(n), raw: strconv.FormatInt(n, 10)}
}

// FloatValue returns a number. Non-finite floats are kept but render as null.
func FloatValue(f float64) Value {
	return Value{kind: Number, num: f, raw: strconv.FormatFloat(f, 'g', -1, 64)}
}

// ObjectValue builds an object from members, keeping their order. A repeated
// key keeps its first position and its last value.
func ObjectValue(members ...Member) Value {
	v := Value{kind: Object, props: make(map[string]Value, len(members))}
	for _, m := range members {
		if _, ok := v.props[m.Key]; !ok {
			v.keys = append(v.keys, m.Key)
		}
		v.props[m.Key] = m.Value
	}
	return v
}

// ArrayValue builds an array.
func ArrayValue(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: Array, items: cp}
}

func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsNull() bool  { return v.kind == Null }
func (v Value) Bool() bool    { return v.kind == Bool && v.b }
func (v Value) Float() float64 { return v.num }

// Int returns the number truncated toward zero.
func (v Value) Int() int64 { return int64(v.num) }

// IsInt reports whether v is a number written without fraction or exponent.
func (v Value) IsInt() bool {
	if v.kind != Number {
		return false
	}
	if strings.ContainsAny(v.raw, ".eE") {
		return false
	}
	return !math.IsInf(v.num, 0) && !math.IsNaN(v.num)
}

// Str returns the contents of a string value and "" for anything else.
func (v Value) Str() string {
	if v.kind != String {
		return ""
	}
	return v.raw
}

// Keys returns the object keys in payload order.
func (v Value) Keys() []string {
	out := make([]string, len(v.keys))
	copy(out, v.keys)
	return out
}

// Field returns the member named key of an object.
func (v Value) Field(key string) (Value, bool) {
	if v.kind != Object {
		return Value{}, false
	}
	f, ok := v.props[key]
	return f, ok
}

// Len returns the number of members of an object or items of an array.
func (v Value) Len() int {
	switch v.kind {
	case Object:
		return len(v.keys)
	case Array:
		return len(v.items)
	}
	return 0
}

// Items returns the array items.
func (v Value) Items() []Value {
	out := make([]Value, len(v.items))
	copy(out, v.items)
	return out
}

// Index returns the i-th array item.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != Array || i < 0 || i >= len(v.items) {
		return Value{}, false
	}
	return v.items[i], true
}

// Get walks path one key at a time. An empty path yields v itself. It reports
// false when a step meets a non-object or a missing key; a null at the final
// key is present and returned as a null Value.
func (v Value) Get(path ...string) (Value, bool) {
	cur := v
	for _, key := range path {
		next, ok := cur.Field(key)
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// SafeGet is Get over a possibly missing container.
func SafeGet(v *Value, path ...string) (Value, bool) {
	if v == nil {
		return Value{}, false
	}
	return v.Get(path...)
}

// Equal reports deep equality. Object member order is not significant.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Null:
		return true
	case Bool:
		return a.b == b.b
	case Number:
		return a.num == b.num
	case String:
		return a.raw == b.raw
	case Object:
		if len(a.keys) != len(b.keys) {
			return false
		}
		for k, av := range a.props {
			bv, ok := b.props[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case Array:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Parse decodes JSON text.
func Parse(data []byte) (Value, error) {
	if !gjson.ValidBytes(data) {
		return Value{}, ErrMalformed
	}
	return fromResult(gjson.ParseBytes(data)), nil
}

// ParseString decodes JSON text held in a string.
func ParseString(s string) (Value, error) {
	if !gjson.Valid(s) {
		return Value{}, ErrMalformed
	}
	return fromResult(gjson.Parse(s)), nil
}

// MustParse is Parse for literals in tests and fixtures.
func MustParse(s string) Value {
	v, err := ParseString(s)
	if err != nil {
		panic(fmt.Sprintf("value.MustParse(%q): %v", s, err))
	}
	return v
}

// FromResult converts an already parsed gjson result.
func FromResult(r gjson.Result) Value { return fromResult(r) }

func fromResult(r gjson.Result) Value {
	switch r.Type {
	case gjson.Null:
		return Value{}
	case gjson.False:
		return BoolValue(false)
	case gjson.True:
		return BoolValue(true)
	case gjson.Number:
		return Value{kind: Number, num: r.Num, raw: r.Raw}
	case gjson.String:
		return StringValue(r.Str)
	}
	if r.IsArray() {
		v := Value{kind: Array}
		r.ForEach(func(_, item gjson.Result) bool {
			v.items = append(v.items, fromResult(item))
			return true
		})
		return v
	}
	if r.IsObject() {
		v := Value{kind: Object, props: map[string]Value{}}
		r.ForEach(func(key, item gjson.Result) bool {
			k := key.String()
			if _, ok := v.props[k]; !ok {
				v.keys = append(v.keys, k)
			}
			v.props[k] = fromResult(item)
			return true
		})
		return v
	}
	return Value{}
}

// FromAny converts plain Go data (as produced by encoding/json or written in
// literals) into a Value. Map keys are sorted since Go maps carry no order.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Value{}, nil
	case Value:
		return t, nil
	case bool:
		return BoolValue(t), nil
	case string:
		return StringValue(t), nil
	case int:
		return IntValue(int64(t)), nil
	case int32:
		return IntValue(int64(t)), nil
	case int64:
		return IntValue(t), nil
	case float32:
		return FloatValue(float64(t)), nil
	case float64:
		return FloatValue(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("value: number %q: %w", t, err)
		}
		return Value{kind: Number, num: f, raw: t.String()}, nil
	case []any:
		items := make([]Value, len(t))
		for i, e := range t {
			iv, err := FromAny(e)
			if err != nil {
				return Value{}, err
			}
			items[i] = iv
		}
		return Value{kind: Array, items: items}, nil
	case []string:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = StringValue(e)
		}
		return Value{kind: Array, items: items}, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		members := make([]Member, len(keys))
		for i, k := range keys {
			mv, err := FromAny(t[k])
			if err != nil {
				return Value{}, err
			}
			members[i] = Member{Key: k, Value: mv}
		}
		return ObjectValue(members...), nil
	}
	return Value{}, fmt.Errorf("value: unsupported Go type %T", x)
}

// Interface converts v into plain Go data: nil, bool, int64 or float64,
// string, []any and map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case Bool:
		return v.b
	case Number:
		if v.IsInt() {
			return v.Int()
		}
		return v.num
	case String:
		return v.raw
	case Object:
		m := make(map[string]any, len(v.keys))
		for _, k := range v.keys {
			m[k] = v.props[k].Interface()
		}
		return m
	case Array:
		out := make([]any, len(v.items))
		for i, it := range v.items {
			out[i] = it.Interface()
		}
		return out
	}
	return nil
}

// MarshalJSON renders v keeping object member order.
func (v Value) MarshalJSON() ([]byte, error) {
	var sb strings.Builder
	if err := v.writeJSON(&sb); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	pv, err := Parse(data)
	if err != nil {
		return err
	}
	*v = pv
	return nil
}

// String renders v as compact JSON.
func (v Value) String() string {
	b, _ := v.MarshalJSON()
	return string(b)
}

func (v Value) writeJSON(sb *strings.Builder) error {
	switch v.kind {
	case Null:
		sb.WriteString("null")
	case Bool:
		sb.WriteString(strconv.FormatBool(v.b))
	case Number:
		if math.IsInf(v.num, 0) || math.IsNaN(v.num) {
			sb.WriteString("null")
			return nil
		}
		sb.WriteString(v.raw)
	case String:
		b, err := json.Marshal(v.raw)
		if err != nil {
			return err
		}
		sb.Write(b)
	case Object:
		sb.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			b, err := json.Marshal(k)
			if err != nil {
				return err
			}
			sb.Write(b)
			sb.WriteByte(':')
			if err := v.props[k].writeJSON(sb); err != nil {
				return err
			}
		}
		sb.WriteByte('}')
	case Array:
		sb.WriteByte('[')
		for i, it := range v.items {
			if i > 0 {
				sb.WriteByte(',')
			}
			if err := it.writeJSON(sb); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	}
	return nil
}
