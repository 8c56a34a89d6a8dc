// Package types describes operator input and output types, both the static
// declarations attached to operators and the refined descriptors computed
// from concrete payloads.
package types

import (
	"sort"
	"strings"

	"github.com/hanpama/artgraph/internal/value"
)

// Kind identifies the shape of a Type.
type Kind string

const (
	KindUnknown   Kind = "unknown"
	KindNone      Kind = "none"
	KindBoolean   Kind = "boolean"
	KindInt       Kind = "int"
	KindFloat     Kind = "float"
	KindNumber    Kind = "number"
	KindString    Kind = "string"
	KindTimestamp Kind = "timestamp"
	KindTypedDict Kind = "typedDict"
	KindList      Kind = "list"
	KindUnion     Kind = "union"
	KindEntity    Kind = "entity"
	KindFile      Kind = "file"
	KindDir       Kind = "dir"
	KindLink      Kind = "link"
	KindType      Kind = "type"
)

// Type is a structural type descriptor. Values are comparable with Equal;
// constructors normalize dict fields and union members so that structurally
// equal types are also equal field by field.
type Type struct {
	Kind Kind `json:"kind"`
	// Name is the entity kind for KindEntity and the extension for KindFile.
	Name    string  `json:"name,omitempty"`
	Fields  []Field `json:"fields,omitempty"`
	Elem    *Type   `json:"elem,omitempty"`
	Members []Type  `json:"members,omitempty"`
}

// Field is one key of a TypedDict.
type Field struct {
	Key  string `json:"key"`
	Type Type   `json:"type"`
}

func Unknown() Type   { return Type{Kind: KindUnknown} }
func None() Type      { return Type{Kind: KindNone} }
func Boolean() Type   { return Type{Kind: KindBoolean} }
func Int() Type       { return Type{Kind: KindInt} }
func Float() Type     { return Type{Kind: KindFloat} }
func Number() Type    { return Type{Kind: KindNumber} }
func String() Type    { return Type{Kind: KindString} }
func Timestamp() Type { return Type{Kind: KindTimestamp} }
func Dir() Type       { return Type{Kind: KindDir} }
func Link() Type      { return Type{Kind: KindLink} }
func TypeType() Type  { return Type{Kind: KindType} }

func Entity(name string) Type { return Type{Kind: KindEntity, Name: name} }
func File(ext string) Type    { return Type{Kind: KindFile, Name: ext} }

// List returns a list of elem.
func List(elem Type) Type { return Type{Kind: KindList, Elem: &elem} }

// Dict returns a TypedDict with fields sorted by key.
func Dict(fields map[string]Type) Type {
	out := Type{Kind: KindTypedDict}
	for k, t := range fields {
		out.Fields = append(out.Fields, Field{Key: k, Type: t})
	}
	sort.Slice(out.Fields, func(i, j int) bool { return out.Fields[i].Key < out.Fields[j].Key })
	return out
}

// Union flattens nested unions, drops duplicates and orders members. A union
// of one type is that type; a union of nothing is Unknown.
func Union(ts ...Type) Type {
	var members []Type
	var add func(t Type)
	add = func(t Type) {
		if t.Kind == KindUnion {
			for _, m := range t.Members {
				add(m)
			}
			return
		}
		for _, m := range members {
			if Equal(m, t) {
				return
			}
		}
		members = append(members, t)
	}
	for _, t := range ts {
		add(t)
	}
	switch len(members) {
	case 0:
		return Unknown()
	case 1:
		return members[0]
	}
	sort.SliceStable(members, func(i, j int) bool { return members[i].String() < members[j].String() })
	return Type{Kind: KindUnion, Members: members}
}

// Optional is Union(None(), t).
func Optional(t Type) Type { return Union(None(), t) }

// NonNone strips None from a union.
func NonNone(t Type) Type {
	if t.Kind != KindUnion {
		return t
	}
	var keep []Type
	for _, m := range t.Members {
		if m.Kind != KindNone {
			keep = append(keep, m)
		}
	}
	return Union(keep...)
}

// IsOptional reports whether t admits None.
func (t Type) IsOptional() bool {
	if t.Kind == KindNone {
		return true
	}
	for _, m := range t.Members {
		if m.Kind == KindNone {
			return true
		}
	}
	return false
}

// Field returns the type of a TypedDict key.
func (t Type) Field(key string) (Type, bool) {
	for _, f := range t.Fields {
		if f.Key == key {
			return f.Type, true
		}
	}
	return Type{}, false
}

// Equal reports structural equality.
func Equal(a, b Type) bool {
	if kindOf(a) != kindOf(b) || a.Name != b.Name ||
		len(a.Fields) != len(b.Fields) || len(a.Members) != len(b.Members) ||
		(a.Elem == nil) != (b.Elem == nil) {
		return false
	}
	if a.Elem != nil && !Equal(*a.Elem, *b.Elem) {
		return false
	}
	for i, f := range a.Fields {
		if f.Key != b.Fields[i].Key || !Equal(f.Type, b.Fields[i].Type) {
			return false
		}
	}
	// Members sharing a rendering may come in either order.
	used := make([]bool, len(b.Members))
next:
	for _, m := range a.Members {
		for j, o := range b.Members {
			if !used[j] && Equal(m, o) {
				used[j] = true
				continue next
			}
		}
		return false
	}
	return true
}

func kindOf(t Type) Kind {
	if t.Kind == "" {
		return KindUnknown
	}
	return t.Kind
}

// String renders t, e.g. TypedDict[acc: Float, labels: List[String]].
func (t Type) String() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t Type) write(sb *strings.Builder) {
	switch t.Kind {
	case KindTypedDict:
		sb.WriteString("TypedDict[")
		for i, f := range t.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(f.Key)
			sb.WriteString(": ")
			f.Type.write(sb)
		}
		sb.WriteByte(']')
	case KindList:
		sb.WriteString("List[")
		if t.Elem != nil {
			t.Elem.write(sb)
		} else {
			sb.WriteString("Unknown")
		}
		sb.WriteByte(']')
	case KindUnion:
		sb.WriteString("Union[")
		for i, m := range t.Members {
			if i > 0 {
				sb.WriteString(", ")
			}
			m.write(sb)
		}
		sb.WriteByte(']')
	case KindEntity:
		if t.Name == "" {
			sb.WriteString("Entity")
			return
		}
		sb.WriteString(strings.ToUpper(t.Name[:1]) + t.Name[1:])
	case KindFile:
		sb.WriteString("File[")
		sb.WriteString(t.Name)
		sb.WriteByte(']')
	case KindDir:
		sb.WriteString("Dir")
	case KindTimestamp:
		sb.WriteString("Timestamp")
	default:
		s := string(t.Kind)
		if s == "" {
			s = string(KindUnknown)
		}
		sb.WriteString(strings.ToUpper(s[:1]) + s[1:])
	}
}

// TypeOf infers the type of a concrete value. Objects become TypedDicts keyed
// by member; arrays become lists of the union of their item types.
func TypeOf(v value.Value) Type {
	switch v.Kind() {
	case value.Null:
		return None()
	case value.Bool:
		return Boolean()
	case value.Number:
		if v.IsInt() {
			return Int()
		}
		return Float()
	case value.String:
		return String()
	case value.Object:
		fields := make(map[string]Type, v.Len())
		for _, k := range v.Keys() {
			f, _ := v.Field(k)
			fields[k] = TypeOf(f)
		}
		return Dict(fields)
	case value.Array:
		items := v.Items()
		ts := make([]Type, len(items))
		for i, it := range items {
			ts[i] = TypeOf(it)
		}
		return List(Union(ts...))
	}
	return Unknown()
}
