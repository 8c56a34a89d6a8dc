// Package rundict decodes and types free-form run dictionaries: artifact
// metadata, run summaries and history rows. These are stored by the service
// as JSON text and only take a shape once a concrete payload is in hand.
package rundict

import (
	"path"
	"strings"

	"github.com/hanpama/artgraph/internal/types"
	"github.com/hanpama/artgraph/internal/value"
)

// Parse decodes a JSON text field. Absent, empty and null text decode to an
// empty object; so does malformed text, in which case the decode error is
// also returned so callers can report it.
func Parse(text string, present bool) (value.Value, error) {
	text = strings.TrimSpace(text)
	if !present || text == "" || text == "null" {
		return value.ObjectValue(), nil
	}
	v, err := value.ParseString(text)
	if err != nil {
		return value.ObjectValue(), err
	}
	if v.IsNull() {
		return value.ObjectValue(), nil
	}
	return v, nil
}

// IsFileRef reports whether v is a reference to a file logged with a run,
// such as {"_type": "table-file", "path": "media/tables/t.table.json"}.
func IsFileRef(v value.Value) bool {
	t, ok := v.Get("_type")
	if !ok || t.Kind() != value.String {
		return false
	}
	s := t.Str()
	if strings.HasSuffix(s, "-file") || s == "joined-table" || s == "partitioned-table" {
		p, ok := v.Get("path")
		return ok && p.Kind() == value.String
	}
	return false
}

// Normalize returns a copy of v in which file references are reduced to their
// identifying members. Other values are returned as they are.
func Normalize(v value.Value) value.Value {
	switch v.Kind() {
	case value.Object:
		if IsFileRef(v) {
			typ, _ := v.Get("_type")
			p, _ := v.Get("path")
			members := []value.Member{{Key: "_type", Value: typ}, {Key: "path", Value: p}}
			if sha, ok := v.Get("sha256"); ok {
				members = append(members, value.Member{Key: "sha256", Value: sha})
			}
			return value.ObjectValue(members...)
		}
		members := make([]value.Member, 0, v.Len())
		for _, k := range v.Keys() {
			f, _ := v.Field(k)
			members = append(members, value.Member{Key: k, Value: Normalize(f)})
		}
		return value.ObjectValue(members...)
	case value.Array:
		items := v.Items()
		for i := range items {
			items[i] = Normalize(items[i])
		}
		return value.ArrayValue(items...)
	}
	return v
}

// TypeOf is types.TypeOf with file references typed as files.
func TypeOf(v value.Value) types.Type {
	switch v.Kind() {
	case value.Object:
		if IsFileRef(v) {
			p, _ := v.Get("path")
			return types.File(fileExtension(p.Str()))
		}
		fields := make(map[string]types.Type, v.Len())
		for _, k := range v.Keys() {
			f, _ := v.Field(k)
			fields[k] = TypeOf(f)
		}
		return types.Dict(fields)
	case value.Array:
		items := v.Items()
		ts := make([]types.Type, len(items))
		for i, it := range items {
			ts[i] = TypeOf(it)
		}
		return types.List(types.Union(ts...))
	}
	return types.TypeOf(v)
}

// fileExtension keeps compound extensions such as "table.json".
func fileExtension(p string) string {
	base := path.Base(p)
	if i := strings.Index(base, "."); i >= 0 {
		return base[i+1:]
	}
	return ""
}
