package language

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/hanpama/artgraph/internal/value"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
)

func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Format prints doc in canonical form.
func Format(doc *QueryDocument) string {
	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatQueryDocument(doc)
	return buf.String()
}

// Literal renders v as a GraphQL input value literal.
func Literal(v value.Value) string {
	var sb strings.Builder
	writeLiteral(&sb, v)
	return sb.String()
}

func writeLiteral(sb *strings.Builder, v value.Value) {
	switch v.Kind() {
	case value.Null:
		sb.WriteString("null")
	case value.Bool, value.Number:
		sb.WriteString(v.String())
	case value.String:
		// GraphQL string escapes are a subset of JSON's; json.Marshal only
		// emits \", \\, \n, \r, \t and \uXXXX, which GraphQL accepts.
		b, _ := json.Marshal(v.Str())
		sb.Write(b)
	case value.Array:
		sb.WriteByte('[')
		for i, it := range v.Items() {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeLiteral(sb, it)
		}
		sb.WriteByte(']')
	case value.Object:
		keys := v.Keys()
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			f, _ := v.Field(k)
			sb.WriteString(k)
			sb.WriteString(": ")
			writeLiteral(sb, f)
		}
		sb.WriteByte('}')
	}
}
