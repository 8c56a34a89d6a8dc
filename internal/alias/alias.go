// Package alias derives GraphQL field aliases for parametrized query fields.
//
// An alias is "<prefix>__<part>_<part>...". Parts made only of ASCII letters
// and digits are used verbatim so ordinary names stay readable. Any other part
// is sanitized and the alias gains a "__<hash>" suffix over the original
// inputs; because verbatim parts never contain "_", a verbatim alias can never
// equal a hashed one.
package alias

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Make returns the alias for one instantiation of a field identified by
// prefix and parts. It is deterministic and always a legal GraphQL name.
func Make(prefix string, parts ...string) string {
	p, lossy := sanitize(prefix)
	if p == "" {
		p, lossy = "alias", true
	} else if p[0] >= '0' && p[0] <= '9' {
		p = "_" + p
	}

	var sb strings.Builder
	sb.WriteString(p)
	sb.WriteString("__")
	for i, part := range parts {
		s, l := sanitize(part)
		if s == "" {
			s, l = "_", true
		}
		lossy = lossy || l
		if i > 0 {
			sb.WriteByte('_')
		}
		sb.WriteString(s)
	}
	if lossy {
		sb.WriteString("__")
		sb.WriteString(strconv.FormatUint(digest(prefix, parts), 36))
	}
	return sb.String()
}

// Valid reports whether s is a legal GraphQL name.
func Valid(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func sanitize(s string) (string, bool) {
	lossy := false
	b := []byte(s)
	for i, c := range b {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			continue
		}
		b[i] = '_'
		lossy = true
	}
	return string(b), lossy
}

// digest hashes length-prefixed inputs so ("a", "bc") and ("ab", "c") differ.
func digest(prefix string, parts []string) uint64 {
	h := xxhash.New()
	var n [8]byte
	write := func(s string) {
		binary.LittleEndian.PutUint64(n[:], uint64(len(s)))
		_, _ = h.Write(n[:])
		_, _ = h.WriteString(s)
	}
	write(prefix)
	for _, p := range parts {
		write(p)
	}
	return h.Sum64()
}
