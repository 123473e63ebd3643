// Package pysig parses Python signature strings as produced by
// inspect.signature, e.g. "(a, b=1, *args, c: int = 2, **kwargs) -> str".
package pysig

import (
	"strings"
)

type Param struct {
	Name       string // includes * / ** prefixes for variadic params
	Annotation string
	Default    string
}

type Signature struct {
	Raw    string
	Params []Param
	Return string
}

// Parse splits a signature string into structured parameters and a return
// annotation. It never fails: input it cannot make sense of yields a
// Signature carrying only Raw, which renderers fall back to verbatim.
func Parse(sig string) Signature {
	out := Signature{Raw: sig}

	s := strings.TrimSpace(sig)
	if !strings.HasPrefix(s, "(") {
		return out
	}

	end := matchingParen(s)
	if end < 0 {
		return out
	}

	inner := s[1:end]
	rest := strings.TrimSpace(s[end+1:])
	if arrow, ok := strings.CutPrefix(rest, "->"); ok {
		out.Return = strings.TrimSpace(arrow)
	}

	for _, part := range splitTop(inner, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out.Params = append(out.Params, parseParam(part))
	}
	return out
}

// parseParam handles "name", "name: ann", "name=default", "name: ann = default",
// plus the bare "*", "/", "*args" and "**kwargs" markers.
func parseParam(s string) Param {
	var p Param

	// Split off the default at the first top-level "=" that is not part of
	// the annotation. With an annotation present the default follows it, so
	// scanning the whole string at depth zero is safe either way.
	if eq := indexTop(s, '='); eq >= 0 {
		p.Default = strings.TrimSpace(s[eq+1:])
		s = strings.TrimSpace(s[:eq])
	}

	if colon := indexTop(s, ':'); colon >= 0 {
		p.Annotation = strings.TrimSpace(s[colon+1:])
		s = strings.TrimSpace(s[:colon])
	}

	p.Name = s
	return p
}

// matchingParen returns the index of the ")" closing the "(" at position 0,
// or -1 when unbalanced.
func matchingParen(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 && c == ')' {
				return i
			}
		case '\'', '"':
			i = skipString(s, i)
		}
	}
	return -1
}

// splitTop splits s on sep occurring outside brackets and string literals.
func splitTop(s string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '\'', '"':
			i = skipString(s, i)
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// indexTop returns the index of the first sep outside brackets and string
// literals, or -1.
func indexTop(s string, sep byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '\'', '"':
			i = skipString(s, i)
		case sep:
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// skipString advances past a quoted literal starting at i, honoring
// backslash escapes. Returns the index of the closing quote, or the last
// index when unterminated.
func skipString(s string, i int) int {
	quote := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case quote:
			return j
		}
	}
	return len(s) - 1
}

// String reassembles the signature from its parsed parts, normalizing
// whitespace. Unparsed signatures come back as Raw.
func (s Signature) String() string {
	if s.Params == nil && s.Return == "" {
		return s.Raw
	}
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		if p.Annotation != "" {
			b.WriteString(": ")
			b.WriteString(p.Annotation)
		}
		if p.Default != "" {
			if p.Annotation != "" {
				b.WriteString(" = ")
			} else {
				b.WriteString("=")
			}
			b.WriteString(p.Default)
		}
	}
	b.WriteByte(')')
	if s.Return != "" {
		b.WriteString(" -> ")
		b.WriteString(s.Return)
	}
	return b.String()
}
