// Package docstring normalizes Python docstrings written in the Google,
// NumPy, or reStructuredText conventions into a structured form. Parsing
// never fails: text that cannot be understood degrades to a summary-only
// result with recorded warnings.
package docstring

import (
	"regexp"
	"strings"
	"sync"
)

type Style string

const (
	StyleAuto   Style = "auto"
	StyleGoogle Style = "google"
	StyleNumpy  Style = "numpy"
	StyleRest   Style = "rest"
)

// Param is one named entry in a parameters, returns, or raises listing.
// Returns entries usually carry only Type and Desc; raises entries only
// Type and Desc.
type Param struct {
	Name string
	Type string
	Desc string
}

// Section is a named free-text block the dialect parser recognized but has
// no dedicated field for (Notes, Attributes, See Also, ...).
type Section struct {
	Title string
	Body  string
}

// Parsed is the normalized form of one docstring. Derived data: never
// mutated after Parse returns.
type Parsed struct {
	Summary     string
	Description string
	Params      []Param
	Returns     []Param
	Raises      []Param
	Examples    []string
	Sections    []Section
	Warnings    []string
}

// Parse normalizes raw into a Parsed. StyleAuto detects the dialect from
// section markers and falls back to a plain summary/description split when
// none match. Malformed structure is recovered: if nothing structured could
// be salvaged the whole raw text becomes the summary, verbatim, and the
// problems are recorded as warnings.
func Parse(raw string, style Style) *Parsed {
	text := dedent(raw)
	if strings.TrimSpace(text) == "" {
		return &Parsed{}
	}

	if style == StyleAuto || style == "" {
		style = detect(text)
	}

	var p *Parsed
	switch style {
	case StyleNumpy:
		p = parseNumpy(text)
	case StyleRest:
		p = parseRest(text)
	default:
		p = parseGoogle(text)
	}

	// Nothing structured survived and something went wrong: degrade to the
	// raw text verbatim so no content is silently lost.
	if len(p.Warnings) > 0 && !p.structured() {
		return &Parsed{Summary: raw, Warnings: p.Warnings}
	}
	return p
}

func (p *Parsed) structured() bool {
	return len(p.Params) > 0 || len(p.Returns) > 0 || len(p.Raises) > 0 ||
		len(p.Examples) > 0 || len(p.Sections) > 0
}

// Cache memoizes Parse results for one build invocation. Safe for
// concurrent use by parallel renderers.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]*Parsed
}

type cacheKey struct {
	raw   string
	style Style
}

func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]*Parsed)}
}

func (c *Cache) Parse(raw string, style Style) *Parsed {
	key := cacheKey{raw, style}
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.entries[key]; ok {
		return p
	}
	p := Parse(raw, style)
	c.entries[key] = p
	return p
}

var (
	restFieldRe    = regexp.MustCompile(`^:(param|parameter|arg|argument|key|keyword|type|returns?|rtype|raises?|except|exception|ivar|var|vartype|cvar)\b[^:]*:`)
	numpyDashRe    = regexp.MustCompile(`^-{3,}\s*$`)
	googleHeaderRe = regexp.MustCompile(`^(Args|Arguments|Params|Parameters|Returns|Yields|Raises|Warns|Example|Examples|Attributes|Note|Notes|Warning|Warnings|See Also|References|Todo)\s*:\s*$`)
	numpyHeaderRe  = regexp.MustCompile(`^(Parameters|Other Parameters|Returns|Yields|Receives|Raises|Warns|Warnings|Attributes|Methods|Examples|Notes|See Also|References)\s*$`)
)

// detect picks a dialect from the first marker found. reST field lists are
// unambiguous, NumPy needs its dashed underline, Google headers are checked
// last since words like "Parameters:" overlap the other styles.
func detect(text string) Style {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if restFieldRe.MatchString(t) {
			return StyleRest
		}
		if numpyHeaderRe.MatchString(t) && i+1 < len(lines) && numpyDashRe.MatchString(strings.TrimSpace(lines[i+1])) {
			return StyleNumpy
		}
		if googleHeaderRe.MatchString(t) {
			return StyleGoogle
		}
	}
	return StyleGoogle
}

// dedent implements the PEP 257 trim: the first line is kept as-is, the
// common leading whitespace of all following non-blank lines is stripped,
// and leading/trailing blank lines are dropped.
func dedent(raw string) string {
	lines := strings.Split(raw, "\n")
	if len(lines) < 2 {
		return strings.TrimSpace(raw)
	}

	margin := -1
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := indentOf(line)
		if margin < 0 || n < margin {
			margin = n
		}
	}

	out := []string{strings.TrimSpace(lines[0])}
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			out = append(out, "")
			continue
		}
		if margin > 0 && len(line) >= margin {
			line = line[margin:]
		}
		out = append(out, strings.TrimRight(line, " \t"))
	}

	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// splitSummary separates the first paragraph from the rest of a free-text
// block.
func splitSummary(text string) (summary, rest string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}
	if idx := strings.Index(text, "\n\n"); idx >= 0 {
		return strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx+2:])
	}
	return text, ""
}

// joinDesc collapses continuation lines of one entry into a single line.
func joinDesc(lines []string) string {
	var parts []string
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
