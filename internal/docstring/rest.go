package docstring

import (
	"regexp"
	"strings"
)

var restLineRe = regexp.MustCompile(`^:([a-zA-Z]+)(?:\s+([^:]+))?:\s?(.*)$`)

type restField struct {
	tag  string
	arg  string
	body []string
	raw  []string // original lines, for tags passed through untouched
}

// parseRest handles reStructuredText field lists (":param x:", ":returns:",
// ":raises ValueError:", ...). Field tags it does not model are preserved in
// the description verbatim.
func parseRest(text string) *Parsed {
	p := &Parsed{}
	lines := strings.Split(text, "\n")

	var free []string
	var fields []restField
	for i := 0; i < len(lines); i++ {
		t := strings.TrimSpace(lines[i])
		m := restLineRe.FindStringSubmatch(t)
		if m == nil || indentOf(lines[i]) > 0 {
			free = append(free, lines[i])
			continue
		}

		f := restField{tag: strings.ToLower(m[1]), arg: strings.TrimSpace(m[2]), raw: []string{lines[i]}}
		if m[3] != "" {
			f.body = append(f.body, m[3])
		}
		for i+1 < len(lines) && strings.TrimSpace(lines[i+1]) != "" && indentOf(lines[i+1]) > 0 {
			i++
			f.body = append(f.body, lines[i])
			f.raw = append(f.raw, lines[i])
		}
		fields = append(fields, f)
	}

	byName := make(map[string]int)
	param := func(name string) *Param {
		if idx, ok := byName[name]; ok {
			return &p.Params[idx]
		}
		p.Params = append(p.Params, Param{Name: name})
		byName[name] = len(p.Params) - 1
		return &p.Params[len(p.Params)-1]
	}

	for _, f := range fields {
		desc := joinDesc(f.body)
		switch f.tag {
		case "param", "parameter", "arg", "argument", "key", "keyword":
			name, typ := f.arg, ""
			if parts := strings.Fields(f.arg); len(parts) >= 2 {
				// ":param int x: desc" carries the type inline.
				typ = strings.Join(parts[:len(parts)-1], " ")
				name = parts[len(parts)-1]
			}
			if name == "" {
				p.Warnings = append(p.Warnings, ":"+f.tag+": field is missing a name")
				continue
			}
			pp := param(name)
			pp.Desc = desc
			if typ != "" {
				pp.Type = typ
			}
		case "type":
			if f.arg == "" {
				p.Warnings = append(p.Warnings, ":type: field is missing a name")
				continue
			}
			param(f.arg).Type = desc
		case "return", "returns":
			p.Returns = append(p.Returns, Param{Desc: desc})
		case "rtype":
			if n := len(p.Returns); n > 0 && p.Returns[n-1].Type == "" {
				p.Returns[n-1].Type = desc
			} else {
				p.Returns = append(p.Returns, Param{Type: desc})
			}
		case "raise", "raises", "except", "exception":
			if f.arg == "" {
				p.Warnings = append(p.Warnings, ":"+f.tag+": field is missing an exception type")
				continue
			}
			p.Raises = append(p.Raises, Param{Type: f.arg, Desc: desc})
		default:
			// :ivar:, :var:, :cvar:, :vartype:, and anything else stay in
			// the description as written.
			if len(free) > 0 && free[len(free)-1] != "" {
				free = append(free, "")
			}
			free = append(free, f.raw...)
		}
	}

	p.Summary, p.Description = splitSummary(strings.Join(free, "\n"))
	return p
}
