package docstring

import "strings"

// parseGoogle handles Google-style sections ("Args:", "Returns:", ...). It
// doubles as the plain-text parser: input without section headers becomes
// summary plus description.
func parseGoogle(text string) *Parsed {
	p := &Parsed{}
	lines := strings.Split(text, "\n")

	var free []string
	i := 0
	for i < len(lines) {
		t := strings.TrimSpace(lines[i])
		m := googleHeaderRe.FindStringSubmatch(t)
		if m == nil || indentOf(lines[i]) > 0 {
			free = append(free, lines[i])
			i++
			continue
		}

		header := m[1]
		body, next := indentedBody(lines, i+1)
		i = next

		switch header {
		case "Args", "Arguments", "Params", "Parameters":
			items, bad := parseItems(body)
			p.Params = append(p.Params, items...)
			free = keepBad(p, free, header, bad)
		case "Returns", "Yields":
			p.Returns = append(p.Returns, parseReturnItems(body)...)
		case "Raises", "Warns":
			items, bad := parseItems(body)
			for _, it := range items {
				p.Raises = append(p.Raises, Param{Type: it.Name, Desc: it.Desc})
			}
			free = keepBad(p, free, header, bad)
		case "Example", "Examples":
			if b := strings.Join(body, "\n"); strings.TrimSpace(b) != "" {
				p.Examples = append(p.Examples, strings.TrimRight(b, "\n"))
			}
		default:
			p.Sections = append(p.Sections, Section{
				Title: header,
				Body:  strings.TrimRight(strings.Join(body, "\n"), "\n"),
			})
		}
	}

	p.Summary, p.Description = splitSummary(strings.Join(free, "\n"))
	return p
}

// keepBad records a warning for entry lines that did not parse and keeps
// their text in the free-form description so nothing is lost.
func keepBad(p *Parsed, free []string, header string, bad []string) []string {
	if len(bad) == 0 {
		return free
	}
	p.Warnings = append(p.Warnings, "unparsable entries in "+header+" section")
	if len(free) > 0 {
		free = append(free, "")
	}
	return append(free, bad...)
}

// indentedBody collects the indented block following a section header,
// dedented, along with the index of the first line after it.
func indentedBody(lines []string, start int) ([]string, int) {
	end := start
	for end < len(lines) {
		if strings.TrimSpace(lines[end]) == "" || indentOf(lines[end]) > 0 {
			end++
			continue
		}
		break
	}

	body := lines[start:end]
	margin := -1
	for _, l := range body {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if n := indentOf(l); margin < 0 || n < margin {
			margin = n
		}
	}
	out := make([]string, 0, len(body))
	for _, l := range body {
		if strings.TrimSpace(l) == "" {
			out = append(out, "")
			continue
		}
		out = append(out, l[margin:])
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out, end
}

// parseItems reads "name (type): desc" entries, continuation lines indented
// beneath them. Lines that fit no entry are returned separately.
func parseItems(body []string) (items []Param, bad []string) {
	var cur *Param
	var desc []string

	flush := func() {
		if cur != nil {
			cur.Desc = joinDesc(append([]string{cur.Desc}, desc...))
			items = append(items, *cur)
		}
		cur = nil
		desc = nil
	}

	for _, line := range body {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if indentOf(line) > 0 {
			if cur != nil {
				desc = append(desc, line)
			} else {
				bad = append(bad, line)
			}
			continue
		}
		name, typ, d, ok := cutItem(line)
		if !ok {
			flush()
			bad = append(bad, line)
			continue
		}
		flush()
		cur = &Param{Name: name, Type: typ, Desc: d}
	}
	flush()
	return items, bad
}

// parseReturnItems handles both "type: description" entries and free-text
// return descriptions.
func parseReturnItems(body []string) []Param {
	items, bad := parseItems(body)
	if len(items) > 0 && len(bad) == 0 {
		out := make([]Param, 0, len(items))
		for _, it := range items {
			if it.Type == "" {
				// "bool: whether it worked" puts the type in name position.
				out = append(out, Param{Type: it.Name, Desc: it.Desc})
			} else {
				out = append(out, it)
			}
		}
		return out
	}
	if d := joinDesc(body); d != "" {
		return []Param{{Desc: d}}
	}
	return nil
}

// cutItem splits an entry line on the first colon outside brackets,
// yielding "name (type): desc" parts. Names must be a single token so prose
// containing a colon is not mistaken for an entry.
func cutItem(line string) (name, typ, desc string, ok bool) {
	depth := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ':':
			if depth != 0 {
				continue
			}
			head := strings.TrimSpace(line[:i])
			desc = strings.TrimSpace(line[i+1:])
			if head == "" {
				return "", "", "", false
			}
			if open := strings.Index(head, "("); open >= 0 && strings.HasSuffix(head, ")") {
				name = strings.TrimSpace(head[:open])
				typ = strings.TrimSpace(head[open+1 : len(head)-1])
			} else {
				name = head
			}
			if name == "" || strings.ContainsAny(name, " \t") {
				return "", "", "", false
			}
			return name, typ, desc, true
		}
	}
	return "", "", "", false
}
