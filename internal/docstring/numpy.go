package docstring

import "strings"

// parseNumpy handles NumPy-style sections: a header word underlined with
// dashes, entries as "name : type" with descriptions indented beneath.
func parseNumpy(text string) *Parsed {
	p := &Parsed{}
	lines := strings.Split(text, "\n")

	var free []string
	i := 0
	for i < len(lines) {
		header, ok := numpySectionAt(lines, i)
		if !ok {
			free = append(free, lines[i])
			i++
			continue
		}
		if len(strings.TrimSpace(lines[i+1])) != len(header) {
			p.Warnings = append(p.Warnings, "section underline length mismatch for "+header)
		}

		body, next := numpyBody(lines, i+2)
		i = next

		switch header {
		case "Parameters", "Other Parameters":
			items, bad := parseNumpyItems(body)
			p.Params = append(p.Params, items...)
			free = keepBad(p, free, header, bad)
		case "Returns", "Yields", "Receives":
			items, bad := parseNumpyItems(body)
			for _, it := range items {
				if it.Type == "" {
					// Type-only form: "int" on the entry line.
					it.Type, it.Name = it.Name, ""
				}
				p.Returns = append(p.Returns, it)
			}
			free = keepBad(p, free, header, bad)
		case "Raises", "Warns":
			items, bad := parseNumpyItems(body)
			for _, it := range items {
				p.Raises = append(p.Raises, Param{Type: it.Name, Desc: it.Desc})
			}
			free = keepBad(p, free, header, bad)
		case "Examples":
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

// numpySectionAt reports whether lines[i] starts a dash-underlined section
// header at the top indent level.
func numpySectionAt(lines []string, i int) (string, bool) {
	if i+1 >= len(lines) || indentOf(lines[i]) > 0 {
		return "", false
	}
	header := strings.TrimSpace(lines[i])
	if header == "" || !numpyDashRe.MatchString(strings.TrimSpace(lines[i+1])) {
		return "", false
	}
	return header, true
}

// numpyBody collects section content up to the next underlined header.
func numpyBody(lines []string, start int) ([]string, int) {
	end := start
	for end < len(lines) {
		if _, ok := numpySectionAt(lines, end); ok {
			break
		}
		end++
	}
	body := lines[start:end]
	for len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == "" {
		body = body[:len(body)-1]
	}
	return body, end
}

// parseNumpyItems reads "name : type" entries with indented descriptions.
// A bare name line is an entry without a type. Top-level lines that look
// like prose are returned as bad.
func parseNumpyItems(body []string) (items []Param, bad []string) {
	var cur *Param
	var desc []string

	flush := func() {
		if cur != nil {
			cur.Desc = joinDesc(desc)
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

		t := strings.TrimSpace(line)
		name, typ, _ := strings.Cut(t, ":")
		name = strings.TrimSpace(name)
		typ = strings.TrimSpace(typ)
		// Allow "x1, x2 : array_like" but reject prose that happens to
		// contain a colon.
		if name == "" || strings.ContainsAny(strings.ReplaceAll(name, ", ", ","), " \t") {
			flush()
			bad = append(bad, line)
			continue
		}
		flush()
		cur = &Param{Name: name, Type: typ}
	}
	flush()
	return items, bad
}
