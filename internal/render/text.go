package render

import (
	"html"
	"path"
	"strings"

	"github.com/jcdickinson/snakedoc/internal/doc"
	"github.com/jcdickinson/snakedoc/internal/pysig"
)

// PagePath returns the output path for a module page: the dotted module
// name with dots turned into path separators, plus the extension.
func PagePath(module, ext string) string {
	return strings.ReplaceAll(module, ".", "/") + ext
}

// relPath returns a link from one output page to another, both given as
// slash paths relative to the site root.
func relPath(from, to string) string {
	dir := path.Dir(from)
	if dir == "." {
		return to
	}
	return strings.Repeat("../", strings.Count(dir, "/")+1) + to
}

// rootRel returns the prefix that reaches the site root from a page.
func rootRel(page string) string {
	dir := path.Dir(page)
	if dir == "." {
		return ""
	}
	return strings.Repeat("../", strings.Count(dir, "/")+1)
}

// Escape escapes text for literal inclusion in HTML.
func Escape(s string) string { return html.EscapeString(s) }

// link renders a resolved entity as a code span, hyperlinked when the
// target has a page or an external URL.
func (r *Renderer) link(from *doc.Module, name string, target doc.Entity) string {
	if href := r.url(from, target); href != "" {
		return "[`" + name + "`](" + href + ")"
	}
	return "`" + name + "`"
}

// url returns the href from a module's page to a resolved entity, or ""
// when the target has no page.
func (r *Renderer) url(from *doc.Module, target doc.Entity) string {
	switch e := target.(type) {
	case *doc.Module:
		return relPath(PagePath(from.Name, r.opts.Ext), PagePath(e.Name, r.opts.Ext))
	case *doc.Class:
		return r.memberURL(from, e.Module, e.QualifiedName())
	case *doc.Function:
		return r.memberURL(from, e.Module, e.QualifiedName())
	case *doc.Variable:
		return r.memberURL(from, e.Module, e.QualifiedName())
	case doc.External:
		return r.externalURL(e.Name)
	}
	return ""
}

func (r *Renderer) memberURL(from, owner *doc.Module, qualname string) string {
	anchor := "#" + qualname
	if owner == from {
		return anchor
	}
	return relPath(PagePath(from.Name, r.opts.Ext), PagePath(owner.Name, r.opts.Ext)) + anchor
}

// externalURL guesses a docs.python.org link for a dotted external name.
// Everything before the last segment is treated as the module. Single
// names get no link; there is no way to tell a builtin from a local
// variable mention.
func (r *Renderer) externalURL(name string) string {
	if !r.opts.ExternalLinks {
		return ""
	}
	i := strings.LastIndex(name, ".")
	if i <= 0 {
		return ""
	}
	return "https://docs.python.org/3/library/" + name[:i] + ".html#" + name
}

// constructorSig formats an __init__ signature for display after a class
// name: the self parameter and the return annotation are dropped.
func constructorSig(sig pysig.Signature) string {
	s := sig.String()
	if sig.Return != "" {
		s = strings.TrimSuffix(s, " -> "+sig.Return)
	}
	if strings.HasPrefix(s, "(self, ") {
		s = "(" + s[len("(self, "):]
	} else if strings.HasPrefix(s, "(self)") {
		s = "()" + s[len("(self)"):]
	}
	return s
}

// dedentSource strips the common leading indentation from source text, so
// method bodies extracted mid-class sit flush in code fences.
func dedentSource(src string) string {
	lines := strings.Split(src, "\n")
	margin := -1
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(trimmed)
		if margin < 0 || indent < margin {
			margin = indent
		}
	}
	if margin <= 0 {
		return src
	}
	for i, line := range lines {
		if len(line) >= margin {
			lines[i] = line[margin:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}
