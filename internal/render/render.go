// Package render converts the documentation model into Markdown and HTML
// pages. Rendering is read-only over the tree, so pages for independent
// modules can be produced in parallel.
package render

import (
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/jcdickinson/snakedoc/internal/doc"
	"github.com/jcdickinson/snakedoc/internal/docstring"
)

// Options controls rendering for one output flavor.
type Options struct {
	// Ext is the page extension, ".md" or ".html". Links between pages
	// use it.
	Ext string
	// Title is the site title, shown in HTML chrome.
	Title string
	// Style forces a docstring dialect instead of per-docstring detection.
	Style docstring.Style
	// ExternalLinks links dotted names outside the documented tree to
	// docs.python.org.
	ExternalLinks bool
	// TemplateDir overrides the embedded HTML page template.
	TemplateDir string
}

// Renderer renders pages for one built tree. It is safe for concurrent
// use once constructed.
type Renderer struct {
	tree  *doc.Tree
	opts  Options
	cache *docstring.Cache

	tmplOnce sync.Once
	tmpl     *template.Template
	tmplErr  error
}

func New(tree *doc.Tree, opts Options) *Renderer {
	if opts.Ext == "" {
		opts.Ext = ".md"
	}
	if opts.Title == "" && len(tree.Roots) > 0 {
		opts.Title = tree.Roots[0].Name
	}
	return &Renderer{tree: tree, opts: opts, cache: docstring.NewCache()}
}

// Page renders one module to Markdown and reports docstring warnings
// found along the way.
func (r *Renderer) Page(m *doc.Module) ([]byte, []doc.Warning) {
	var b strings.Builder
	var warns []doc.Warning

	kind := "Module"
	if m.Namespace {
		kind = "Namespace"
	}
	fmt.Fprintf(&b, "# %s `%s`\n", kind, m.Name)
	if m.Doc != "" {
		b.WriteString("\n")
		b.WriteString(r.docstringMD(m.Doc, m, m.Name, &warns))
	}

	if len(m.Submodules) > 0 {
		b.WriteString("\n## Sub-modules\n\n")
		for _, s := range m.Submodules {
			b.WriteString("* " + r.link(m, s.Name, s))
			if summary := r.summaryOf(s.Doc); summary != "" {
				b.WriteString(": " + summary)
			}
			b.WriteString("\n")
		}
	}

	if len(m.Variables) > 0 {
		b.WriteString("\n## Variables\n")
		for _, v := range m.Variables {
			r.variableMD(&b, v, "###", &warns)
		}
	}
	if len(m.Functions) > 0 {
		b.WriteString("\n## Functions\n")
		for _, f := range m.Functions {
			r.functionMD(&b, f, "###", &warns)
		}
	}
	if len(m.Classes) > 0 {
		b.WriteString("\n## Classes\n")
		for _, c := range m.Classes {
			r.classMD(&b, c, &warns)
		}
	}

	return []byte(b.String()), warns
}

func (r *Renderer) variableMD(b *strings.Builder, v *doc.Variable, level string, warns *[]doc.Warning) {
	fmt.Fprintf(b, "\n<a id=%q></a>\n", v.QualifiedName())
	head := v.Name
	if v.Annotation != "" {
		head += ": " + v.Annotation
	}
	fmt.Fprintf(b, "%s `%s`\n", level, head)
	if v.Instance {
		b.WriteString("\n*Instance variable*\n")
	}
	if v.Inherited != "" {
		fmt.Fprintf(b, "\n*Inherited from `%s`*\n", v.Inherited)
	}
	if v.Doc != "" {
		ctx := entityContext(v.Class, v.Module)
		b.WriteString("\n")
		b.WriteString(r.docstringMD(v.Doc, ctx, v.QualifiedName(), warns))
	}
}

func (r *Renderer) functionMD(b *strings.Builder, f *doc.Function, level string, warns *[]doc.Warning) {
	fmt.Fprintf(b, "\n<a id=%q></a>\n", f.QualifiedName())
	name := f.Name
	if f.Role == "async" {
		name = "async " + f.Name
	}
	// A property reads as an attribute; its getter's (self) is noise.
	sig := f.Signature.String()
	if f.Role == "property" {
		sig = ""
	} else if sig == "" {
		sig = "(...)"
	}
	fmt.Fprintf(b, "%s `%s%s`\n", level, name, sig)

	switch f.Role {
	case "static":
		b.WriteString("\n*Static method*\n")
	case "class":
		b.WriteString("\n*Class method*\n")
	case "property":
		b.WriteString("\n*Property*\n")
	}
	if f.Inherited != "" {
		fmt.Fprintf(b, "\n*Inherited from `%s`*\n", f.Inherited)
	}
	if f.Doc != "" {
		ctx := entityContext(f.Class, f.Module)
		b.WriteString("\n")
		b.WriteString(r.docstringMD(f.Doc, ctx, f.QualifiedName(), warns))
	}
	sourceMD(b, f.Source)
}

func (r *Renderer) classMD(b *strings.Builder, c *doc.Class, warns *[]doc.Warning) {
	fmt.Fprintf(b, "\n<a id=%q></a>\n", c.QualifiedName())
	fmt.Fprintf(b, "### Class `%s`\n", c.Name)

	if init := classInit(c); init != nil && init.Signature.Raw != "" {
		fmt.Fprintf(b, "\n```python\n%s%s\n```\n", c.Name, constructorSig(init.Signature))
	}

	if len(c.Bases) > 0 {
		parts := make([]string, len(c.Bases))
		for i, base := range c.Bases {
			parts[i] = r.link(c.Module, base, r.tree.Resolve(base, c.Module))
		}
		b.WriteString("\nBases: " + strings.Join(parts, ", ") + "\n")
	}

	if c.Doc != "" {
		b.WriteString("\n")
		b.WriteString(r.docstringMD(c.Doc, c, c.QualifiedName(), warns))
	}
	sourceMD(b, c.Source)

	if len(c.Variables) > 0 {
		b.WriteString("\n#### Attributes\n")
		for _, v := range c.Variables {
			r.variableMD(b, v, "#####", warns)
		}
	}
	if len(c.Functions) > 0 {
		b.WriteString("\n#### Methods\n")
		for _, f := range c.Functions {
			r.functionMD(b, f, "#####", warns)
		}
	}
}

// docstringMD renders one parsed docstring as Markdown and linkifies
// resolvable references against the entity it belongs to.
func (r *Renderer) docstringMD(raw string, ctx doc.Entity, name string, warns *[]doc.Warning) string {
	p := r.cache.Parse(raw, r.opts.Style)
	for _, w := range p.Warnings {
		*warns = append(*warns, doc.Warning{Name: name, Detail: w})
	}

	var b strings.Builder
	if p.Summary != "" {
		b.WriteString(p.Summary + "\n")
	}
	if p.Description != "" {
		b.WriteString("\n" + p.Description + "\n")
	}
	if len(p.Params) > 0 {
		b.WriteString("\n**Arguments**\n\n")
		for _, pa := range p.Params {
			b.WriteString("* **`" + pa.Name + "`**")
			if pa.Type != "" {
				b.WriteString(" (`" + pa.Type + "`)")
			}
			if pa.Desc != "" {
				b.WriteString(": " + pa.Desc)
			}
			b.WriteString("\n")
		}
	}
	if len(p.Returns) > 0 {
		b.WriteString("\n**Returns**\n\n")
		for _, ret := range p.Returns {
			b.WriteString("* ")
			if ret.Type != "" {
				b.WriteString("`" + ret.Type + "`")
				if ret.Desc != "" {
					b.WriteString(": ")
				}
			}
			b.WriteString(ret.Desc + "\n")
		}
	}
	if len(p.Raises) > 0 {
		b.WriteString("\n**Raises**\n\n")
		for _, ra := range p.Raises {
			b.WriteString("* ")
			if ra.Type != "" {
				b.WriteString("`" + ra.Type + "`")
				if ra.Desc != "" {
					b.WriteString(": ")
				}
			}
			b.WriteString(ra.Desc + "\n")
		}
	}
	for _, ex := range p.Examples {
		b.WriteString("\n**Examples**\n\n```python\n" + strings.TrimRight(ex, "\n") + "\n```\n")
	}
	for _, s := range p.Sections {
		b.WriteString("\n**" + s.Title + "**\n\n" + s.Body + "\n")
	}

	return r.linkify(b.String(), ctx)
}

func (r *Renderer) summaryOf(raw string) string {
	if raw == "" {
		return ""
	}
	return r.cache.Parse(raw, r.opts.Style).Summary
}

func classInit(c *doc.Class) *doc.Function {
	for _, f := range c.Functions {
		if f.Name == "__init__" {
			return f
		}
	}
	return nil
}

func entityContext(c *doc.Class, m *doc.Module) doc.Entity {
	if c != nil {
		return c
	}
	return m
}

func sourceMD(b *strings.Builder, src string) {
	if src == "" {
		return
	}
	b.WriteString("\n<details>\n<summary>Source</summary>\n\n```python\n")
	b.WriteString(strings.TrimRight(dedentSource(src), "\n"))
	b.WriteString("\n```\n\n</details>\n")
}
