package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	gm "github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	gmparser "github.com/gomarkdown/markdown/parser"

	"github.com/jcdickinson/snakedoc/internal/doc"
)

//go:embed templates/page.html.tmpl
var pageTemplate string

// NavLink is one sidebar entry.
type NavLink struct {
	Name    string
	Href    string
	Depth   int
	Current bool
}

type pageData struct {
	Title   string
	Module  string
	RootRel string
	Nav     []NavLink
	Content template.HTML
}

// HTMLPage renders one module as a complete HTML page: the Markdown page
// converted to HTML, wrapped in the site chrome.
func (r *Renderer) HTMLPage(m *doc.Module) ([]byte, []doc.Warning, error) {
	md, warns := r.Page(m)
	tmpl, err := r.template()
	if err != nil {
		return nil, warns, err
	}
	page := PagePath(m.Name, r.opts.Ext)
	data := pageData{
		Title:   r.opts.Title,
		Module:  m.Name,
		RootRel: rootRel(page),
		Nav:     r.nav(PagePath(m.Name, r.opts.Ext), m),
		Content: template.HTML(markdownToHTML(md)),
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, warns, fmt.Errorf("rendering page for %s: %w", m.Name, err)
	}
	return buf.Bytes(), warns, nil
}

// IndexPage renders the site landing page listing the root modules.
func (r *Renderer) IndexPage() ([]byte, error) {
	var b strings.Builder
	// The title is plain text from config; the markdown pipeline would
	// otherwise pass something like "docs <beta>" through as inline HTML.
	fmt.Fprintf(&b, "# %s\n\n## Modules\n\n", Escape(r.opts.Title))
	for _, m := range r.tree.Roots {
		fmt.Fprintf(&b, "* [`%s`](%s)", m.Name, PagePath(m.Name, r.opts.Ext))
		if s := r.summaryOf(m.Doc); s != "" {
			b.WriteString(": " + s)
		}
		b.WriteString("\n")
	}

	tmpl, err := r.template()
	if err != nil {
		return nil, err
	}
	data := pageData{
		Title:   r.opts.Title,
		Module:  r.opts.Title,
		RootRel: "",
		Nav:     r.nav("index"+r.opts.Ext, nil),
		Content: template.HTML(markdownToHTML([]byte(b.String()))),
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering index page: %w", err)
	}
	return buf.Bytes(), nil
}

// nav builds the sidebar for a page, with hrefs relative to it.
func (r *Renderer) nav(fromPage string, current *doc.Module) []NavLink {
	var nav []NavLink
	for _, m := range r.tree.Modules() {
		nav = append(nav, NavLink{
			Name:    m.Basename(),
			Href:    relPath(fromPage, PagePath(m.Name, r.opts.Ext)),
			Depth:   strings.Count(m.Name, "."),
			Current: m == current,
		})
	}
	return nav
}

func (r *Renderer) template() (*template.Template, error) {
	r.tmplOnce.Do(func() {
		text := pageTemplate
		if r.opts.TemplateDir != "" {
			data, err := os.ReadFile(filepath.Join(r.opts.TemplateDir, "page.html.tmpl"))
			if err != nil {
				r.tmplErr = fmt.Errorf("reading template override: %w", err)
				return
			}
			text = string(data)
		}
		r.tmpl, r.tmplErr = template.New("page").Parse(text)
	})
	return r.tmpl, r.tmplErr
}

func markdownToHTML(src []byte) []byte {
	p := gmparser.NewWithExtensions(gmparser.CommonExtensions | gmparser.Autolink)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	return gm.ToHTML(src, p, renderer)
}
