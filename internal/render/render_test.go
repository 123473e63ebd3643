package render

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jcdickinson/snakedoc/internal/doc"
	"github.com/jcdickinson/snakedoc/internal/extract"
	"github.com/jcdickinson/snakedoc/internal/pysig"
)

type fixtureProvider struct {
	modules map[string]*extract.RawModule
	members map[string]*extract.RawMember
}

func newFixtureProvider(mods ...*extract.RawModule) *fixtureProvider {
	p := &fixtureProvider{
		modules: make(map[string]*extract.RawModule),
		members: make(map[string]*extract.RawMember),
	}
	var walk func(ms []extract.RawMember)
	walk = func(ms []extract.RawMember) {
		for i := range ms {
			p.members[ms[i].Qualname] = &ms[i]
			walk(ms[i].Members)
		}
	}
	for _, m := range mods {
		p.modules[m.Name] = m
		walk(m.Members)
	}
	return p
}

func (p *fixtureProvider) ListMembers(_ context.Context, module string) (*extract.RawModule, error) {
	if m, ok := p.modules[module]; ok {
		return m, nil
	}
	return nil, &extract.ImportError{Module: module, Detail: "no fixture"}
}

func (p *fixtureProvider) MRO(_ context.Context, class string) ([]string, error) {
	if m, ok := p.members[class]; ok {
		return m.MRO, nil
	}
	return nil, nil
}

func (p *fixtureProvider) Signature(_ context.Context, function string) (string, error) {
	if m, ok := p.members[function]; ok {
		return m.Signature, nil
	}
	return "", nil
}

func (p *fixtureProvider) Source(_ context.Context, qualname string) (string, error) {
	if m, ok := p.members[qualname]; ok {
		return m.Source, nil
	}
	return "", nil
}

func testTree(t *testing.T, opts doc.Options) *doc.Tree {
	t.Helper()
	p := newFixtureProvider(
		&extract.RawModule{
			Name:       "pkg",
			Doc:        "Top level package.\n\nBuild things with `make_widget`, never `os.path.join`.",
			Submodules: []string{"pkg.sub"},
			Members: []extract.RawMember{
				{Kind: extract.KindClass, Name: "Base", Qualname: "pkg.Base",
					Doc: "Base widget.", Bases: []string{"object"}, MRO: []string{"object"}},
				{Kind: extract.KindClass, Name: "Widget", Qualname: "pkg.Widget",
					Doc: "A widget.", Bases: []string{"pkg.Base"}, MRO: []string{"pkg.Base", "object"},
					Source: "class Widget(Base):\n    pass\n",
					Members: []extract.RawMember{
						{Kind: extract.KindFunction, Name: "__init__", Qualname: "pkg.Widget.__init__",
							Signature: "(self, spec, scale=1)"},
						{Kind: extract.KindFunction, Name: "render", Qualname: "pkg.Widget.render",
							Doc: "Draw the widget.", Signature: "(self) -> str",
							Source: "    def render(self):\n        return ''\n"},
					}},
				{Kind: extract.KindFunction, Name: "make_widget", Qualname: "pkg.make_widget",
					Signature: "(spec, *, strict=False) -> Widget",
					Doc:       "Build a widget.\n\nArgs:\n    spec (str): What to build.\n    strict: Fail on unknown keys.\n\nReturns:\n    Widget: The built widget.\n"},
				{Kind: extract.KindVariable, Name: "DEBUG", Qualname: "pkg.DEBUG",
					Doc: "Debug flag.", Annotation: "bool"},
			},
		},
		&extract.RawModule{Name: "pkg.sub", Doc: "Helpers live here."},
	)
	tree, err := doc.Build(context.Background(), p, []string{"pkg"}, opts)
	if err != nil {
		t.Fatal(err)
	}
	return tree
}

func TestPage_ModuleLayout(t *testing.T) {
	tree := testTree(t, doc.Options{})
	r := New(tree, Options{})

	md, warns := r.Page(tree.Roots[0])
	if len(warns) != 0 {
		t.Errorf("unexpected warnings: %v", warns)
	}
	got := string(md)

	for _, want := range []string{
		"# Module `pkg`",
		"## Sub-modules",
		"* [`pkg.sub`](pkg/sub.md): Helpers live here.",
		"## Variables",
		"### `DEBUG: bool`",
		"## Functions",
		"<a id=\"pkg.make_widget\"></a>",
		"### `make_widget(spec, *, strict=False) -> Widget`",
		"**Arguments**",
		"* **`spec`** (`str`): What to build.",
		"* **`strict`**: Fail on unknown keys.",
		"**Returns**",
		"* [`Widget`](#pkg.Widget): The built widget.",
		"## Classes",
		"### Class `Widget`",
		"```python\nWidget(spec, scale=1)\n```",
		"Bases: [`pkg.Base`](#pkg.Base)",
		"#### Methods",
		"##### `render(self) -> str`",
		"<details>",
		"def render(self):",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestPage_LinkifiesKnownRefs(t *testing.T) {
	tree := testTree(t, doc.Options{})
	r := New(tree, Options{})

	md, _ := r.Page(tree.Roots[0])
	got := string(md)

	if !strings.Contains(got, "[`make_widget`](#pkg.make_widget)") {
		t.Error("known reference not linkified")
	}
	// Unknown references stay plain code, no link, no error.
	if strings.Contains(got, "[`os.path.join`]") {
		t.Error("external reference linked without external links enabled")
	}
}

func TestPage_ExternalLinks(t *testing.T) {
	tree := testTree(t, doc.Options{})
	r := New(tree, Options{ExternalLinks: true})

	md, _ := r.Page(tree.Roots[0])
	want := "[`os.path.join`](https://docs.python.org/3/library/os.path.html#os.path.join)"
	if !strings.Contains(string(md), want) {
		t.Errorf("page missing %q", want)
	}
}

func TestPage_ExternalBase(t *testing.T) {
	p := newFixtureProvider(&extract.RawModule{
		Name: "zoo",
		Members: []extract.RawMember{
			{Kind: extract.KindClass, Name: "Dog", Qualname: "zoo.Dog",
				Doc: "A good dog.", Bases: []string{"animals.Animal"}, MRO: []string{"animals.Animal", "object"}},
		},
	})
	tree, err := doc.Build(context.Background(), p, []string{"zoo"}, doc.Options{})
	if err != nil {
		t.Fatal(err)
	}

	if got := tree.Resolve("animals.Animal", tree.Roots[0]); got != (doc.External{Name: "animals.Animal"}) {
		t.Errorf("base resolved to %#v, want External", got)
	}

	md, _ := New(tree, Options{}).Page(tree.Roots[0])
	if !strings.Contains(string(md), "Bases: `animals.Animal`") {
		t.Error("external base not rendered as plain code")
	}
	if strings.Contains(string(md), "[`animals.Animal`]") {
		t.Error("external base linked without external links enabled")
	}
}

func TestPage_PropertyWithoutCallSignature(t *testing.T) {
	p := newFixtureProvider(&extract.RawModule{
		Name: "pkg",
		Members: []extract.RawMember{
			{Kind: extract.KindClass, Name: "Box", Qualname: "pkg.Box",
				Doc: "A box.", Bases: []string{"object"}, MRO: []string{"object"},
				Members: []extract.RawMember{
					{Kind: extract.KindFunction, Name: "volume", Qualname: "pkg.Box.volume",
						Doc: "Total volume.", Signature: "(self)", Role: "property"},
				}},
		},
	})
	tree, err := doc.Build(context.Background(), p, []string{"pkg"}, doc.Options{})
	if err != nil {
		t.Fatal(err)
	}

	md, _ := New(tree, Options{}).Page(tree.Roots[0])
	if !strings.Contains(string(md), "##### `volume`\n") {
		t.Error("property heading should omit the getter signature")
	}
	if !strings.Contains(string(md), "*Property*") {
		t.Error("property marker missing")
	}
}

func TestPage_Deterministic(t *testing.T) {
	tree := testTree(t, doc.Options{})
	r := New(tree, Options{})

	first, _ := r.Page(tree.Roots[0])
	second, _ := r.Page(tree.Roots[0])
	if !bytes.Equal(first, second) {
		t.Error("rendering the same module twice must produce identical bytes")
	}
}

func TestPage_StableAcrossBuilds(t *testing.T) {
	first := testTree(t, doc.Options{})
	second := testTree(t, doc.Options{})

	ra := New(first, Options{})
	rb := New(second, Options{})
	ma, mb := first.Modules(), second.Modules()
	if len(ma) != len(mb) {
		t.Fatalf("module count differs across builds: %d vs %d", len(ma), len(mb))
	}
	for i := range ma {
		a, _ := ra.Page(ma[i])
		b, _ := rb.Page(mb[i])
		if !bytes.Equal(a, b) {
			t.Errorf("page for %s differs across builds of unchanged input", ma[i].Name)
		}
	}
}

func TestPage_ExcludeSource(t *testing.T) {
	tree := testTree(t, doc.Options{ExcludeSource: true})
	r := New(tree, Options{})

	md, _ := r.Page(tree.Roots[0])
	if strings.Contains(string(md), "<details>") {
		t.Error("source blocks present despite exclusion")
	}
}

func TestPage_DocstringWarnings(t *testing.T) {
	p := newFixtureProvider(&extract.RawModule{
		Name: "pkg",
		Members: []extract.RawMember{
			{Kind: extract.KindFunction, Name: "bad", Qualname: "pkg.bad",
				Signature: "()",
				Doc:       "Do things.\n\nArgs:\n    this line has no separator\n"},
		},
	})
	tree, err := doc.Build(context.Background(), p, []string{"pkg"}, doc.Options{})
	if err != nil {
		t.Fatal(err)
	}

	_, warns := New(tree, Options{}).Page(tree.Roots[0])
	if len(warns) == 0 {
		t.Fatal("expected a docstring warning")
	}
	if warns[0].Name != "pkg.bad" {
		t.Errorf("warning name = %q, want pkg.bad", warns[0].Name)
	}
}

func TestHTMLPage(t *testing.T) {
	tree := testTree(t, doc.Options{})
	r := New(tree, Options{Ext: ".html", Title: "pkg docs"})

	out, warns, err := r.HTMLPage(tree.Roots[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(warns) != 0 {
		t.Errorf("unexpected warnings: %v", warns)
	}
	got := string(out)

	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>pkg &mdash; pkg docs</title>",
		"<code>make_widget",
		"href=\"pkg/sub.html\"",
		"class=\"depth-0 current\"",
		"search_index.json",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestHTMLPage_TemplateOverride(t *testing.T) {
	dir := t.TempDir()
	tmpl := "OVERRIDE {{.Module}}\n"
	if err := os.WriteFile(filepath.Join(dir, "page.html.tmpl"), []byte(tmpl), 0644); err != nil {
		t.Fatal(err)
	}

	tree := testTree(t, doc.Options{})
	r := New(tree, Options{Ext: ".html", TemplateDir: dir})

	out, _, err := r.HTMLPage(tree.Roots[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "OVERRIDE pkg") {
		t.Errorf("override template not used: %q", out)
	}
}

func TestIndexPage(t *testing.T) {
	tree := testTree(t, doc.Options{})
	r := New(tree, Options{Ext: ".html"})

	out, err := r.IndexPage()
	if err != nil {
		t.Fatal(err)
	}
	got := string(out)
	if !strings.Contains(got, "href=\"pkg.html\"") {
		t.Errorf("index missing root module link: %s", got)
	}
	// Default title falls back to the first root module.
	if !strings.Contains(got, "<h1>pkg</h1>") {
		t.Errorf("index missing title heading")
	}
}

func TestEntries(t *testing.T) {
	tree := testTree(t, doc.Options{})
	r := New(tree, Options{Ext: ".html"})

	entries := r.Entries()
	byName := make(map[string]Entry)
	for _, e := range entries {
		byName[e.Qualname] = e
	}

	if e := byName["pkg"]; e.Kind != "module" || e.Path != "pkg.html" {
		t.Errorf("module entry = %+v", e)
	}
	if e := byName["pkg.make_widget"]; e.Signature == "" || e.Summary != "Build a widget." {
		t.Errorf("function entry = %+v", e)
	}
	if e := byName["pkg.Widget.render"]; e.Path != "pkg.html#pkg.Widget.render" {
		t.Errorf("method entry path = %q", e.Path)
	}
	if _, ok := byName["pkg.sub"]; !ok {
		t.Error("submodule entry missing")
	}
}

func TestPagePath(t *testing.T) {
	if got := PagePath("pkg.sub.mod", ".md"); got != "pkg/sub/mod.md" {
		t.Errorf("PagePath = %q", got)
	}
	if got := PagePath("pkg", ".html"); got != "pkg.html" {
		t.Errorf("PagePath = %q", got)
	}
}

func TestRelPath(t *testing.T) {
	cases := []struct {
		from, to, want string
	}{
		{"pkg.md", "pkg/sub.md", "pkg/sub.md"},
		{"pkg/sub.md", "pkg.md", "../pkg.md"},
		{"pkg/a/b.md", "pkg/c.md", "../../pkg/c.md"},
	}
	for _, c := range cases {
		if got := relPath(c.from, c.to); got != c.want {
			t.Errorf("relPath(%q, %q) = %q, want %q", c.from, c.to, got, c.want)
		}
	}
}

func TestConstructorSig(t *testing.T) {
	sig := pysig.Parse("(self, spec, scale=1) -> None")
	if got := constructorSig(sig); got != "(spec, scale=1)" {
		t.Errorf("constructorSig = %q", got)
	}
	if got := constructorSig(pysig.Parse("(self)")); got != "()" {
		t.Errorf("constructorSig = %q", got)
	}
}
