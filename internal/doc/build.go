package doc

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jcdickinson/snakedoc/internal/extract"
	"github.com/jcdickinson/snakedoc/internal/pysig"
)

// Options controls what the builder keeps in the tree.
type Options struct {
	// ExcludeSource drops source text from functions and classes.
	ExcludeSource bool
}

// Build introspects the root modules in order and produces the filtered,
// sorted documentation tree. Module names must be unique across the whole
// build; a root that is also discovered as another root's submodule is an
// error.
func Build(ctx context.Context, provider extract.Provider, roots []string, opts Options) (*Tree, error) {
	t := &Tree{index: make(map[string]Entity)}
	b := &builder{provider: provider, opts: opts, tree: t, seen: make(map[string]bool)}

	for _, root := range roots {
		m, err := b.module(ctx, root, nil)
		if err != nil {
			return nil, err
		}
		t.Roots = append(t.Roots, m)
	}

	b.fillInherited()
	b.sortTree()
	return t, nil
}

type builder struct {
	provider extract.Provider
	opts     Options
	tree     *Tree
	seen     map[string]bool
}

func (b *builder) module(ctx context.Context, name string, parent *Module) (*Module, error) {
	if b.seen[name] {
		return nil, fmt.Errorf("module %s documented twice in one build", name)
	}
	b.seen[name] = true

	raw, err := b.provider.ListMembers(ctx, name)
	if err != nil {
		return nil, err
	}

	m := &Module{
		Name:      raw.Name,
		File:      raw.File,
		Doc:       raw.Doc,
		HasAll:    raw.HasAll,
		Namespace: raw.Namespace,
		Parent:    parent,
	}
	if raw.HasAll {
		m.All = append([]string(nil), raw.All...)
	}

	known := make(map[string]bool)
	for i := range raw.Members {
		mem := &raw.Members[i]
		known[mem.Name] = true
		if !visible(raw, mem.Name) {
			continue
		}
		doc := mem.Doc
		if s, ok := extract.DocOverride(raw.Overrides[mem.Name]); ok {
			doc = s
		}
		switch mem.Kind {
		case extract.KindClass:
			m.Classes = append(m.Classes, b.class(ctx, m, mem, raw.Overrides, doc))
		case extract.KindFunction:
			m.Functions = append(m.Functions, b.function(ctx, m, nil, mem, doc))
		case extract.KindVariable:
			m.Variables = append(m.Variables, &Variable{
				Name:       mem.Name,
				Module:     m,
				Doc:        doc,
				Annotation: mem.Annotation,
				Instance:   mem.Instance,
			})
		}
	}

	for _, sub := range raw.Submodules {
		base := strings.TrimPrefix(sub, raw.Name+".")
		known[base] = true
		if !visible(raw, base) {
			continue
		}
		sm, err := b.module(ctx, sub, m)
		if err != nil {
			return nil, err
		}
		m.Submodules = append(m.Submodules, sm)
	}

	b.warnUnknownOverrides(raw, known)
	b.indexModule(m)
	return m, nil
}

// visible applies the member visibility rules: an explicit __pdocs__
// entry decides (False excludes, True or a docstring includes); otherwise
// __all__ is exact when present; otherwise a leading underscore hides.
func visible(raw *extract.RawModule, name string) bool {
	if ov, ok := raw.Overrides[name]; ok {
		return !extract.Excluded(ov)
	}
	if raw.HasAll {
		for _, a := range raw.All {
			if a == name {
				return true
			}
		}
		return false
	}
	return !strings.HasPrefix(name, "_")
}

func (b *builder) class(ctx context.Context, m *Module, raw *extract.RawMember, overrides map[string]interface{}, doc string) *Class {
	c := &Class{
		Name:   raw.Name,
		Module: m,
		Doc:    doc,
		Bases:  append([]string(nil), raw.Bases...),
	}
	qual := c.QualifiedName()
	if mro, err := b.provider.MRO(ctx, qual); err == nil {
		c.MRO = append([]string(nil), mro...)
	}
	if !b.opts.ExcludeSource {
		c.Source, _ = b.provider.Source(ctx, qual)
	}

	for i := range raw.Members {
		mem := &raw.Members[i]
		ov, hasOv := overrides[raw.Name+"."+mem.Name]
		if hasOv && extract.Excluded(ov) {
			continue
		}
		if !hasOv && strings.HasPrefix(mem.Name, "_") && mem.Name != "__init__" {
			continue
		}
		mdoc := mem.Doc
		if s, ok := extract.DocOverride(ov); ok {
			mdoc = s
		}
		switch mem.Kind {
		case extract.KindFunction:
			c.Functions = append(c.Functions, b.function(ctx, m, c, mem, mdoc))
		case extract.KindVariable:
			c.Variables = append(c.Variables, &Variable{
				Name:       mem.Name,
				Module:     m,
				Class:      c,
				Doc:        mdoc,
				Annotation: mem.Annotation,
				Instance:   mem.Instance,
			})
		}
	}
	return c
}

func (b *builder) function(ctx context.Context, m *Module, c *Class, raw *extract.RawMember, doc string) *Function {
	f := &Function{
		Name:   raw.Name,
		Module: m,
		Class:  c,
		Doc:    doc,
		Role:   raw.Role,
	}
	sig, _ := b.provider.Signature(ctx, f.QualifiedName())
	f.Signature = pysig.Parse(sig)
	if !b.opts.ExcludeSource {
		f.Source, _ = b.provider.Source(ctx, f.QualifiedName())
	}
	return f
}

func (b *builder) warnUnknownOverrides(raw *extract.RawModule, known map[string]bool) {
	keys := make([]string, 0, len(raw.Overrides))
	for key := range raw.Overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		first, _, _ := strings.Cut(key, ".")
		if !known[first] {
			b.tree.Warnings = append(b.tree.Warnings, Warning{
				Name:   raw.Name + "." + key,
				Detail: "__pdocs__ names an unknown member",
			})
		}
	}
}

func (b *builder) indexModule(m *Module) {
	b.tree.index[m.Name] = m
	for _, c := range m.Classes {
		b.tree.index[c.QualifiedName()] = c
		for _, f := range c.Functions {
			b.tree.index[f.QualifiedName()] = f
		}
		for _, v := range c.Variables {
			b.tree.index[v.QualifiedName()] = v
		}
	}
	for _, f := range m.Functions {
		b.tree.index[f.QualifiedName()] = f
	}
	for _, v := range m.Variables {
		b.tree.index[v.QualifiedName()] = v
	}
}

// fillInherited copies docstrings and annotations from the nearest MRO
// ancestor that has them onto members lacking their own. Ancestors keep
// their data untouched; the copy is owned by the child, so later passes
// over the ancestor are unaffected.
func (b *builder) fillInherited() {
	for _, m := range b.tree.Modules() {
		for _, c := range m.Classes {
			for _, f := range c.Functions {
				if f.Doc != "" {
					continue
				}
				if doc, from := b.inheritedFunctionDoc(c, f.Name); doc != "" {
					f.Doc = doc
					f.Inherited = from
				}
			}
			for _, v := range c.Variables {
				b.fillVariable(c, v)
			}
		}
	}
}

func (b *builder) inheritedFunctionDoc(c *Class, name string) (string, string) {
	for _, anc := range c.MRO {
		e, ok := b.tree.index[anc+"."+name]
		if !ok {
			continue
		}
		if f, ok := e.(*Function); ok && f.Doc != "" {
			return f.Doc, f.QualifiedName()
		}
	}
	return "", ""
}

func (b *builder) fillVariable(c *Class, v *Variable) {
	for _, anc := range c.MRO {
		if v.Doc != "" && v.Annotation != "" {
			return
		}
		e, ok := b.tree.index[anc+"."+v.Name]
		if !ok {
			continue
		}
		av, ok := e.(*Variable)
		if !ok {
			continue
		}
		if v.Doc == "" && av.Doc != "" {
			v.Doc = av.Doc
			v.Inherited = av.QualifiedName()
		}
		if v.Annotation == "" && av.Annotation != "" {
			v.Annotation = av.Annotation
		}
	}
}

// sortTree orders members alphabetically by short name, case sensitive,
// with __init__ first within a class. Submodules sort by name; root
// modules keep the caller's order.
func (b *builder) sortTree() {
	for _, m := range b.tree.Modules() {
		sort.Slice(m.Submodules, func(i, j int) bool { return m.Submodules[i].Name < m.Submodules[j].Name })
		sort.Slice(m.Classes, func(i, j int) bool { return m.Classes[i].Name < m.Classes[j].Name })
		sort.Slice(m.Functions, func(i, j int) bool { return m.Functions[i].Name < m.Functions[j].Name })
		sort.Slice(m.Variables, func(i, j int) bool { return m.Variables[i].Name < m.Variables[j].Name })
		for _, c := range m.Classes {
			fns := c.Functions
			sort.Slice(fns, func(i, j int) bool {
				if (fns[i].Name == "__init__") != (fns[j].Name == "__init__") {
					return fns[i].Name == "__init__"
				}
				return fns[i].Name < fns[j].Name
			})
			sort.Slice(c.Variables, func(i, j int) bool { return c.Variables[i].Name < c.Variables[j].Name })
		}
	}
}
