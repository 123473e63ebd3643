// Package doc builds the documentation model: a tree of modules, classes,
// functions, and variables produced from introspection data, filtered by
// visibility rules, with inherited docstrings filled in from each class's
// MRO. The tree is built once per invocation, is immutable after the
// inheritance pass, and is discarded after rendering.
package doc

import (
	"strings"

	"github.com/jcdickinson/snakedoc/internal/pysig"
)

// Kind identifies what a documented entity is.
type Kind int

const (
	KindModule Kind = iota
	KindClass
	KindFunction
	KindVariable
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindClass:
		return "class"
	case KindFunction:
		return "function"
	case KindVariable:
		return "variable"
	case KindExternal:
		return "external"
	}
	return "unknown"
}

// Entity is anything that can appear in rendered documentation.
type Entity interface {
	QualifiedName() string
	EntityKind() Kind
}

// Module is one documented Python module or package.
type Module struct {
	// Name is the fully qualified dotted name.
	Name string
	// File is the source path, empty for namespace packages.
	File string
	Doc  string
	// All holds __all__ when the module defines one; HasAll distinguishes
	// an empty __all__ from an absent one.
	All       []string
	HasAll    bool
	Namespace bool
	// Parent is nil for root modules.
	Parent     *Module
	Submodules []*Module
	Classes    []*Class
	Functions  []*Function
	Variables  []*Variable
}

func (m *Module) QualifiedName() string { return m.Name }
func (m *Module) EntityKind() Kind      { return KindModule }

// Basename returns the last segment of the dotted name.
func (m *Module) Basename() string {
	if i := strings.LastIndex(m.Name, "."); i >= 0 {
		return m.Name[i+1:]
	}
	return m.Name
}

// Root returns the top-level module this module belongs to.
func (m *Module) Root() *Module {
	for m.Parent != nil {
		m = m.Parent
	}
	return m
}

// Class is a documented class.
type Class struct {
	// Name is the short name; the qualified name prefixes the module.
	Name   string
	Module *Module
	Doc    string
	// Bases holds the declared base names, qualified except for builtins.
	// They resolve through Tree.Resolve at render time and may be
	// External.
	Bases []string
	// MRO lists ancestor qualified names nearest first, excluding the
	// class itself. It sets the priority for docstring inheritance.
	MRO       []string
	Functions []*Function
	Variables []*Variable
	Source    string
}

func (c *Class) QualifiedName() string { return c.Module.Name + "." + c.Name }
func (c *Class) EntityKind() Kind      { return KindClass }

// Function is a documented function, method, or property.
type Function struct {
	Name   string
	Module *Module
	// Class is nil for module-level functions.
	Class     *Class
	Doc       string
	Signature pysig.Signature
	// Role is "", "async", "static", "class", or "property".
	Role   string
	Source string
	// Inherited names the ancestor member the docstring was copied from
	// during the inheritance pass, or "".
	Inherited string
}

func (f *Function) QualifiedName() string {
	if f.Class != nil {
		return f.Class.QualifiedName() + "." + f.Name
	}
	return f.Module.Name + "." + f.Name
}
func (f *Function) EntityKind() Kind { return KindFunction }

// Variable is a documented module or class attribute.
type Variable struct {
	Name   string
	Module *Module
	// Class is nil for module-level variables.
	Class      *Class
	Doc        string
	Annotation string
	// Instance marks attributes assigned on self in __init__.
	Instance  bool
	Inherited string
}

func (v *Variable) QualifiedName() string {
	if v.Class != nil {
		return v.Class.QualifiedName() + "." + v.Name
	}
	return v.Module.Name + "." + v.Name
}
func (v *Variable) EntityKind() Kind { return KindVariable }

// External is a terminal placeholder for an identifier outside the
// documented module set. It carries only the name and is never expanded.
type External struct {
	Name string
}

func (e External) QualifiedName() string { return e.Name }
func (e External) EntityKind() Kind      { return KindExternal }

// Warning records a non-fatal oddity found while building the tree.
type Warning struct {
	Name   string
	Detail string
}

// Tree is the complete documentation model for one build.
type Tree struct {
	// Roots keeps the caller's declared module order.
	Roots    []*Module
	Warnings []Warning

	index map[string]Entity
}

// Lookup finds an entity by fully qualified name.
func (t *Tree) Lookup(qualname string) (Entity, bool) {
	e, ok := t.index[qualname]
	return e, ok
}

// Modules returns every module in the tree, depth first, roots in caller
// order and submodules in sorted order.
func (t *Tree) Modules() []*Module {
	var out []*Module
	var walk func(*Module)
	walk = func(m *Module) {
		out = append(out, m)
		for _, s := range m.Submodules {
			walk(s)
		}
	}
	for _, r := range t.Roots {
		walk(r)
	}
	return out
}

// FilterSubmodules returns the parent's submodules whose basename is not
// listed in exclude.
func FilterSubmodules(parent *Module, exclude []string) []*Module {
	if len(exclude) == 0 {
		return parent.Submodules
	}
	var out []*Module
	for _, s := range parent.Submodules {
		skip := false
		for _, name := range exclude {
			if s.Basename() == name {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, s)
		}
	}
	return out
}
