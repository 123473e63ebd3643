package doc

import (
	"context"
	"testing"

	"github.com/jcdickinson/snakedoc/internal/extract"
)

func resolveTree(t *testing.T) *Tree {
	t.Helper()
	p := newFakeProvider(
		&extract.RawModule{
			Name:       "pkg",
			Submodules: []string{"pkg.sub"},
			Members: []extract.RawMember{
				cls("Widget", "pkg.Widget", "A widget.", []string{"object"}, []string{"object"},
					fn("render", "pkg.Widget.render", "Draw.", "(self)"),
				),
				fn("make_widget", "pkg.make_widget", "Factory.", "()"),
				vr("DEBUG", "pkg.DEBUG", "Debug flag.", "bool"),
			},
		},
		&extract.RawModule{
			Name: "pkg.sub",
			Members: []extract.RawMember{
				fn("helper", "pkg.sub.helper", "", "()"),
				fn("make_widget", "pkg.sub.make_widget", "Shadowing factory.", "()"),
			},
		},
		&extract.RawModule{
			Name: "other",
			Members: []extract.RawMember{
				fn("lib_fn", "other.lib_fn", "", "()"),
			},
		},
	)
	tree, err := Build(context.Background(), p, []string{"pkg", "other"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	return tree
}

func TestResolve_OwnMembersFirst(t *testing.T) {
	tree := resolveTree(t)
	pkg := tree.Roots[0]
	sub := pkg.Submodules[0]

	e := tree.Resolve("make_widget", sub)
	if e.QualifiedName() != "pkg.sub.make_widget" {
		t.Errorf("resolved %q, want the submodule's own member", e.QualifiedName())
	}

	e = tree.Resolve("make_widget", pkg)
	if e.QualifiedName() != "pkg.make_widget" {
		t.Errorf("resolved %q, want pkg.make_widget", e.QualifiedName())
	}
}

func TestResolve_ClassContext(t *testing.T) {
	tree := resolveTree(t)
	widget := tree.Roots[0].Classes[0]

	e := tree.Resolve("render", widget)
	if e.QualifiedName() != "pkg.Widget.render" || e.EntityKind() != KindFunction {
		t.Errorf("resolved %q (%v)", e.QualifiedName(), e.EntityKind())
	}

	// Falls through to the owning module's members.
	e = tree.Resolve("DEBUG", widget)
	if e.QualifiedName() != "pkg.DEBUG" {
		t.Errorf("resolved %q, want pkg.DEBUG", e.QualifiedName())
	}
}

func TestResolve_AncestorChain(t *testing.T) {
	tree := resolveTree(t)
	sub := tree.Roots[0].Submodules[0]

	e := tree.Resolve("Widget", sub)
	if e.QualifiedName() != "pkg.Widget" {
		t.Errorf("resolved %q, want pkg.Widget via parent package", e.QualifiedName())
	}

	// Dotted names resolve relative to the context module.
	e = tree.Resolve("sub.helper", tree.Roots[0])
	if e.QualifiedName() != "pkg.sub.helper" {
		t.Errorf("resolved %q, want pkg.sub.helper", e.QualifiedName())
	}
}

func TestResolve_FullyQualified(t *testing.T) {
	tree := resolveTree(t)

	e := tree.Resolve("other.lib_fn", tree.Roots[0])
	if e.QualifiedName() != "other.lib_fn" || e.EntityKind() != KindFunction {
		t.Errorf("resolved %q (%v)", e.QualifiedName(), e.EntityKind())
	}

	e = tree.Resolve("pkg.sub", nil)
	if e.EntityKind() != KindModule {
		t.Errorf("kind = %v, want module", e.EntityKind())
	}
}

func TestResolve_UnknownIsExternal(t *testing.T) {
	tree := resolveTree(t)

	e := tree.Resolve("os.path.join", tree.Roots[0])
	ext, ok := e.(External)
	if !ok {
		t.Fatalf("got %T, want External", e)
	}
	if ext.Name != "os.path.join" {
		t.Errorf("external name = %q, must be the exact input", ext.Name)
	}

	if _, ok := tree.Lookup("os.path.join"); ok {
		t.Error("resolving must not add entities to the tree")
	}
	again := tree.Resolve("os.path.join", tree.Roots[0])
	if again != e {
		t.Error("resolution must be repeatable")
	}
}

func TestResolve_EmptyName(t *testing.T) {
	tree := resolveTree(t)
	if _, ok := tree.Resolve("", tree.Roots[0]).(External); !ok {
		t.Error("empty name should resolve to External")
	}
}
