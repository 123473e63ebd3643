package doc

// Resolve finds the entity a dotted name refers to, seen from a context
// module or class. Resolution order: the context's own members, then each
// module outward along the package ancestor chain, then the full set of
// qualified names in the build, then External. It never constructs
// entities and never fails; an unknown name resolves to External with the
// exact name given.
func (t *Tree) Resolve(name string, context Entity) Entity {
	if name == "" {
		return External{Name: name}
	}

	switch ctx := context.(type) {
	case *Class:
		if e, ok := t.index[ctx.QualifiedName()+"."+name]; ok {
			return e
		}
		for m := ctx.Module; m != nil; m = m.Parent {
			if e, ok := t.index[m.Name+"."+name]; ok {
				return e
			}
		}
	case *Module:
		for m := ctx; m != nil; m = m.Parent {
			if e, ok := t.index[m.Name+"."+name]; ok {
				return e
			}
		}
	}

	if e, ok := t.index[name]; ok {
		return e
	}
	return External{Name: name}
}
