// Package extract runs a Python interpreter to pull structural
// documentation data out of an importable module tree. The interpreter
// executes an embedded inspector script that walks the module and its
// submodules and prints one JSON dump, which this package decodes and
// optionally caches on disk.
package extract

import (
	"encoding/json"
	"fmt"
	"io"
)

// Dump is the inspector's complete output for one root module and all of
// its reachable submodules.
type Dump struct {
	// Python is the interpreter version the dump was produced with.
	Python string `json:"python"`
	// Files maps the absolute path of every imported source file to its
	// mtime at dump time, used for staleness checks.
	Files   map[string]float64 `json:"files"`
	Modules []*RawModule       `json:"modules"`
}

// RawModule is one module as the inspector saw it.
type RawModule struct {
	Name string `json:"name"`
	File string `json:"file"`
	Doc  string `json:"doc"`
	// All holds __all__ when the module defines one; HasAll distinguishes
	// an empty __all__ from an absent one.
	All    []string `json:"all"`
	HasAll bool     `json:"has_all"`
	// Overrides holds __pdocs__: module-relative dotted paths mapped to a
	// bool (include or exclude) or a string (replacement docstring).
	Overrides  map[string]interface{} `json:"overrides"`
	Namespace  bool                   `json:"namespace"`
	Members    []RawMember            `json:"members"`
	Submodules []string               `json:"submodules"`
}

// RawMember is a class, function, or variable belonging to a module or to
// a class. Classes carry nested Members; functions carry a signature and
// role; variables carry an annotation and an instance flag.
type RawMember struct {
	Kind       string      `json:"kind"`
	Name       string      `json:"name"`
	Qualname   string      `json:"qualname"`
	Doc        string      `json:"doc"`
	Bases      []string    `json:"bases,omitempty"`
	MRO        []string    `json:"mro,omitempty"`
	Members    []RawMember `json:"members,omitempty"`
	Signature  string      `json:"signature,omitempty"`
	Role       string      `json:"role,omitempty"`
	Annotation string      `json:"annotation,omitempty"`
	Instance   bool        `json:"instance,omitempty"`
	Source     string      `json:"source,omitempty"`
}

// Member kinds emitted by the inspector.
const (
	KindClass    = "class"
	KindFunction = "function"
	KindVariable = "variable"
)

// DecodeDump reads one JSON dump from r.
func DecodeDump(r io.Reader) (*Dump, error) {
	var d Dump
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decoding inspector output: %w", err)
	}
	return &d, nil
}

// Module returns the named module from the dump, or nil.
func (d *Dump) Module(name string) *RawModule {
	for _, m := range d.Modules {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Excluded reports whether the override value for a member says to drop
// it. Only an explicit False excludes; strings and True keep the member.
func Excluded(override interface{}) bool {
	b, ok := override.(bool)
	return ok && !b
}

// DocOverride returns the replacement docstring carried by an override
// value, if any.
func DocOverride(override interface{}) (string, bool) {
	s, ok := override.(string)
	return s, ok
}
