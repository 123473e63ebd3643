// Package site writes rendered documentation pages to an output
// directory, as plain Markdown files or as a browsable HTML site with an
// index page, stylesheet, and client-side search.
package site

import (
	"fmt"
	"os"

	"github.com/jcdickinson/snakedoc/internal/doc"
)

// ConflictError reports that the output directory already has content and
// overwriting was not requested. Nothing has been written when it is
// returned.
type ConflictError struct {
	Dir string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("output directory %s already exists and is not empty", e.Dir)
}

// Options controls where and how output is written.
type Options struct {
	Dir string
	// Overwrite clears a non-empty output directory instead of failing.
	Overwrite bool
	// ExcludeSubmodules drops submodules by simple name at any depth.
	ExcludeSubmodules []string
}

// prepare validates the output directory before anything is written: a
// non-empty directory is a conflict unless overwrite was requested, in
// which case it is cleared.
func prepare(dir string, overwrite bool) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	if err != nil {
		return fmt.Errorf("checking output directory: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}
	if !overwrite {
		return &ConflictError{Dir: dir}
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clearing output directory: %w", err)
	}
	return os.MkdirAll(dir, 0755)
}

// Collect walks the tree depth first, applying the submodule exclusions
// at every level. The result is the set of modules that get a page.
func Collect(tree *doc.Tree, exclude []string) []*doc.Module {
	var out []*doc.Module
	var walk func(*doc.Module)
	walk = func(m *doc.Module) {
		out = append(out, m)
		for _, s := range doc.FilterSubmodules(m, exclude) {
			walk(s)
		}
	}
	for _, r := range tree.Roots {
		walk(r)
	}
	return out
}
