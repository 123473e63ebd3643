package site

import (
	"context"
	"encoding/json"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jcdickinson/snakedoc/internal/doc"
	"github.com/jcdickinson/snakedoc/internal/render"
)

//go:embed static/style.css
var StyleCSS []byte

//go:embed static/search.js
var SearchJS []byte

// Result reports what a write produced.
type Result struct {
	Pages    int
	Warnings []doc.Warning
}

// WriteMarkdown renders every module to a Markdown file under opts.Dir,
// one file per module named by its dotted path. Pages for independent
// modules render in parallel; the tree is immutable by now.
func WriteMarkdown(ctx context.Context, tree *doc.Tree, r *render.Renderer, opts Options) (*Result, error) {
	if err := prepare(opts.Dir, opts.Overwrite); err != nil {
		return nil, err
	}

	result := &Result{}
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, m := range Collect(tree, opts.ExcludeSubmodules) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, warns := r.Page(m)
			if err := writePage(opts.Dir, render.PagePath(m.Name, ".md"), content); err != nil {
				return err
			}
			mu.Lock()
			result.Pages++
			result.Warnings = append(result.Warnings, warns...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sortWarnings(result.Warnings)
	return result, nil
}

// WriteHTML renders the full HTML site under opts.Dir: one page per
// module plus index.html, the stylesheet, the search script, and
// search_index.json.
func WriteHTML(ctx context.Context, tree *doc.Tree, r *render.Renderer, opts Options) (*Result, error) {
	if err := prepare(opts.Dir, opts.Overwrite); err != nil {
		return nil, err
	}

	modules := Collect(tree, opts.ExcludeSubmodules)
	result := &Result{}
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, m := range modules {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, warns, err := r.HTMLPage(m)
			if err != nil {
				return err
			}
			if err := writePage(opts.Dir, render.PagePath(m.Name, ".html"), content); err != nil {
				return err
			}
			mu.Lock()
			result.Pages++
			result.Warnings = append(result.Warnings, warns...)
			mu.Unlock()
			return nil
		})
	}
	g.Go(func() error {
		content, err := r.IndexPage()
		if err != nil {
			return err
		}
		return writePage(opts.Dir, "index.html", content)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := os.WriteFile(filepath.Join(opts.Dir, "style.css"), StyleCSS, 0644); err != nil {
		return nil, fmt.Errorf("writing stylesheet: %w", err)
	}
	if err := os.WriteFile(filepath.Join(opts.Dir, "search.js"), SearchJS, 0644); err != nil {
		return nil, fmt.Errorf("writing search script: %w", err)
	}
	if err := writeSearchIndex(opts.Dir, r, modules); err != nil {
		return nil, err
	}

	sortWarnings(result.Warnings)
	return result, nil
}

func writePage(dir, page string, content []byte) error {
	path := filepath.Join(dir, filepath.FromSlash(page))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output subdirectory: %w", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// SearchIndex encodes the search entries for the kept modules only, so
// excluded submodules do not surface in search.
func SearchIndex(r *render.Renderer, kept []*doc.Module) ([]byte, error) {
	keep := make(map[string]bool, len(kept))
	for _, m := range kept {
		keep[m.Name] = true
	}
	var entries []render.Entry
	for _, e := range r.Entries() {
		if keep[e.Module] {
			entries = append(entries, e)
		}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encoding search index: %w", err)
	}
	return data, nil
}

func writeSearchIndex(dir string, r *render.Renderer, kept []*doc.Module) error {
	data, err := SearchIndex(r, kept)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "search_index.json"), data, 0644); err != nil {
		return fmt.Errorf("writing search index: %w", err)
	}
	return nil
}

func sortWarnings(warns []doc.Warning) {
	sort.Slice(warns, func(i, j int) bool {
		if warns[i].Name != warns[j].Name {
			return warns[i].Name < warns[j].Name
		}
		return warns[i].Detail < warns[j].Detail
	})
}
