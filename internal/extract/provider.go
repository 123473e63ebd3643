package extract

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

//go:embed inspect_module.py
var inspectScript string

// Provider supplies raw documentation data for Python modules.
type Provider interface {
	// ListMembers returns the named module with its members and the names
	// of its submodules.
	ListMembers(ctx context.Context, module string) (*RawModule, error)
	// MRO returns the qualified names of a class's ancestors, nearest
	// first, excluding the class itself.
	MRO(ctx context.Context, class string) ([]string, error)
	// Signature returns the declared signature of a function, or "" when
	// the interpreter could not produce one.
	Signature(ctx context.Context, function string) (string, error)
	// Source returns the source text of a member, or "".
	Source(ctx context.Context, qualname string) (string, error)
}

// ImportError reports that the interpreter could not import a module.
type ImportError struct {
	Module string
	Detail string
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("importing %s: %s", e.Module, e.Detail)
}

// PyProvider runs the embedded inspector script under a Python
// interpreter and answers lookups from the resulting dumps. Dumps are
// keyed by the requested root module and cover its whole subtree, so
// repeated lookups within one tree never spawn a second interpreter.
type PyProvider struct {
	// Python is the interpreter to run, "python3" when empty.
	Python string
	// Dir is the working directory for the interpreter. Pointing it at a
	// project root makes uninstalled source trees importable.
	Dir string
	// Cache, when non-nil, persists dumps between runs.
	Cache *Cache

	mu      sync.Mutex
	dumps   map[string]*Dump
	modules map[string]*RawModule
	members map[string]*RawMember
}

func (p *PyProvider) ListMembers(ctx context.Context, module string) (*RawModule, error) {
	if err := p.ensure(ctx, module); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.modules[module]
	if !ok {
		return nil, &ImportError{Module: module, Detail: "not present in inspector dump"}
	}
	return m, nil
}

func (p *PyProvider) MRO(ctx context.Context, class string) ([]string, error) {
	m, err := p.member(ctx, class)
	if err != nil {
		return nil, err
	}
	if m.Kind != KindClass {
		return nil, fmt.Errorf("%s is not a class", class)
	}
	return m.MRO, nil
}

func (p *PyProvider) Signature(ctx context.Context, function string) (string, error) {
	m, err := p.member(ctx, function)
	if err != nil {
		return "", err
	}
	return m.Signature, nil
}

func (p *PyProvider) Source(ctx context.Context, qualname string) (string, error) {
	m, err := p.member(ctx, qualname)
	if err != nil {
		return "", err
	}
	return m.Source, nil
}

// Files returns the merged source file manifest of every loaded dump.
func (p *PyProvider) Files() map[string]float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	files := make(map[string]float64)
	for _, d := range p.dumps {
		for path, mtime := range d.Files {
			files[path] = mtime
		}
	}
	return files
}

// PythonVersion returns the interpreter version reported by the first
// loaded dump, or "".
func (p *PyProvider) PythonVersion() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, d := range p.dumps {
		if d.Python != "" {
			return d.Python
		}
	}
	return ""
}

// ensure loads the dump that contains module, running the interpreter if
// neither memory nor the cache has a fresh one.
func (p *PyProvider) ensure(ctx context.Context, module string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dumps == nil {
		p.dumps = make(map[string]*Dump)
		p.modules = make(map[string]*RawModule)
		p.members = make(map[string]*RawMember)
	}
	if _, ok := p.modules[module]; ok {
		return nil
	}
	if _, ok := p.dumps[module]; ok {
		return nil
	}

	var d *Dump
	if p.Cache != nil {
		if cached, err := p.Cache.Load(module); err == nil && Fresh(cached.Files) {
			d = cached
		}
	}
	if d == nil {
		var err error
		d, err = p.run(ctx, module)
		if err != nil {
			return err
		}
		if p.Cache != nil {
			if err := p.Cache.Store(module, d); err != nil {
				return fmt.Errorf("caching dump for %s: %w", module, err)
			}
		}
	}
	p.dumps[module] = d
	p.indexDump(d)
	return nil
}

func (p *PyProvider) indexDump(d *Dump) {
	for _, m := range d.Modules {
		p.modules[m.Name] = m
		for i := range m.Members {
			p.indexMember(&m.Members[i])
		}
	}
}

func (p *PyProvider) indexMember(m *RawMember) {
	p.members[m.Qualname] = m
	for i := range m.Members {
		p.indexMember(&m.Members[i])
	}
}

func (p *PyProvider) member(ctx context.Context, qualname string) (*RawMember, error) {
	p.mu.Lock()
	m, ok := p.members[qualname]
	p.mu.Unlock()
	if ok {
		return m, nil
	}
	root, _, _ := strings.Cut(qualname, ".")
	if err := p.ensure(ctx, root); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := p.members[qualname]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("no documented member %s", qualname)
}

func (p *PyProvider) run(ctx context.Context, module string) (*Dump, error) {
	python := p.Python
	if python == "" {
		python = "python3"
	}
	cmd := exec.CommandContext(ctx, python, "-c", inspectScript, module)
	cmd.Dir = p.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 3 {
			return nil, importErrorFrom(module, stderr.String())
		}
		return nil, fmt.Errorf("running %s: %w: %s", python, err, strings.TrimSpace(stderr.String()))
	}
	d, err := DecodeDump(&stdout)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// importErrorFrom recovers the failing module and exception text from the
// inspector's "error: importing NAME: DETAIL" stderr line.
func importErrorFrom(module, stderr string) *ImportError {
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "error: importing ") {
			continue
		}
		rest := strings.TrimPrefix(line, "error: importing ")
		if name, detail, ok := strings.Cut(rest, ": "); ok {
			return &ImportError{Module: name, Detail: detail}
		}
	}
	return &ImportError{Module: module, Detail: strings.TrimSpace(stderr)}
}
