package render

import (
	"regexp"
	"strings"

	gm "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	gmparser "github.com/gomarkdown/markdown/parser"

	"github.com/jcdickinson/snakedoc/internal/doc"
)

var refRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// linkify turns resolvable code spans in docstring Markdown into links.
// It parses the Markdown to AST to find candidate spans, then performs
// targeted string replacements to preserve the original formatting.
// Spans inside links or emphasis are left alone, as are names that
// resolve nowhere: those render as plain code, which is the degraded
// behavior for unknown references.
func (r *Renderer) linkify(src string, ctx doc.Entity) string {
	if !strings.Contains(src, "`") {
		return src
	}

	docNode := gm.Parse([]byte(src), gmparser.NewWithExtensions(
		gmparser.CommonExtensions|gmparser.Autolink,
	))

	from := ownerModule(ctx)
	if from == nil {
		return src
	}

	seen := make(map[string]bool)
	type replacement struct {
		old string
		new string
	}
	var replacements []replacement

	ast.WalkFunc(docNode, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		code, ok := node.(*ast.Code)
		if !ok {
			return ast.GoToNext
		}
		name := string(code.Literal)
		if seen[name] || !refRe.MatchString(name) {
			return ast.GoToNext
		}
		// A name that already appears linked somewhere in this docstring
		// stays untouched; the string replacement below cannot tell the
		// two occurrences apart.
		if strings.Contains(src, "[`"+name+"`]") {
			return ast.GoToNext
		}
		for p := code.GetParent(); p != nil; p = p.GetParent() {
			switch p.(type) {
			case *ast.Link, *ast.Strong, *ast.Emph:
				return ast.GoToNext
			}
		}
		target := r.tree.Resolve(name, ctx)
		if target == ctx {
			return ast.GoToNext
		}
		href := r.url(from, target)
		if href == "" {
			return ast.GoToNext
		}
		seen[name] = true
		replacements = append(replacements, replacement{
			old: "`" + name + "`",
			new: "[`" + name + "`](" + href + ")",
		})
		return ast.GoToNext
	})

	if len(replacements) == 0 {
		return src
	}
	result := src
	for _, rep := range replacements {
		result = strings.ReplaceAll(result, rep.old, rep.new)
	}
	return result
}

func ownerModule(e doc.Entity) *doc.Module {
	switch x := e.(type) {
	case *doc.Module:
		return x
	case *doc.Class:
		return x.Module
	case *doc.Function:
		return x.Module
	case *doc.Variable:
		return x.Module
	}
	return nil
}
