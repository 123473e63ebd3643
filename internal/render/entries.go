package render

import "github.com/jcdickinson/snakedoc/internal/doc"

// Entry is one documented member flattened for the search index and the
// documentation database.
type Entry struct {
	Qualname  string `json:"qualname"`
	Module    string `json:"module"`
	Kind      string `json:"kind"`
	Signature string `json:"signature,omitempty"`
	Summary   string `json:"summary,omitempty"`
	Doc       string `json:"doc,omitempty"`
	Path      string `json:"path"`
}

// Entries flattens the tree into one row per module, class, function, and
// variable. Paths point at the rendered pages, members with an anchor.
func (r *Renderer) Entries() []Entry {
	var out []Entry
	for _, m := range r.tree.Modules() {
		page := PagePath(m.Name, r.opts.Ext)
		out = append(out, Entry{
			Qualname: m.Name,
			Module:   m.Name,
			Kind:     m.EntityKind().String(),
			Summary:  r.summaryOf(m.Doc),
			Doc:      m.Doc,
			Path:     page,
		})
		for _, v := range m.Variables {
			out = append(out, r.entry(page, m, v, "", v.Doc))
		}
		for _, f := range m.Functions {
			out = append(out, r.entry(page, m, f, f.Signature.String(), f.Doc))
		}
		for _, c := range m.Classes {
			out = append(out, r.entry(page, m, c, "", c.Doc))
			for _, v := range c.Variables {
				out = append(out, r.entry(page, m, v, "", v.Doc))
			}
			for _, f := range c.Functions {
				out = append(out, r.entry(page, m, f, f.Signature.String(), f.Doc))
			}
		}
	}
	return out
}

func (r *Renderer) entry(page string, m *doc.Module, e doc.Entity, sig, raw string) Entry {
	return Entry{
		Qualname:  e.QualifiedName(),
		Module:    m.Name,
		Kind:      e.EntityKind().String(),
		Signature: sig,
		Summary:   r.summaryOf(raw),
		Doc:       raw,
		Path:      page + "#" + e.QualifiedName(),
	}
}
