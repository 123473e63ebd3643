package pysig

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sig  string
		want Signature
	}{
		{
			name: "empty params",
			sig:  "()",
			want: Signature{Raw: "()"},
		},
		{
			name: "plain params",
			sig:  "(a, b)",
			want: Signature{Raw: "(a, b)", Params: []Param{{Name: "a"}, {Name: "b"}}},
		},
		{
			name: "defaults and annotations",
			sig:  "(a: int, b: str = 'x', c=3)",
			want: Signature{
				Raw: "(a: int, b: str = 'x', c=3)",
				Params: []Param{
					{Name: "a", Annotation: "int"},
					{Name: "b", Annotation: "str", Default: "'x'"},
					{Name: "c", Default: "3"},
				},
			},
		},
		{
			name: "variadic and keyword-only markers",
			sig:  "(a, /, b, *, c, **kwargs)",
			want: Signature{
				Raw: "(a, /, b, *, c, **kwargs)",
				Params: []Param{
					{Name: "a"}, {Name: "/"}, {Name: "b"}, {Name: "*"},
					{Name: "c"}, {Name: "**kwargs"},
				},
			},
		},
		{
			name: "return annotation",
			sig:  "(a) -> Dict[str, int]",
			want: Signature{
				Raw:    "(a) -> Dict[str, int]",
				Params: []Param{{Name: "a"}},
				Return: "Dict[str, int]",
			},
		},
		{
			name: "commas inside brackets stay put",
			sig:  "(pairs: List[Tuple[int, int]] = [(1, 2)]) -> None",
			want: Signature{
				Raw:    "(pairs: List[Tuple[int, int]] = [(1, 2)]) -> None",
				Params: []Param{{Name: "pairs", Annotation: "List[Tuple[int, int]]", Default: "[(1, 2)]"}},
				Return: "None",
			},
		},
		{
			name: "commas inside string defaults stay put",
			sig:  "(sep: str = ', ')",
			want: Signature{
				Raw:    "(sep: str = ', ')",
				Params: []Param{{Name: "sep", Annotation: "str", Default: "', '"}},
			},
		},
		{
			name: "default containing equals",
			sig:  "(f=lambda x=1: x)",
			want: Signature{
				Raw:    "(f=lambda x=1: x)",
				Params: []Param{{Name: "f", Default: "lambda x=1: x"}},
			},
		},
		{
			name: "not a signature",
			sig:  "garbage",
			want: Signature{Raw: "garbage"},
		},
		{
			name: "unbalanced",
			sig:  "(a, b",
			want: Signature{Raw: "(a, b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Parse(tt.sig)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.sig, got, tt.want)
			}
		})
	}
}

func TestSignatureString(t *testing.T) {
	t.Parallel()

	sig := Parse("(a: int,b:str='x', *args)->bool")
	if got, want := sig.String(), "(a: int, b: str = 'x', *args) -> bool"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	// Unparsed input round-trips verbatim.
	raw := Parse("not a signature")
	if raw.String() != "not a signature" {
		t.Errorf("String() = %q, want raw input", raw.String())
	}
}
