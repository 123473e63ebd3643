package docstring

import (
	"reflect"
	"strings"
	"testing"
)

const googleDoc = `Fetch a resource.

Longer description that spans
two lines.

Args:
    url (str): The resource location.
    timeout (float): Seconds to wait
        before giving up.
    verify: Whether to verify TLS.

Returns:
    bool: True when the fetch succeeded.

Raises:
    ValueError: If url is empty.

Examples:
    >>> fetch("https://example.com")
    True
`

func TestParseGoogle(t *testing.T) {
	t.Parallel()

	p := Parse(googleDoc, StyleAuto)

	if p.Summary != "Fetch a resource." {
		t.Errorf("summary = %q", p.Summary)
	}
	if !strings.Contains(p.Description, "two lines") {
		t.Errorf("description = %q", p.Description)
	}

	want := []Param{
		{Name: "url", Type: "str", Desc: "The resource location."},
		{Name: "timeout", Type: "float", Desc: "Seconds to wait before giving up."},
		{Name: "verify", Desc: "Whether to verify TLS."},
	}
	if !reflect.DeepEqual(p.Params, want) {
		t.Errorf("params = %+v, want %+v", p.Params, want)
	}

	if len(p.Returns) != 1 || p.Returns[0].Type != "bool" {
		t.Errorf("returns = %+v", p.Returns)
	}
	if len(p.Raises) != 1 || p.Raises[0].Type != "ValueError" {
		t.Errorf("raises = %+v", p.Raises)
	}
	if len(p.Examples) != 1 || !strings.Contains(p.Examples[0], ">>> fetch") {
		t.Errorf("examples = %+v", p.Examples)
	}
	if len(p.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", p.Warnings)
	}
}

const numpyDoc = `Compute pairwise distance.

Parameters
----------
x : array_like
    Input points.
metric
    Distance metric name.

Returns
-------
ndarray
    The distance matrix.

Notes
-----
Uses the naive algorithm.
`

func TestParseNumpy(t *testing.T) {
	t.Parallel()

	p := Parse(numpyDoc, StyleAuto)

	if p.Summary != "Compute pairwise distance." {
		t.Errorf("summary = %q", p.Summary)
	}
	want := []Param{
		{Name: "x", Type: "array_like", Desc: "Input points."},
		{Name: "metric", Desc: "Distance metric name."},
	}
	if !reflect.DeepEqual(p.Params, want) {
		t.Errorf("params = %+v, want %+v", p.Params, want)
	}
	if len(p.Returns) != 1 || p.Returns[0].Type != "ndarray" || p.Returns[0].Desc != "The distance matrix." {
		t.Errorf("returns = %+v", p.Returns)
	}
	if len(p.Sections) != 1 || p.Sections[0].Title != "Notes" || !strings.Contains(p.Sections[0].Body, "naive") {
		t.Errorf("sections = %+v", p.Sections)
	}
}

const restDoc = `Open a connection.

:param str host: Server hostname.
:param port: Server port.
:type port: int
:returns: A live connection.
:rtype: Connection
:raises ConnectionError: When the server is unreachable.
`

func TestParseRest(t *testing.T) {
	t.Parallel()

	p := Parse(restDoc, StyleAuto)

	if p.Summary != "Open a connection." {
		t.Errorf("summary = %q", p.Summary)
	}
	want := []Param{
		{Name: "host", Type: "str", Desc: "Server hostname."},
		{Name: "port", Type: "int", Desc: "Server port."},
	}
	if !reflect.DeepEqual(p.Params, want) {
		t.Errorf("params = %+v, want %+v", p.Params, want)
	}
	if len(p.Returns) != 1 || p.Returns[0].Type != "Connection" || p.Returns[0].Desc != "A live connection." {
		t.Errorf("returns = %+v", p.Returns)
	}
	if len(p.Raises) != 1 || p.Raises[0].Type != "ConnectionError" {
		t.Errorf("raises = %+v", p.Raises)
	}
}

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want Style
	}{
		{"rest fields", "Do x.\n\n:param a: thing", StyleRest},
		{"numpy underline", "Do x.\n\nParameters\n----------\na : int\n    thing", StyleNumpy},
		{"google header", "Do x.\n\nArgs:\n    a: thing", StyleGoogle},
		{"plain defaults to google", "Just a sentence.", StyleGoogle},
		{"parameters without underline is google", "Do x.\n\nParameters:\n    a: thing", StyleGoogle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := detect(tt.text); got != tt.want {
				t.Errorf("detect = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParsePlain(t *testing.T) {
	t.Parallel()

	p := Parse("One line only.", StyleAuto)
	if p.Summary != "One line only." || p.Description != "" {
		t.Errorf("got %+v", p)
	}
	if p.structured() {
		t.Error("plain text should have no structured fields")
	}

	if got := Parse("", StyleAuto); got.Summary != "" || len(got.Warnings) != 0 {
		t.Errorf("empty docstring: %+v", got)
	}
}

func TestParseIndentedDocstring(t *testing.T) {
	t.Parallel()

	// As extracted from source: first line flush, the rest indented.
	raw := "Summary line.\n\n    Args:\n        a: A thing.\n"
	p := Parse(raw, StyleAuto)
	if len(p.Params) != 1 || p.Params[0].Name != "a" {
		t.Errorf("params = %+v", p.Params)
	}
}

func TestParseIsPure(t *testing.T) {
	t.Parallel()

	for _, doc := range []string{googleDoc, numpyDoc, restDoc, "plain text"} {
		a := Parse(doc, StyleAuto)
		b := Parse(doc, StyleAuto)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("Parse is not deterministic for %q", doc)
		}
	}
}

func TestParseDegradesVerbatim(t *testing.T) {
	t.Parallel()

	raw := "Broken.\n\n:param: oops"
	p := Parse(raw, StyleAuto)
	if len(p.Warnings) == 0 {
		t.Fatal("expected a warning")
	}
	if p.structured() {
		t.Fatalf("expected no structured fields, got %+v", p)
	}
	if p.Summary != raw {
		t.Errorf("degraded summary = %q, want raw text verbatim", p.Summary)
	}
}

func TestRestUnknownFieldsPreserved(t *testing.T) {
	t.Parallel()

	p := Parse("Store of things.\n\n:ivar cache: The live cache.", StyleAuto)
	if !strings.Contains(p.Description, ":ivar cache:") {
		t.Errorf("description = %q, want :ivar: preserved", p.Description)
	}
	if len(p.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", p.Warnings)
	}
}

func TestCacheReturnsSameResult(t *testing.T) {
	t.Parallel()

	c := NewCache()
	a := c.Parse(googleDoc, StyleAuto)
	b := c.Parse(googleDoc, StyleAuto)
	if a != b {
		t.Error("cache should return the identical parsed value")
	}
	if c.Parse(googleDoc, StyleRest) == a {
		t.Error("different style must not share a cache entry")
	}
}
