package sparql

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/teranos/skosprobe/errors"
)

// TermKind is the RDF term type of a binding.
type TermKind string

const (
	TermURI     TermKind = "uri"
	TermLiteral TermKind = "literal"
	TermBNode   TermKind = "bnode"
)

// Term is a single bound RDF term.
type Term struct {
	Kind     TermKind `json:"type"`
	Value    string   `json:"value"`
	Lang     string   `json:"xml:lang,omitempty"`
	Datatype string   `json:"datatype,omitempty"`
}

// UnmarshalJSON accepts the legacy "typed-literal" type some stores still emit.
func (t *Term) UnmarshalJSON(data []byte) error {
	type plain Term
	var raw plain
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Kind == "typed-literal" {
		raw.Kind = TermLiteral
	}
	*t = Term(raw)
	return nil
}

// Row maps variable names to bound terms. Unbound variables are absent.
type Row map[string]Term

// Value returns the lexical value bound to name, or "".
func (r Row) Value(name string) string {
	return r[name].Value
}

// Bool parses name leniently: stores serialize booleans as true/false or 1/0.
// The second result is false when the variable is unbound or unparseable.
func (r Row) Bool(name string) (bool, bool) {
	term, ok := r[name]
	if !ok {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(term.Value)) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}

// Int parses name as an integer (xsd:integer, or decimal forms such as "12.0").
func (r Row) Int(name string) (int, bool) {
	term, ok := r[name]
	if !ok {
		return 0, false
	}
	v := strings.TrimSpace(term.Value)
	if n, err := strconv.Atoi(v); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return int(f), true
	}
	return 0, false
}

// Result is either a SELECT solution sequence or an ASK boolean.
type Result struct {
	Vars     []string
	Bindings []Row
	Boolean  *bool
}

// IsBoolean reports whether this is an ASK result.
func (r *Result) IsBoolean() bool {
	return r != nil && r.Boolean != nil
}

// Values collects the non-empty values bound to name across all rows.
func (r *Result) Values(name string) []string {
	if r == nil {
		return nil
	}
	values := make([]string, 0, len(r.Bindings))
	for _, row := range r.Bindings {
		if v := row.Value(name); v != "" {
			values = append(values, v)
		}
	}
	return values
}

type jsonResults struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results *struct {
		Bindings []Row `json:"bindings"`
	} `json:"results"`
	Boolean *bool `json:"boolean"`
}

// DecodeJSON parses an application/sparql-results+json document.
func DecodeJSON(body []byte) (*Result, error) {
	var doc jsonResults
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errors.Wrap(err, "decode sparql json results")
	}
	if doc.Boolean != nil {
		return &Result{Vars: doc.Head.Vars, Boolean: doc.Boolean}, nil
	}
	if doc.Results == nil {
		return nil, errors.New("sparql json results carry neither results nor boolean")
	}
	bindings := doc.Results.Bindings
	if bindings == nil {
		bindings = []Row{}
	}
	return &Result{Vars: doc.Head.Vars, Bindings: bindings}, nil
}

type xmlSparql struct {
	XMLName xml.Name `xml:"sparql"`
	Head    struct {
		Variables []struct {
			Name string `xml:"name,attr"`
		} `xml:"variable"`
	} `xml:"head"`
	Boolean *string `xml:"boolean"`
	Results *struct {
		Results []struct {
			Bindings []xmlBinding `xml:"binding"`
		} `xml:"result"`
	} `xml:"results"`
}

type xmlBinding struct {
	Name    string  `xml:"name,attr"`
	URI     *string `xml:"uri"`
	BNode   *string `xml:"bnode"`
	Literal *struct {
		Value    string `xml:",chardata"`
		Lang     string `xml:"http://www.w3.org/XML/1998/namespace lang,attr"`
		Datatype string `xml:"datatype,attr"`
	} `xml:"literal"`
}

// DecodeXML parses an application/sparql-results+xml document.
func DecodeXML(body []byte) (*Result, error) {
	var doc xmlSparql
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, errors.Wrap(err, "decode sparql xml results")
	}

	vars := make([]string, 0, len(doc.Head.Variables))
	for _, v := range doc.Head.Variables {
		vars = append(vars, v.Name)
	}

	if doc.Boolean != nil {
		b, err := strconv.ParseBool(strings.TrimSpace(*doc.Boolean))
		if err != nil {
			return nil, errors.Wrapf(err, "decode sparql xml boolean %q", *doc.Boolean)
		}
		return &Result{Vars: vars, Boolean: &b}, nil
	}
	if doc.Results == nil {
		return nil, errors.New("sparql xml results carry neither results nor boolean")
	}

	rows := make([]Row, 0, len(doc.Results.Results))
	for _, res := range doc.Results.Results {
		row := make(Row, len(res.Bindings))
		for _, b := range res.Bindings {
			switch {
			case b.URI != nil:
				row[b.Name] = Term{Kind: TermURI, Value: strings.TrimSpace(*b.URI)}
			case b.BNode != nil:
				row[b.Name] = Term{Kind: TermBNode, Value: strings.TrimSpace(*b.BNode)}
			case b.Literal != nil:
				row[b.Name] = Term{Kind: TermLiteral, Value: b.Literal.Value, Lang: b.Literal.Lang, Datatype: b.Literal.Datatype}
			}
		}
		rows = append(rows, row)
	}
	return &Result{Vars: vars, Bindings: rows}, nil
}

// sniff guesses the syntax of an untyped body from its first significant byte.
func sniff(body []byte) string {
	trimmed := bytes.TrimLeft(body, " \t\r\n\uFEFF")
	if len(trimmed) == 0 {
		return ""
	}
	switch trimmed[0] {
	case '{':
		return "json"
	case '<':
		return "xml"
	}
	return ""
}
