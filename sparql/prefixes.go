package sparql

import (
	"fmt"
	"strings"
)

// Namespaces used by SKOS vocabularies.
const (
	NSSKOS   = "http://www.w3.org/2004/02/skos/core#"
	NSSKOSXL = "http://www.w3.org/2008/05/skos-xl#"
	NSDCT    = "http://purl.org/dc/terms/"
	NSDC     = "http://purl.org/dc/elements/1.1/"
	NSRDFS   = "http://www.w3.org/2000/01/rdf-schema#"
	NSRDF    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NSOWL    = "http://www.w3.org/2002/07/owl#"
	NSCC     = "http://creativecommons.org/ns#"
)

// Prefix is a single PREFIX declaration.
type Prefix struct {
	Name string
	IRI  string
}

// StandardPrefixes are prepended by WithPrefixes, in declaration order.
var StandardPrefixes = []Prefix{
	{"skos", NSSKOS},
	{"skosxl", NSSKOSXL},
	{"dct", NSDCT},
	{"dc", NSDC},
	{"rdfs", NSRDFS},
	{"rdf", NSRDF},
	{"owl", NSOWL},
	{"cc", NSCC},
}

// PrefixBlock renders StandardPrefixes as SPARQL PREFIX lines.
func PrefixBlock() string {
	var b strings.Builder
	for _, p := range StandardPrefixes {
		fmt.Fprintf(&b, "PREFIX %s: <%s>\n", p.Name, p.IRI)
	}
	return b.String()
}

// WithPrefixes prepends the standard PREFIX block to query, unless the query
// already declares its own prefixes.
func WithPrefixes(query string) string {
	trimmed := strings.TrimSpace(query)
	if len(trimmed) >= 6 && strings.EqualFold(trimmed[:6], "PREFIX") {
		return query
	}
	return PrefixBlock() + "\n" + query
}

// IRI renders an absolute IRI for inclusion in a query.
// Characters that are illegal inside <...> are percent-encoded.
func IRI(iri string) string {
	var b strings.Builder
	b.Grow(len(iri) + 2)
	b.WriteByte('<')
	for _, r := range iri {
		switch {
		case r <= 0x20, r == '<', r == '>', r == '"', r == '{', r == '}', r == '|', r == '^', r == '`', r == '\\':
			fmt.Fprintf(&b, "%%%02X", r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('>')
	return b.String()
}
