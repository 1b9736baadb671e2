package sparql

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSONNormalizesTypedLiteral(t *testing.T) {
	result, err := DecodeJSON([]byte(`{"head":{"vars":["n"]},"results":{"bindings":[
		{"n":{"type":"typed-literal","datatype":"http://www.w3.org/2001/XMLSchema#integer","value":"42"}}]}}`))
	require.NoError(t, err)
	require.Len(t, result.Bindings, 1)

	term := result.Bindings[0]["n"]
	assert.Equal(t, TermLiteral, term.Kind)
	assert.Equal(t, "http://www.w3.org/2001/XMLSchema#integer", term.Datatype)
}

func TestDecodeJSONEmptyAndMalformed(t *testing.T) {
	result, err := DecodeJSON([]byte(`{"head":{"vars":["s"]},"results":{"bindings":[]}}`))
	require.NoError(t, err)
	assert.NotNil(t, result.Bindings)
	assert.Empty(t, result.Bindings)

	_, err = DecodeJSON([]byte(`{"head":{"vars":["s"]}}`))
	assert.Error(t, err)

	_, err = DecodeJSON([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecodeXMLBoolean(t *testing.T) {
	result, err := DecodeXML([]byte(`<sparql xmlns="http://www.w3.org/2005/sparql-results#"><head/><boolean>true</boolean></sparql>`))
	require.NoError(t, err)
	require.True(t, result.IsBoolean())
	assert.True(t, *result.Boolean)
}

func TestRowLenientParsing(t *testing.T) {
	row := Row{
		"t":     {Kind: TermLiteral, Value: "true"},
		"one":   {Kind: TermLiteral, Value: "1"},
		"zero":  {Kind: TermLiteral, Value: "0"},
		"junk":  {Kind: TermLiteral, Value: "yes"},
		"count": {Kind: TermLiteral, Value: "1234"},
		"dec":   {Kind: TermLiteral, Value: "12.0"},
	}

	b, ok := row.Bool("t")
	assert.True(t, ok)
	assert.True(t, b)

	b, ok = row.Bool("one")
	assert.True(t, ok)
	assert.True(t, b)

	b, ok = row.Bool("zero")
	assert.True(t, ok)
	assert.False(t, b)

	_, ok = row.Bool("junk")
	assert.False(t, ok)
	_, ok = row.Bool("missing")
	assert.False(t, ok)

	n, ok := row.Int("count")
	assert.True(t, ok)
	assert.Equal(t, 1234, n)

	n, ok = row.Int("dec")
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	_, ok = row.Int("junk")
	assert.False(t, ok)
}

func TestResultValuesSkipsUnbound(t *testing.T) {
	result := &Result{Bindings: []Row{
		{"g": {Kind: TermURI, Value: "http://ex.org/g1"}},
		{},
		{"g": {Kind: TermURI, Value: "http://ex.org/g2"}},
	}}
	assert.Equal(t, []string{"http://ex.org/g1", "http://ex.org/g2"}, result.Values("g"))

	var nilResult *Result
	assert.Nil(t, nilResult.Values("g"))
}

func TestAuthApply(t *testing.T) {
	tests := []struct {
		name   string
		auth   Auth
		header string
		want   string
	}{
		{"none", NoAuth{}, "Authorization", ""},
		{"basic", BasicAuth{Username: "user", Password: "pass"}, "Authorization", "Basic dXNlcjpwYXNz"},
		{"bearer", BearerAuth{Token: "abc"}, "Authorization", "Bearer abc"},
		{"apikey default header", APIKeyAuth{APIKey: "k"}, "X-API-Key", "k"},
		{"apikey custom header", APIKeyAuth{HeaderName: "X-Vocab-Key", APIKey: "k2"}, "X-Vocab-Key", "k2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, "http://example.org/sparql", nil)
			require.NoError(t, err)
			tt.auth.Apply(req)
			assert.Equal(t, tt.want, req.Header.Get(tt.header))
		})
	}

	assert.Equal(t, AuthNone, Endpoint{URL: "http://x"}.auth().Kind())
}

func TestParseRDFFormat(t *testing.T) {
	tests := map[string]RDFFormat{
		"turtle":              FormatTurtle,
		"ttl":                 FormatTurtle,
		"text/turtle":         FormatTurtle,
		"nt":                  FormatNTriples,
		".nt":                 FormatNTriples,
		"RDF/XML":             FormatRDFXML,
		"application/ld+json": FormatJSONLD,
		"json-ld":             FormatJSONLD,
	}
	for in, want := range tests {
		got, err := ParseRDFFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseRDFFormat("n3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "turtle")
	assert.Len(t, Formats(), 4)
}

func TestWithPrefixes(t *testing.T) {
	q := WithPrefixes("SELECT * WHERE { ?c a skos:Concept }")
	assert.True(t, strings.HasPrefix(q, "PREFIX skos: <http://www.w3.org/2004/02/skos/core#>\n"))
	assert.Contains(t, q, "PREFIX cc: <http://creativecommons.org/ns#>")
	assert.True(t, strings.HasSuffix(q, "SELECT * WHERE { ?c a skos:Concept }"))

	own := "  prefix ex: <http://ex.org/>\nSELECT * WHERE { ?s a ex:T }"
	assert.Equal(t, own, WithPrefixes(own))
}

func TestIRIEscapesIllegalCharacters(t *testing.T) {
	assert.Equal(t, "<http://ex.org/a>", IRI("http://ex.org/a"))
	assert.Equal(t, "<http://ex.org/a%20b%3E>", IRI("http://ex.org/a b>"))
}

func TestSniffSkipsLeadingWhitespaceAndBOM(t *testing.T) {
	assert.Equal(t, "json", sniff([]byte("\uFEFF\n  {\"boolean\":true}")))
	assert.Equal(t, "xml", sniff([]byte("\r\n<?xml version=\"1.0\"?><sparql/>")))
	assert.Equal(t, "", sniff([]byte("\uFEFF  ")))
	assert.Equal(t, "", sniff([]byte("true")))
}
