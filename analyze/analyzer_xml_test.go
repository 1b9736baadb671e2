package analyze

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/skosprobe/capability"
	"github.com/teranos/skosprobe/internal/util"
	"github.com/teranos/skosprobe/sparql"
)

const xmlResultsNS = "http://www.w3.org/2005/sparql-results#"

func xmlBoolean(v bool) string {
	return fmt.Sprintf(`<?xml version="1.0"?><sparql xmlns=%q><head/><boolean>%t</boolean></sparql>`, xmlResultsNS, v)
}

// xmlRows renders one result row per entry of rows, binding vars in order.
func xmlRows(vars []string, rows ...[]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version="1.0"?><sparql xmlns=%q><head>`, xmlResultsNS)
	for _, v := range vars {
		fmt.Fprintf(&b, `<variable name=%q/>`, v)
	}
	b.WriteString(`</head><results>`)
	for _, row := range rows {
		b.WriteString(`<result>`)
		for i, v := range vars {
			if strings.HasPrefix(row[i], "http://") {
				fmt.Fprintf(&b, `<binding name=%q><uri>%s</uri></binding>`, v, row[i])
			} else {
				fmt.Fprintf(&b, `<binding name=%q><literal>%s</literal></binding>`, v, row[i])
			}
		}
		b.WriteString(`</result>`)
	}
	b.WriteString(`</results></sparql>`)
	return b.String()
}

// xmlOnlyStore serves a small SKOS vocabulary and answers every query in
// SPARQL XML, whatever the Accept header asks for.
type xmlOnlyStore struct {
	mu      sync.Mutex
	accepts []string
}

func (s *xmlOnlyStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	q := r.PostForm.Get("query")
	s.mu.Lock()
	s.accepts = append(s.accepts, r.Header.Get("Accept"))
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/sparql-results+xml")
	switch {
	case strings.Contains(q, "ASK"):
		fmt.Fprint(w, xmlBoolean(true))
	case strings.Contains(q, "?lang"):
		fmt.Fprint(w, xmlRows([]string{"lang", "count"}, []string{"en", "7"}))
	case strings.Contains(q, "COUNT(DISTINCT ?g)"):
		fmt.Fprint(w, xmlRows([]string{"count"}, []string{"0"}))
	case strings.Contains(q, "COUNT(DISTINCT ?s)"):
		fmt.Fprint(w, xmlRows([]string{"count"}, []string{"1"}))
	case strings.Contains(q, "COUNT("):
		fmt.Fprint(w, xmlRows([]string{"count"}, []string{"3"}))
	case strings.Contains(q, "?s a skos:ConceptScheme"):
		fmt.Fprint(w, xmlRows([]string{"s"}, []string{"http://ex.org/scheme/animals"}))
	default:
		fmt.Fprint(w, xmlRows([]string{"s"}))
	}
}

func (s *xmlOnlyStore) acceptHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.accepts...)
}

func TestAnalyzeXMLOnlyEndpoint(t *testing.T) {
	for _, configured := range []bool{false, true} {
		t.Run(fmt.Sprintf("accept_xml=%t", configured), func(t *testing.T) {
			store := &xmlOnlyStore{}
			server := httptest.NewServer(store)
			defer server.Close()

			exec := sparql.NewExecutor(
				sparql.WithHTTPClient(server.Client()),
				sparql.WithLogger(zaptest.NewLogger(t).Sugar()),
				sparql.WithSleep(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }),
			)
			cfg := DefaultConfig()
			cfg.Probe.AcceptXML = util.Ptr(configured)

			res, err := newTestAnalyzer(t, exec, WithConfig(cfg)).Analyze(context.Background(), sparql.Endpoint{URL: server.URL})
			require.NoError(t, err)

			assert.Equal(t, capability.False, res.SupportsJSON)
			assert.Equal(t, capability.True, res.HasSkosContent)
			assert.Equal(t, capability.False, res.SupportsNamedGraphs)
			assert.Equal(t, []string{"http://ex.org/scheme/animals"}, res.SchemeURIs)
			assert.Equal(t, capability.KnownCount(3), res.TotalConcepts)
			assert.Equal(t, []capability.LanguageCount{{Lang: "en", Count: 7}}, res.Languages)
			require.NoError(t, res.Validate())

			accepts := store.acceptHeaders()
			require.NotEmpty(t, accepts)
			assert.Equal(t, "application/sparql-results+json", accepts[0], "JSON support is checked with JSON alone")
			assert.Contains(t, accepts[len(accepts)-1], "application/sparql-results+xml")
		})
	}
}
