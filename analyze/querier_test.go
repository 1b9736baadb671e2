package analyze

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/teranos/skosprobe/errors"
	"github.com/teranos/skosprobe/sparql"
)

// scriptedQuerier answers queries by the first rule whose fragment the query
// contains. Unmatched queries fail with QUERY_ERROR.
type scriptedQuerier struct {
	mu      sync.Mutex
	rules   []rule
	queries []string
}

type rule struct {
	fragment string
	respond  func(query string) (*sparql.Result, error)
}

func newScriptedQuerier() *scriptedQuerier {
	return &scriptedQuerier{}
}

func (s *scriptedQuerier) on(fragment string, respond func(query string) (*sparql.Result, error)) *scriptedQuerier {
	s.rules = append(s.rules, rule{fragment: fragment, respond: respond})
	return s
}

func (s *scriptedQuerier) reply(fragment string, res *sparql.Result) *scriptedQuerier {
	return s.on(fragment, func(string) (*sparql.Result, error) { return res, nil })
}

func (s *scriptedQuerier) fail(fragment string, code errors.Code) *scriptedQuerier {
	return s.on(fragment, func(string) (*sparql.Result, error) {
		return nil, errors.NewAppError(code, "scripted failure")
	})
}

func (s *scriptedQuerier) Query(ctx context.Context, ep sparql.Endpoint, query string, opts sparql.QueryOptions) (*sparql.Result, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	rules := s.rules
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, errors.NewAppError(errors.CodeUnknown, "Request was cancelled").WithCause(err)
	}
	for _, r := range rules {
		if strings.Contains(query, r.fragment) {
			return r.respond(query)
		}
	}
	return nil, errors.NewAppError(errors.CodeQueryError, "no scripted reply")
}

// issued returns how many recorded queries contain fragment.
func (s *scriptedQuerier) issued(fragment string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, q := range s.queries {
		if strings.Contains(q, fragment) {
			n++
		}
	}
	return n
}

func boolResult(b bool) *sparql.Result {
	return &sparql.Result{Boolean: &b}
}

func literal(v string) sparql.Term {
	return sparql.Term{Kind: sparql.TermLiteral, Value: v}
}

func countResult(n int) *sparql.Result {
	return &sparql.Result{
		Vars:     []string{"count"},
		Bindings: []sparql.Row{{"count": literal(strconv.Itoa(n))}},
	}
}

func uriRows(variable string, uris ...string) *sparql.Result {
	rows := make([]sparql.Row, len(uris))
	for i, u := range uris {
		rows[i] = sparql.Row{variable: {Kind: sparql.TermURI, Value: u}}
	}
	return &sparql.Result{Vars: []string{variable}, Bindings: rows}
}

func flagRow(flags map[string]string) *sparql.Result {
	row := sparql.Row{}
	vars := make([]string, 0, len(flags))
	for k, v := range flags {
		row[k] = literal(v)
		vars = append(vars, k)
	}
	return &sparql.Result{Vars: vars, Bindings: []sparql.Row{row}}
}

func langRows(pairs ...any) *sparql.Result {
	res := &sparql.Result{Vars: []string{"lang", "count"}, Bindings: []sparql.Row{}}
	for i := 0; i+1 < len(pairs); i += 2 {
		res.Bindings = append(res.Bindings, sparql.Row{
			"lang":  literal(pairs[i].(string)),
			"count": literal(strconv.Itoa(pairs[i+1].(int))),
		})
	}
	return res
}

func uris(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = prefix + strconv.Itoa(i)
	}
	return out
}

// Query fragments identifying each probe.
const (
	qJSON            = "ASK { ?s ?p ?o }"
	qPresence        = "ASK { { ?s a skos:Concept }"
	qGraphCount      = "COUNT(DISTINCT ?g)"
	qGraphAsk        = "GRAPH ?g { [] ?p ?o }"
	qGraphSelect     = "SELECT ?g WHERE { GRAPH ?g { ?s ?p ?o } } LIMIT 1"
	qSkosGraphs      = "SELECT DISTINCT ?g"
	qSchemeCount     = "COUNT(DISTINCT ?s) AS ?count) WHERE { ?s a skos:ConceptScheme }"
	qSchemeFetch     = "SELECT DISTINCT ?s WHERE { ?s a skos:ConceptScheme }"
	qSchemeSample    = "SELECT ?s WHERE { ?s a skos:ConceptScheme }"
	qConceptCount    = "WHERE { ?x a skos:Concept }"
	qCollectionCount = "WHERE { ?x a skos:Collection }"
	qOrderedCount    = "WHERE { ?x a skos:OrderedCollection }"
	qRelationships   = "EXISTS { ?a skos:inScheme"
	qConceptLabels   = "EXISTS { ?r a skos:Concept ;"
	qLangBatched     = "VALUES ?g"
	qLangAcross      = "COUNT(DISTINCT ?label)"
	qLangSample      = "{ SELECT ?concept WHERE"
	qLangPlain       = "SELECT ?lang (COUNT(?label) AS ?count) WHERE {\n  ?concept"
)
