// Package analyze discovers which optional SPARQL and SKOS capabilities an
// endpoint supports by running a fixed battery of probe queries.
//
// Probes fail soft: a probe whose query fails yields Unknown (or an unknown
// count, or an empty list) so one misbehaving probe never stops the battery.
// Only cancellation of the caller's context is returned as an error.
package analyze

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/skosprobe/capability"
	"github.com/teranos/skosprobe/errors"
	"github.com/teranos/skosprobe/internal/util"
	"github.com/teranos/skosprobe/logger"
	"github.com/teranos/skosprobe/sparql"
)

const (
	DefaultProbeRetries = 1
	DefaultProbeTimeout = 30 * time.Second
	DefaultGraphCap     = 500
	DefaultSchemeCap    = 200
)

// Querier runs a SELECT or ASK query. *sparql.Executor implements it.
type Querier interface {
	Query(ctx context.Context, ep sparql.Endpoint, query string, opts sparql.QueryOptions) (*sparql.Result, error)
}

// DefaultProbeOptions is the reduced budget probes run with: probing must
// fail fast rather than sit through three long timeouts per probe.
func DefaultProbeOptions() sparql.QueryOptions {
	return sparql.QueryOptions{
		Timeout: DefaultProbeTimeout,
		Retries: util.Ptr(DefaultProbeRetries),
	}
}

// Prober runs individual capability probes against one endpoint.
type Prober struct {
	querier  Querier
	endpoint sparql.Endpoint
	opts     sparql.QueryOptions
	logger   *zap.SugaredLogger
}

// NewProber creates a Prober. A nil logger keeps it silent.
func NewProber(q Querier, ep sparql.Endpoint, opts sparql.QueryOptions, log *zap.SugaredLogger) *Prober {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Prober{querier: q, endpoint: ep, opts: opts, logger: log}
}

// run executes a probe query with the standard prefixes. ok is false when the
// query failed; err is non-nil only when ctx is done.
func (p *Prober) run(ctx context.Context, probe, query string) (res *sparql.Result, ok bool, err error) {
	res, qerr := p.querier.Query(ctx, p.endpoint, sparql.WithPrefixes(query), p.opts)
	if qerr == nil {
		return res, true, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, false, ctxErr
	}
	p.logger.Debugw("Capability probe query failed",
		logger.FieldProbe, probe,
		logger.FieldErrorCode, errors.CodeOf(qerr),
		logger.FieldError, qerr,
	)
	return nil, false, nil
}

// ask runs an ASK probe. A reply that is not a boolean counts as a failure.
func (p *Prober) ask(ctx context.Context, probe, query string) (capability.TriState, error) {
	res, ok, err := p.run(ctx, probe, query)
	if err != nil || !ok {
		return capability.Unknown, err
	}
	if !res.IsBoolean() {
		return capability.Unknown, nil
	}
	return capability.FromBool(*res.Boolean), nil
}

// count runs a single-row aggregate bound to ?count.
func (p *Prober) count(ctx context.Context, probe, query string) (capability.Count, error) {
	res, ok, err := p.run(ctx, probe, query)
	if err != nil || !ok {
		return capability.UnknownCount(), err
	}
	if len(res.Bindings) == 0 {
		return capability.UnknownCount(), nil
	}
	n, parsed := res.Bindings[0].Int("count")
	if !parsed {
		return capability.UnknownCount(), nil
	}
	return capability.KnownCount(n), nil
}

// JSONSupport checks that the endpoint answers with SPARQL JSON results.
// It asks for JSON only, whatever the prober accepts, so an XML answer is
// never taken for JSON. A 2xx reply in another format is False; any other
// failure is Unknown.
func (p *Prober) JSONSupport(ctx context.Context) (capability.TriState, error) {
	opts := p.opts
	opts.AcceptXML = util.Ptr(false)
	_, err := p.querier.Query(ctx, p.endpoint, "ASK { ?s ?p ?o }", opts)
	if err == nil {
		return capability.True, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return capability.Unknown, ctxErr
	}
	if errors.CodeOf(err) == errors.CodeInvalidResponse {
		return capability.False, nil
	}
	return capability.Unknown, nil
}

// AcceptXML makes every later probe accept SPARQL XML results as well.
func (p *Prober) AcceptXML() {
	p.opts.AcceptXML = util.Ptr(true)
}

// SkosPresence checks for any concept or concept scheme.
func (p *Prober) SkosPresence(ctx context.Context) (capability.TriState, error) {
	return p.ask(ctx, "skos-presence",
		"ASK { { ?s a skos:Concept } UNION { ?s a skos:ConceptScheme } }")
}

// NamedGraphs detects GRAPH support with a three-step chain, each step
// tried only when the previous one failed: a distinct graph count, a
// blank-node ASK, and finally a single-row SELECT.
func (p *Prober) NamedGraphs(ctx context.Context) (capability.TriState, error) {
	n, err := p.count(ctx, "named-graphs-count",
		"SELECT (COUNT(DISTINCT ?g) AS ?count) WHERE { GRAPH ?g { ?s ?p ?o } }")
	if err != nil {
		return capability.Unknown, err
	}
	if v, known := n.Value(); known {
		return capability.FromBool(v > 0), nil
	}

	state, err := p.ask(ctx, "named-graphs-ask", "ASK { GRAPH ?g { [] ?p ?o } }")
	if err != nil || state.Known() {
		return state, err
	}

	res, ok, err := p.run(ctx, "named-graphs-select", "SELECT ?g WHERE { GRAPH ?g { ?s ?p ?o } } LIMIT 1")
	if err != nil || !ok {
		return capability.Unknown, err
	}
	return capability.FromBool(len(res.Bindings) > 0), nil
}

// GraphEnumeration is the result of the SKOS graph probe.
// URIs is nil when the count is unknown or exceeds the cap.
type GraphEnumeration struct {
	Count capability.Count
	URIs  []string
}

// SkosGraphs lists graphs holding SKOS content, asking for cap+1 rows so that
// "exactly cap" and "more than cap" can be told apart.
func (p *Prober) SkosGraphs(ctx context.Context, limit int) (GraphEnumeration, error) {
	if limit <= 0 {
		limit = DefaultGraphCap
	}
	query := fmt.Sprintf(`SELECT DISTINCT ?g WHERE {
  GRAPH ?g {
    { ?s a skos:ConceptScheme }
    UNION
    { ?s a skos:Concept ; skos:prefLabel ?l }
  }
} LIMIT %d`, limit+1)

	res, ok, err := p.run(ctx, "skos-graphs", query)
	if err != nil || !ok {
		return GraphEnumeration{Count: capability.UnknownCount()}, err
	}

	uris := dedupe(res.Values("g"))
	if len(res.Bindings) > limit || len(uris) > limit {
		return GraphEnumeration{Count: capability.KnownCount(max(len(uris), limit+1))}, nil
	}
	return GraphEnumeration{Count: capability.KnownCount(len(uris)), URIs: uris}, nil
}

// SchemeEnumeration is the result of the scheme probe.
type SchemeEnumeration struct {
	URIs    []string
	Count   int
	Limited bool
}

// Schemes counts concept schemes, then fetches at most cap of them. When the
// count times out it fetches cap+1 raw rows and de-duplicates client-side.
// len(URIs) <= Count always holds, with equality exactly when !Limited.
func (p *Prober) Schemes(ctx context.Context, limit int) (SchemeEnumeration, error) {
	if limit <= 0 {
		limit = DefaultSchemeCap
	}

	total, err := p.count(ctx, "scheme-count",
		"SELECT (COUNT(DISTINCT ?s) AS ?count) WHERE { ?s a skos:ConceptScheme }")
	if err != nil {
		return SchemeEnumeration{URIs: []string{}}, err
	}

	if n, known := total.Value(); known {
		uris := []string{}
		res, ok, err := p.run(ctx, "scheme-fetch",
			fmt.Sprintf("SELECT DISTINCT ?s WHERE { ?s a skos:ConceptScheme } LIMIT %d", limit))
		if err != nil {
			return SchemeEnumeration{URIs: []string{}}, err
		}
		if ok {
			uris = truncate(dedupe(res.Values("s")), limit)
		}
		count := max(n, len(uris))
		return SchemeEnumeration{URIs: uris, Count: count, Limited: count > len(uris)}, nil
	}

	res, ok, err := p.run(ctx, "scheme-sample",
		fmt.Sprintf("SELECT ?s WHERE { ?s a skos:ConceptScheme } LIMIT %d", limit+1))
	if err != nil || !ok {
		return SchemeEnumeration{URIs: []string{}}, err
	}

	unique := dedupe(res.Values("s"))
	if len(unique) > limit || len(res.Bindings) > limit {
		return SchemeEnumeration{
			URIs:    truncate(unique, limit),
			Count:   max(len(unique), limit+1),
			Limited: true,
		}, nil
	}
	return SchemeEnumeration{URIs: unique, Count: len(unique)}, nil
}

// Counts holds the resource totals. Each is unknown when its query failed.
type Counts struct {
	Concepts           capability.Count
	Collections        capability.Count
	OrderedCollections capability.Count
}

// Counts counts concepts, collections and ordered collections.
func (p *Prober) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	targets := []struct {
		probe string
		class string
		dst   *capability.Count
	}{
		{"concept-count", "skos:Concept", &c.Concepts},
		{"collection-count", "skos:Collection", &c.Collections},
		{"ordered-collection-count", "skos:OrderedCollection", &c.OrderedCollections},
	}
	for _, t := range targets {
		n, err := p.count(ctx, t.probe,
			fmt.Sprintf("SELECT (COUNT(DISTINCT ?x) AS ?count) WHERE { ?x a %s }", t.class))
		if err != nil {
			return c, err
		}
		*t.dst = n
	}
	return c, nil
}

var relationshipPredicates = []struct {
	variable  string
	predicate string
	set       func(r *capability.RelationshipCapabilities, v capability.TriState)
}{
	{"hasInScheme", "skos:inScheme", func(r *capability.RelationshipCapabilities, v capability.TriState) { r.HasInScheme = v }},
	{"hasTopConceptOf", "skos:topConceptOf", func(r *capability.RelationshipCapabilities, v capability.TriState) { r.HasTopConceptOf = v }},
	{"hasHasTopConcept", "skos:hasTopConcept", func(r *capability.RelationshipCapabilities, v capability.TriState) { r.HasHasTopConcept = v }},
	{"hasBroader", "skos:broader", func(r *capability.RelationshipCapabilities, v capability.TriState) { r.HasBroader = v }},
	{"hasNarrower", "skos:narrower", func(r *capability.RelationshipCapabilities, v capability.TriState) { r.HasNarrower = v }},
	{"hasBroaderTransitive", "skos:broaderTransitive", func(r *capability.RelationshipCapabilities, v capability.TriState) { r.HasBroaderTransitive = v }},
	{"hasNarrowerTransitive", "skos:narrowerTransitive", func(r *capability.RelationshipCapabilities, v capability.TriState) { r.HasNarrowerTransitive = v }},
}

// Relationships checks, in one query, which SKOS relation predicates have
// at least one triple. A failed query leaves all of them Unknown.
func (p *Prober) Relationships(ctx context.Context) (capability.RelationshipCapabilities, error) {
	var b strings.Builder
	b.WriteString("SELECT")
	for _, rp := range relationshipPredicates {
		fmt.Fprintf(&b, "\n  (EXISTS { ?a %s ?b } AS ?%s)", rp.predicate, rp.variable)
	}
	b.WriteString("\nWHERE {}")

	var caps capability.RelationshipCapabilities
	res, ok, err := p.run(ctx, "relationships", b.String())
	if err != nil || !ok || len(res.Bindings) == 0 {
		return caps, err
	}
	row := res.Bindings[0]
	for _, rp := range relationshipPredicates {
		rp.set(&caps, flag(row, rp.variable))
	}
	return caps, nil
}

// LabelPredicates checks which label properties are used on resources of kind.
func (p *Prober) LabelPredicates(ctx context.Context, kind capability.ResourceKind) (capability.LabelPredicates, error) {
	var b strings.Builder
	b.WriteString("SELECT")
	for _, lp := range capability.AllLabelPredicates {
		fmt.Fprintf(&b, "\n  (EXISTS { ?r a %s ; %s ?l } AS ?%s)", kind.Class(), lp.Path(), lp)
	}
	b.WriteString("\nWHERE {}")

	var preds capability.LabelPredicates
	res, ok, err := p.run(ctx, "labels-"+string(kind), b.String())
	if err != nil || !ok || len(res.Bindings) == 0 {
		return preds, err
	}
	row := res.Bindings[0]
	for _, lp := range capability.AllLabelPredicates {
		preds.Set(lp, flag(row, string(lp)))
	}
	return preds, nil
}

func flag(row sparql.Row, variable string) capability.TriState {
	v, ok := row.Bool(variable)
	if !ok {
		return capability.Unknown
	}
	return capability.FromBool(v)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func truncate(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}
