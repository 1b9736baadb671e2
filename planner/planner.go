// Package planner chooses between alternative SPARQL fragments for the same
// logical operation, based on what a capability snapshot says the endpoint
// populates.
//
// Every ambiguous case resolves to the path-traversal form. A fragment that
// names a predicate the store never populates matches nothing and reports no
// error, which is worse than a slower query that is correct.
package planner

import (
	"fmt"
	"strings"

	"github.com/teranos/skosprobe/capability"
	"github.com/teranos/skosprobe/sparql"
)

// Strategy is a way of expressing "member of scheme S".
type Strategy string

const (
	// StrategyDirect relies on topConceptOf, hasTopConcept and the
	// transitive closure predicates being materialized by the store.
	StrategyDirect Strategy = "direct"

	// StrategyPathTraversal walks (skos:broader|^skos:narrower)+ up to a top
	// concept. It works on any conformant store.
	StrategyPathTraversal Strategy = "path-traversal"
)

// Decision is a chosen strategy with the reason it was chosen.
type Decision struct {
	Strategy Strategy `json:"strategy" yaml:"strategy"`
	Reason   string   `json:"reason" yaml:"reason"`
}

// Planner renders query fragments for one endpoint. It holds its own copy of
// the snapshot and is safe for concurrent use.
type Planner struct {
	analysis *capability.AnalysisResult
}

// New creates a Planner. A nil analysis is allowed and always yields the
// path-traversal strategy.
func New(analysis *capability.AnalysisResult) *Planner {
	return &Planner{analysis: analysis.Clone()}
}

// Analysis returns the snapshot the planner decides from, or nil.
func (p *Planner) Analysis() *capability.AnalysisResult {
	return p.analysis
}

// Decide picks the strategy for restricting to schemeURI.
//
// Direct needs the four membership predicates known to be populated and a
// complete scheme list that contains schemeURI. A capped list (more schemes
// than the analysis kept) always falls back, even though those large stores
// gain the most from the indexable predicates: a scheme outside the kept
// list may be structured differently, and the traversal query is correct
// for every scheme. Use ForceStrategy to take direct anyway.
func (p *Planner) Decide(schemeURI string) Decision {
	a := p.analysis
	if a == nil {
		return fallback("no capability analysis available")
	}

	if missing := missingDirectPredicates(a.Relationships); len(missing) > 0 {
		return fallback("not known to be populated: " + strings.Join(missing, ", "))
	}
	if a.SchemeCount <= 0 {
		return fallback("no concept schemes were found")
	}
	if a.SchemesLimited {
		return fallback(fmt.Sprintf("scheme list is incomplete (%d of %d)", len(a.SchemeURIs), a.SchemeCount))
	}
	if !a.HasScheme(schemeURI) {
		return fallback("scheme was not seen during analysis")
	}
	return Decision{Strategy: StrategyDirect, Reason: "all direct membership predicates are populated"}
}

// SchemeStrategy picks the strategy for restricting to schemeURI.
func (p *Planner) SchemeStrategy(schemeURI string) Strategy {
	return p.Decide(schemeURI).Strategy
}

func fallback(reason string) Decision {
	return Decision{Strategy: StrategyPathTraversal, Reason: reason}
}

func missingDirectPredicates(r capability.RelationshipCapabilities) []string {
	var missing []string
	for _, c := range []struct {
		name  string
		state capability.TriState
	}{
		{"skos:topConceptOf", r.HasTopConceptOf},
		{"skos:hasTopConcept", r.HasHasTopConcept},
		{"skos:broaderTransitive", r.HasBroaderTransitive},
		{"skos:narrowerTransitive", r.HasNarrowerTransitive},
	} {
		if !c.state.IsTrue() {
			missing = append(missing, c.name)
		}
	}
	return missing
}

// Option adjusts a single fragment call.
type Option func(*fragmentOptions)

type fragmentOptions struct {
	strategy Strategy
}

// ForceStrategy bypasses the capability check for one call.
func ForceStrategy(s Strategy) Option {
	return func(o *fragmentOptions) { o.strategy = s }
}

func (p *Planner) resolve(schemeURI string, opts []Option) Strategy {
	var o fragmentOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.strategy == StrategyDirect || o.strategy == StrategyPathTraversal {
		return o.strategy
	}
	return p.SchemeStrategy(schemeURI)
}

// InSchemeFragment renders a group graph pattern binding resourceVar to the
// concepts of schemeURI. Variables may be given with or without "?".
func (p *Planner) InSchemeFragment(resourceVar, schemeURI string, opts ...Option) string {
	return inScheme(varName(resourceVar), sparql.IRI(schemeURI), p.resolve(schemeURI, opts))
}

// CollectionInSchemeFragment renders a pattern binding collectionVar to the
// collections whose members belong to schemeURI.
func (p *Planner) CollectionInSchemeFragment(collectionVar, schemeURI string, opts ...Option) string {
	c := varName(collectionVar)
	member := c + "Member"
	return fmt.Sprintf("?%s skos:member ?%s .\n%s", c, member,
		inScheme(member, sparql.IRI(schemeURI), p.resolve(schemeURI, opts)))
}

// ConceptsInSchemeQuery is a complete SELECT over the concepts of schemeURI.
func (p *Planner) ConceptsInSchemeQuery(schemeURI string, limit int, opts ...Option) string {
	q := fmt.Sprintf("SELECT DISTINCT ?concept WHERE {\n  ?concept a skos:Concept .\n%s\n}",
		indent(p.InSchemeFragment("concept", schemeURI, opts...), "  "))
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	return sparql.WithPrefixes(q)
}

func inScheme(v, scheme string, s Strategy) string {
	top := v + "Top"
	var ancestors string
	if s == StrategyDirect {
		ancestors = fmt.Sprintf(`{ ?%[1]s skos:broaderTransitive ?%[2]s . ?%[2]s skos:topConceptOf %[3]s }
UNION
{ ?%[2]s skos:narrowerTransitive ?%[1]s . %[3]s skos:hasTopConcept ?%[2]s }`, v, top, scheme)
	} else {
		ancestors = fmt.Sprintf(`{
  ?%[1]s (skos:broader|^skos:narrower)+ ?%[2]s .
  { ?%[2]s skos:topConceptOf %[3]s } UNION { %[3]s skos:hasTopConcept ?%[2]s }
}`, v, top, scheme)
	}
	return fmt.Sprintf(`{
  { ?%[1]s skos:topConceptOf %[2]s }
  UNION
  { %[2]s skos:hasTopConcept ?%[1]s }
  UNION
%[3]s
}`, v, scheme, indent(ancestors, "  "))
}

func varName(v string) string {
	return strings.TrimPrefix(strings.TrimSpace(v), "?")
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}
