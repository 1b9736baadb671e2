package planner

import (
	"fmt"
	"strings"

	"github.com/teranos/skosprobe/capability"
	"github.com/teranos/skosprobe/sparql"
)

// LabelPredicates returns the label predicates to query for kind: those known
// to be populated, or all of them when none is.
func (p *Planner) LabelPredicates(kind capability.ResourceKind) []capability.LabelPredicate {
	if p.analysis == nil {
		return capability.AllLabelPredicates
	}
	facts := p.analysis.LabelPredicates.For(kind)
	var known []capability.LabelPredicate
	for _, lp := range capability.AllLabelPredicates {
		if facts.Get(lp).IsTrue() {
			known = append(known, lp)
		}
	}
	if len(known) == 0 {
		return capability.AllLabelPredicates
	}
	return known
}

// LabelFragment binds labelVar to the labels of subjectVar.
func (p *Planner) LabelFragment(kind capability.ResourceKind, subjectVar, labelVar string) string {
	s, l := varName(subjectVar), varName(labelVar)
	preds := p.LabelPredicates(kind)
	if len(preds) == 1 {
		return fmt.Sprintf("?%s %s ?%s .", s, preds[0].Path(), l)
	}
	branches := make([]string, len(preds))
	for i, lp := range preds {
		branches[i] = fmt.Sprintf("{ ?%s %s ?%s }", s, lp.Path(), l)
	}
	return strings.Join(branches, "\nUNION\n")
}

// OrphanConceptsQuery lists concepts linked to no scheme at all: not via
// inScheme, not as a top concept, and not below any top concept.
func (p *Planner) OrphanConceptsQuery(limit int) string {
	ancestor := `?concept (skos:broader|^skos:narrower)+ ?top .`
	if p.analysis != nil && p.analysis.Relationships.SupportsDirectSchemeMembership() {
		ancestor = `?concept skos:broaderTransitive ?top .`
	}

	q := fmt.Sprintf(`SELECT DISTINCT ?concept WHERE {
  ?concept a skos:Concept .
  FILTER NOT EXISTS { ?concept skos:inScheme ?anyScheme }
  FILTER NOT EXISTS { ?concept skos:topConceptOf ?anyScheme }
  FILTER NOT EXISTS { ?anyScheme skos:hasTopConcept ?concept }
  FILTER NOT EXISTS {
    %s
    { ?top skos:topConceptOf ?anyScheme } UNION { ?anyScheme skos:hasTopConcept ?top }
  }
}`, ancestor)
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	return sparql.WithPrefixes(q)
}
