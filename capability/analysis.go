// Package capability holds the capability snapshot produced by probing a
// SPARQL endpoint, and its JSON form.
package capability

import (
	"slices"
	"time"

	"github.com/teranos/skosprobe/errors"
)

// RelationshipCapabilities records whether at least one triple using each
// SKOS relation predicate exists anywhere in the dataset.
type RelationshipCapabilities struct {
	HasInScheme           TriState `json:"hasInScheme" yaml:"hasInScheme"`
	HasTopConceptOf       TriState `json:"hasTopConceptOf" yaml:"hasTopConceptOf"`
	HasHasTopConcept      TriState `json:"hasHasTopConcept" yaml:"hasHasTopConcept"`
	HasBroader            TriState `json:"hasBroader" yaml:"hasBroader"`
	HasNarrower           TriState `json:"hasNarrower" yaml:"hasNarrower"`
	HasBroaderTransitive  TriState `json:"hasBroaderTransitive" yaml:"hasBroaderTransitive"`
	HasNarrowerTransitive TriState `json:"hasNarrowerTransitive" yaml:"hasNarrowerTransitive"`
}

// SupportsDirectSchemeMembership reports whether all four predicates the
// direct scheme-restriction fragment relies on are known to be populated.
func (r RelationshipCapabilities) SupportsDirectSchemeMembership() bool {
	return r.HasTopConceptOf.IsTrue() &&
		r.HasHasTopConcept.IsTrue() &&
		r.HasBroaderTransitive.IsTrue() &&
		r.HasNarrowerTransitive.IsTrue()
}

// LabelPredicate names one of the label properties probed per resource kind.
type LabelPredicate string

const (
	PrefLabel   LabelPredicate = "prefLabel"
	XLPrefLabel LabelPredicate = "xlPrefLabel"
	DCTTitle    LabelPredicate = "dctTitle"
	DCTitle     LabelPredicate = "dcTitle"
	RDFSLabel   LabelPredicate = "rdfsLabel"
)

// AllLabelPredicates lists the label predicates in preference order.
var AllLabelPredicates = []LabelPredicate{PrefLabel, XLPrefLabel, DCTTitle, DCTitle, RDFSLabel}

// Path returns the SPARQL property path reaching a literal label, using the
// skos, skosxl, dct, dc and rdfs prefixes.
func (p LabelPredicate) Path() string {
	switch p {
	case PrefLabel:
		return "skos:prefLabel"
	case XLPrefLabel:
		return "skosxl:prefLabel/skosxl:literalForm"
	case DCTTitle:
		return "dct:title"
	case DCTitle:
		return "dc:title"
	case RDFSLabel:
		return "rdfs:label"
	}
	return ""
}

// Class returns the prefixed rdf:type of the kind.
func (k ResourceKind) Class() string {
	switch k {
	case KindScheme:
		return "skos:ConceptScheme"
	case KindCollection:
		return "skos:Collection"
	default:
		return "skos:Concept"
	}
}

// LabelPredicates records which label properties have at least one instance
// for a resource kind.
type LabelPredicates struct {
	PrefLabel   TriState `json:"prefLabel" yaml:"prefLabel"`
	XLPrefLabel TriState `json:"xlPrefLabel" yaml:"xlPrefLabel"`
	DCTTitle    TriState `json:"dctTitle" yaml:"dctTitle"`
	DCTitle     TriState `json:"dcTitle" yaml:"dcTitle"`
	RDFSLabel   TriState `json:"rdfsLabel" yaml:"rdfsLabel"`
}

// Get returns the state of p.
func (l LabelPredicates) Get(p LabelPredicate) TriState {
	switch p {
	case PrefLabel:
		return l.PrefLabel
	case XLPrefLabel:
		return l.XLPrefLabel
	case DCTTitle:
		return l.DCTTitle
	case DCTitle:
		return l.DCTitle
	case RDFSLabel:
		return l.RDFSLabel
	}
	return Unknown
}

// Set records the state of p.
func (l *LabelPredicates) Set(p LabelPredicate, v TriState) {
	switch p {
	case PrefLabel:
		l.PrefLabel = v
	case XLPrefLabel:
		l.XLPrefLabel = v
	case DCTTitle:
		l.DCTTitle = v
	case DCTitle:
		l.DCTitle = v
	case RDFSLabel:
		l.RDFSLabel = v
	}
}

// ResourceKind is a SKOS resource type that carries labels.
type ResourceKind string

const (
	KindConcept    ResourceKind = "concept"
	KindScheme     ResourceKind = "scheme"
	KindCollection ResourceKind = "collection"
)

// LabelPredicateCapabilities holds label predicate facts per resource kind.
type LabelPredicateCapabilities struct {
	Concept    LabelPredicates `json:"concept" yaml:"concept"`
	Scheme     LabelPredicates `json:"scheme" yaml:"scheme"`
	Collection LabelPredicates `json:"collection" yaml:"collection"`
}

// For returns the facts for kind.
func (c LabelPredicateCapabilities) For(kind ResourceKind) LabelPredicates {
	switch kind {
	case KindScheme:
		return c.Scheme
	case KindCollection:
		return c.Collection
	default:
		return c.Concept
	}
}

// LanguageCount is one entry of the label language histogram.
type LanguageCount struct {
	Lang  string `json:"lang" yaml:"lang"`
	Count int    `json:"count" yaml:"count"`
}

// AnalysisResult is the capability snapshot of one endpoint.
// Once returned it is treated as immutable; use Clone before modifying.
type AnalysisResult struct {
	SupportsJSON        TriState `json:"supportsJson" yaml:"supportsJson"`
	HasSkosContent      TriState `json:"hasSkosContent" yaml:"hasSkosContent"`
	SupportsNamedGraphs TriState `json:"supportsNamedGraphs" yaml:"supportsNamedGraphs"`

	// SkosGraphURIs is nil when unknown: never probed, failed, or over the cap.
	SkosGraphCount Count    `json:"skosGraphCount" yaml:"skosGraphCount"`
	SkosGraphURIs  []string `json:"skosGraphUris" yaml:"skosGraphUris"`

	SchemeURIs     []string `json:"schemeUris" yaml:"schemeUris"`
	SchemeCount    int      `json:"schemeCount" yaml:"schemeCount"`
	SchemesLimited bool     `json:"schemesLimited" yaml:"schemesLimited"`

	TotalConcepts           Count `json:"totalConcepts" yaml:"totalConcepts"`
	TotalCollections        Count `json:"totalCollections" yaml:"totalCollections"`
	TotalOrderedCollections Count `json:"totalOrderedCollections" yaml:"totalOrderedCollections"`

	Relationships   RelationshipCapabilities   `json:"relationships" yaml:"relationships"`
	LabelPredicates LabelPredicateCapabilities `json:"labelPredicates" yaml:"labelPredicates"`
	Languages       []LanguageCount            `json:"languages" yaml:"languages"`

	AnalyzedAt time.Time `json:"analyzedAt" yaml:"analyzedAt"`
}

// Clone returns a deep copy.
func (a *AnalysisResult) Clone() *AnalysisResult {
	if a == nil {
		return nil
	}
	c := *a
	c.SkosGraphURIs = slices.Clone(a.SkosGraphURIs)
	c.SchemeURIs = slices.Clone(a.SchemeURIs)
	c.Languages = slices.Clone(a.Languages)
	return &c
}

// HasScheme reports whether uri is among the materialized scheme URIs.
func (a *AnalysisResult) HasScheme(uri string) bool {
	return a != nil && slices.Contains(a.SchemeURIs, uri)
}

// Validate checks the structural invariants of the snapshot.
func (a *AnalysisResult) Validate() error {
	if a == nil {
		return errors.Wrap(errors.ErrInvalidSnapshot, "snapshot is empty")
	}

	if a.SkosGraphURIs != nil {
		n, known := a.SkosGraphCount.Value()
		if !known {
			return errors.Wrap(errors.ErrInvalidSnapshot, "skosGraphUris present while skosGraphCount is unknown")
		}
		if n != len(a.SkosGraphURIs) {
			return errors.Wrapf(errors.ErrInvalidSnapshot,
				"skosGraphCount %d does not match %d skosGraphUris", n, len(a.SkosGraphURIs))
		}
	}

	if a.SchemeCount < 0 {
		return errors.Wrapf(errors.ErrInvalidSnapshot, "negative schemeCount %d", a.SchemeCount)
	}
	if len(a.SchemeURIs) > a.SchemeCount {
		return errors.Wrapf(errors.ErrInvalidSnapshot,
			"%d schemeUris exceed schemeCount %d", len(a.SchemeURIs), a.SchemeCount)
	}
	if complete := len(a.SchemeURIs) == a.SchemeCount; complete == a.SchemesLimited {
		return errors.Wrapf(errors.ErrInvalidSnapshot,
			"schemesLimited=%t inconsistent with %d of %d schemes", a.SchemesLimited, len(a.SchemeURIs), a.SchemeCount)
	}

	for _, lc := range a.Languages {
		if lc.Lang == "" || lc.Count < 0 {
			return errors.Wrapf(errors.ErrInvalidSnapshot, "invalid language entry %q=%d", lc.Lang, lc.Count)
		}
	}
	return nil
}
