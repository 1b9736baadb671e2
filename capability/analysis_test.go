package capability

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/teranos/skosprobe/errors"
)

func sampleResult() *AnalysisResult {
	return &AnalysisResult{
		SupportsJSON:        True,
		HasSkosContent:      True,
		SupportsNamedGraphs: True,
		SkosGraphCount:      KnownCount(2),
		SkosGraphURIs:       []string{"http://ex.org/g1", "http://ex.org/g2"},
		SchemeURIs:          []string{"http://ex.org/s1"},
		SchemeCount:         1,
		TotalConcepts:       KnownCount(1200),
		TotalCollections:    KnownCount(0),
		Relationships: RelationshipCapabilities{
			HasInScheme:      True,
			HasTopConceptOf:  True,
			HasBroader:       True,
			HasNarrower:      False,
			HasHasTopConcept: Unknown,
		},
		LabelPredicates: LabelPredicateCapabilities{
			Concept: LabelPredicates{PrefLabel: True, RDFSLabel: False},
		},
		Languages:  []LanguageCount{{Lang: "en", Count: 1200}, {Lang: "de", Count: 800}},
		AnalyzedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestTriStateJSON(t *testing.T) {
	for _, tt := range []struct {
		state TriState
		json  string
	}{
		{True, "true"},
		{False, "false"},
		{Unknown, "null"},
	} {
		data, err := json.Marshal(tt.state)
		require.NoError(t, err)
		assert.Equal(t, tt.json, string(data))

		var back TriState
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, tt.state, back)
	}

	var zero TriState
	assert.Equal(t, Unknown, zero)
	assert.False(t, zero.IsFalse(), "unknown must never read as false")
	assert.Error(t, json.Unmarshal([]byte(`"yes"`), &zero))
}

func TestCountDistinguishesUnknownFromZero(t *testing.T) {
	zero := KnownCount(0)
	unknown := UnknownCount()

	assert.NotEqual(t, zero, unknown)
	assert.True(t, zero.Known())
	assert.False(t, unknown.Known())
	assert.Equal(t, "0", zero.String())
	assert.Equal(t, "unknown", unknown.String())

	data, err := json.Marshal(struct {
		A Count `json:"a"`
		B Count `json:"b"`
	}{zero, unknown})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":0,"b":null}`, string(data))

	var c Count
	assert.Error(t, json.Unmarshal([]byte("-3"), &c))
}

func TestYAMLRendersUnknownAsNull(t *testing.T) {
	data, err := yaml.Marshal(struct {
		Flag  TriState `yaml:"flag"`
		Total Count    `yaml:"total"`
		Set   TriState `yaml:"set"`
	}{Unknown, KnownCount(7), True})
	require.NoError(t, err)
	assert.Equal(t, "flag: null\ntotal: 7\nset: true\n", string(data))
}

func TestValidate(t *testing.T) {
	require.NoError(t, sampleResult().Validate())

	tests := []struct {
		name   string
		mutate func(a *AnalysisResult)
	}{
		{"graph uris with unknown count", func(a *AnalysisResult) { a.SkosGraphCount = UnknownCount() }},
		{"graph uris length mismatch", func(a *AnalysisResult) { a.SkosGraphCount = KnownCount(501) }},
		{"more scheme uris than count", func(a *AnalysisResult) { a.SchemeCount = 0 }},
		{"limited but complete", func(a *AnalysisResult) { a.SchemesLimited = true }},
		{"incomplete but not limited", func(a *AnalysisResult) { a.SchemeCount = 5 }},
		{"bad language", func(a *AnalysisResult) { a.Languages = append(a.Languages, LanguageCount{Lang: ""}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := sampleResult()
			tt.mutate(a)
			err := a.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidSnapshot))
		})
	}

	limited := sampleResult()
	limited.SchemeCount = 201
	limited.SchemesLimited = true
	assert.NoError(t, limited.Validate())

	unknownGraphs := sampleResult()
	unknownGraphs.SkosGraphURIs = nil
	unknownGraphs.SkosGraphCount = KnownCount(501)
	assert.NoError(t, unknownGraphs.Validate(), "count over the cap with uris withheld")
}

func TestCloneIsDeep(t *testing.T) {
	a := sampleResult()
	c := a.Clone()
	require.Equal(t, a, c)

	c.SchemeURIs[0] = "http://ex.org/changed"
	c.Languages[0].Count = 1
	c.SkosGraphURIs = append(c.SkosGraphURIs[:0], "x")

	assert.Equal(t, "http://ex.org/s1", a.SchemeURIs[0])
	assert.Equal(t, 1200, a.Languages[0].Count)
	assert.Equal(t, "http://ex.org/g1", a.SkosGraphURIs[0])

	var nilResult *AnalysisResult
	assert.Nil(t, nilResult.Clone())
}

func TestSnapshotRoundTripMatchesFieldNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, sampleResult()))

	for _, field := range []string{
		`"supportsNamedGraphs": true`,
		`"skosGraphCount": 2`,
		`"schemesLimited": false`,
		`"totalOrderedCollections": null`,
		`"hasHasTopConcept": null`,
		`"xlPrefLabel": null`,
	} {
		assert.Contains(t, buf.String(), field)
	}

	loaded, err := LoadSnapshot(&buf)
	require.NoError(t, err)
	assert.Equal(t, sampleResult(), loaded)
}

func TestLoadSnapshotRejectsInvalid(t *testing.T) {
	_, err := LoadSnapshot(strings.NewReader(`{"schemeUris":["a","b"],"schemeCount":1}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidSnapshot))

	_, err = LoadSnapshot(strings.NewReader(`{"schemeCount":0,"bogusField":1}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidSnapshot))

	loaded, err := LoadSnapshot(strings.NewReader(`{"hasSkosContent":false,"schemeCount":0}`))
	require.NoError(t, err)
	assert.Equal(t, False, loaded.HasSkosContent)
	assert.Equal(t, Unknown, loaded.SupportsNamedGraphs)
	assert.NotNil(t, loaded.SchemeURIs)
}

func TestSupportsDirectSchemeMembership(t *testing.T) {
	all := RelationshipCapabilities{
		HasTopConceptOf:       True,
		HasHasTopConcept:      True,
		HasBroaderTransitive:  True,
		HasNarrowerTransitive: True,
	}
	assert.True(t, all.SupportsDirectSchemeMembership())

	partial := all
	partial.HasNarrowerTransitive = Unknown
	assert.False(t, partial.SupportsDirectSchemeMembership())
}

func TestLabelPredicatesGetSet(t *testing.T) {
	var l LabelPredicates
	for _, p := range AllLabelPredicates {
		assert.Equal(t, Unknown, l.Get(p))
		l.Set(p, True)
		assert.Equal(t, True, l.Get(p))
	}
	caps := LabelPredicateCapabilities{Scheme: l}
	assert.Equal(t, True, caps.For(KindScheme).DCTitle)
	assert.Equal(t, Unknown, caps.For(KindConcept).DCTitle)
}
