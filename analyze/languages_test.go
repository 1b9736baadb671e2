package analyze

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/skosprobe/capability"
	"github.com/teranos/skosprobe/errors"
	"github.com/teranos/skosprobe/sparql"
)

func TestLanguagesBatched(t *testing.T) {
	graphs := uris("http://ex.org/g", 23)
	batch := 0
	q := newScriptedQuerier().on(qLangBatched, func(query string) (*sparql.Result, error) {
		batch++
		switch batch {
		case 1:
			return langRows("en", 10, "de", 4, "EN", 2), nil
		case 2:
			return nil, errors.NewAppError(errors.CodeTimeout, "batch timed out")
		default:
			return langRows("fr", 7, "en", 1, "x-klingon", 99, "", 3), nil
		}
	})

	got, err := newTestProber(t, q).Languages(context.Background(), LanguageOptions{GraphURIs: graphs})
	require.NoError(t, err)

	assert.Equal(t, 3, q.issued(qLangBatched), "23 graphs in batches of 10")
	assert.Zero(t, q.issued(qLangSample))
	assert.Equal(t, []capability.LanguageCount{
		{Lang: "en", Count: 13},
		{Lang: "fr", Count: 7},
		{Lang: "de", Count: 4},
	}, got)
}

func TestLanguagesBatchContainsGraphIRIs(t *testing.T) {
	q := newScriptedQuerier().reply(qLangBatched, langRows("en", 1))
	_, err := newTestProber(t, q).Languages(context.Background(), LanguageOptions{
		GraphURIs: []string{"http://ex.org/a", "http://ex.org/b c"},
		BatchSize: 5,
	})
	require.NoError(t, err)
	require.Len(t, q.queries, 1)
	assert.Contains(t, q.queries[0], "<http://ex.org/a> <http://ex.org/b%20c>")
}

func TestLanguagesUngraphed(t *testing.T) {
	q := newScriptedQuerier().reply(qLangPlain, langRows("nl", 5, "en", 5))
	got, err := newTestProber(t, q).Languages(context.Background(), LanguageOptions{})
	require.NoError(t, err)

	// Ties are ordered by code
	assert.Equal(t, []capability.LanguageCount{{Lang: "en", Count: 5}, {Lang: "nl", Count: 5}}, got)
	assert.Zero(t, q.issued(qLangAcross))
}

func TestLanguagesAcrossGraphs(t *testing.T) {
	q := newScriptedQuerier().reply(qLangAcross, langRows("en", 2))
	got, err := newTestProber(t, q).Languages(context.Background(), LanguageOptions{AcrossGraphs: true})
	require.NoError(t, err)
	assert.Equal(t, []capability.LanguageCount{{Lang: "en", Count: 2}}, got)
	assert.Equal(t, 1, q.issued("GRAPH ?g { ?concept a skos:Concept"))
}

func TestLanguagesSamplingFallback(t *testing.T) {
	tests := []struct {
		name string
		q    *scriptedQuerier
		opts LanguageOptions
	}{
		{
			name: "aggregate fails",
			q:    newScriptedQuerier().fail(qLangPlain, errors.CodeTimeout),
		},
		{
			name: "aggregate empty",
			q:    newScriptedQuerier().reply(qLangPlain, langRows()),
		},
		{
			name: "every batch empty",
			q:    newScriptedQuerier().reply(qLangBatched, langRows()),
			opts: LanguageOptions{GraphURIs: uris("http://ex.org/g", 3)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.q.reply(qLangSample, langRows("es", 40))
			tt.opts.SampleLimit = 250

			got, err := newTestProber(t, tt.q).Languages(context.Background(), tt.opts)
			require.NoError(t, err)
			assert.Equal(t, []capability.LanguageCount{{Lang: "es", Count: 40}}, got)
			assert.Equal(t, 1, tt.q.issued("LIMIT 250"))
		})
	}
}

func TestLanguagesEverythingFails(t *testing.T) {
	got, err := DetectLanguages(context.Background(), newScriptedQuerier(), testEndpoint, LanguageOptions{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestLanguagesTop(t *testing.T) {
	q := newScriptedQuerier().reply(qLangPlain, langRows("aa", 1, "bb", 2, "cc", 3, "dd", 4))
	got, err := newTestProber(t, q).Languages(context.Background(), LanguageOptions{Top: 2})
	require.NoError(t, err)
	assert.Equal(t, []capability.LanguageCount{{Lang: "dd", Count: 4}, {Lang: "cc", Count: 3}}, got)
}

func TestLanguagesCancelledBetweenBatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := newScriptedQuerier().on(qLangBatched, func(string) (*sparql.Result, error) {
		cancel()
		return langRows("en", 1), nil
	})

	_, err := newTestProber(t, q).Languages(ctx, LanguageOptions{GraphURIs: uris("http://ex.org/g", 30)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, len(q.queries), "the second batch sees the cancelled context")
}

func TestGenerateLanguagePriorities(t *testing.T) {
	tests := []struct {
		name  string
		langs []capability.LanguageCount
		want  []string
	}{
		{
			name:  "empty",
			langs: nil,
			want:  []string{},
		},
		{
			name:  "en already first",
			langs: []capability.LanguageCount{{Lang: "en", Count: 9}, {Lang: "de", Count: 3}},
			want:  []string{"en", "de"},
		},
		{
			name:  "en promoted",
			langs: []capability.LanguageCount{{Lang: "de", Count: 1}, {Lang: "fr", Count: 9}, {Lang: "en", Count: 2}, {Lang: "nl", Count: 5}},
			want:  []string{"en", "fr", "nl", "de"},
		},
		{
			name:  "no en, stable on ties",
			langs: []capability.LanguageCount{{Lang: "nl", Count: 2}, {Lang: "de", Count: 2}, {Lang: "fr", Count: 3}},
			want:  []string{"fr", "nl", "de"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateLanguagePriorities(tt.langs)
			assert.Equal(t, tt.want, got)

			// Always a permutation of the input codes
			assert.Len(t, got, len(tt.langs))
			for _, lc := range tt.langs {
				assert.Contains(t, got, lc.Lang)
			}
		})
	}
}

func TestGenerateLanguagePrioritiesDoesNotMutateInput(t *testing.T) {
	langs := []capability.LanguageCount{{Lang: "de", Count: 1}, {Lang: "en", Count: 2}}
	_ = GenerateLanguagePriorities(langs)
	assert.Equal(t, "de", langs[0].Lang)
	assert.Equal(t, "en", langs[1].Lang)
}
