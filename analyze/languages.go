package analyze

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/teranos/skosprobe/capability"
	"github.com/teranos/skosprobe/logger"
	"github.com/teranos/skosprobe/sparql"
)

const (
	DefaultLanguageBatchSize   = 10
	DefaultLanguageSampleLimit = 100000
	DefaultLanguageTop         = 50
)

var languageCode = regexp.MustCompile(`^[a-z]{2,3}$`)

// LanguageOptions selects the detection strategy.
type LanguageOptions struct {
	// GraphURIs enables the batched strategy: one aggregate per BatchSize graphs.
	GraphURIs []string
	BatchSize int

	// AcrossGraphs wraps the ungraphed query in GRAPH ?g and counts distinct
	// labels, so a label reached through two graphs is counted once.
	AcrossGraphs bool

	// SampleLimit bounds the concept sub-select of the sampling fallback.
	SampleLimit int

	// Top truncates the histogram after sorting.
	Top int
}

func (o LanguageOptions) withDefaults() LanguageOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultLanguageBatchSize
	}
	if o.SampleLimit <= 0 {
		o.SampleLimit = DefaultLanguageSampleLimit
	}
	if o.Top <= 0 {
		o.Top = DefaultLanguageTop
	}
	return o
}

// DetectLanguages builds the prefLabel language histogram of an endpoint
// with the default probe budget.
func DetectLanguages(ctx context.Context, q Querier, ep sparql.Endpoint, opts LanguageOptions) ([]capability.LanguageCount, error) {
	return NewProber(q, ep, DefaultProbeOptions(), nil).Languages(ctx, opts)
}

// Languages builds the prefLabel language histogram. Batches run strictly one
// after another to bound load on a store already known to be large. An empty
// histogram is read as an upstream timeout and triggers a bounded sample.
func (p *Prober) Languages(ctx context.Context, opts LanguageOptions) ([]capability.LanguageCount, error) {
	opts = opts.withDefaults()
	counts := make(map[string]int)

	if len(opts.GraphURIs) > 0 {
		for start := 0; start < len(opts.GraphURIs); start += opts.BatchSize {
			end := min(start+opts.BatchSize, len(opts.GraphURIs))
			batch := opts.GraphURIs[start:end]
			if err := p.languageQuery(ctx, "languages-batch", batchedLanguageQuery(batch), counts); err != nil {
				return nil, err
			}
			p.logger.Debugw("Language batch done",
				logger.FieldBatchSize, len(batch),
				logger.FieldCount, end,
				logger.FieldTotalCount, len(opts.GraphURIs),
			)
		}
	} else {
		if err := p.languageQuery(ctx, "languages", ungraphedLanguageQuery(opts.AcrossGraphs), counts); err != nil {
			return nil, err
		}
	}

	if len(counts) == 0 {
		p.logger.Debugw("Language aggregate empty, sampling",
			logger.FieldCount, opts.SampleLimit,
		)
		if err := p.languageQuery(ctx, "languages-sample", sampledLanguageQuery(opts.SampleLimit), counts); err != nil {
			return nil, err
		}
	}

	return rankLanguages(counts, opts.Top), nil
}

// languageQuery adds the ?lang/?count rows of query into counts.
// A failed query contributes nothing.
func (p *Prober) languageQuery(ctx context.Context, probe, query string, counts map[string]int) error {
	res, ok, err := p.run(ctx, probe, query)
	if err != nil || !ok {
		return err
	}
	for _, row := range res.Bindings {
		lang := strings.ToLower(strings.TrimSpace(row.Value("lang")))
		if !languageCode.MatchString(lang) {
			continue
		}
		n, parsed := row.Int("count")
		if !parsed || n <= 0 {
			continue
		}
		counts[lang] += n
	}
	return nil
}

func batchedLanguageQuery(graphs []string) string {
	values := make([]string, len(graphs))
	for i, g := range graphs {
		values[i] = sparql.IRI(g)
	}
	return fmt.Sprintf(`SELECT ?lang (COUNT(?label) AS ?count) WHERE {
  VALUES ?g { %s }
  GRAPH ?g { ?concept a skos:Concept ; skos:prefLabel ?label }
} GROUP BY (LANG(?label) AS ?lang)`, strings.Join(values, " "))
}

func ungraphedLanguageQuery(acrossGraphs bool) string {
	if acrossGraphs {
		return `SELECT ?lang (COUNT(DISTINCT ?label) AS ?count) WHERE {
  GRAPH ?g { ?concept a skos:Concept ; skos:prefLabel ?label }
} GROUP BY (LANG(?label) AS ?lang)`
	}
	return `SELECT ?lang (COUNT(?label) AS ?count) WHERE {
  ?concept a skos:Concept ; skos:prefLabel ?label
} GROUP BY (LANG(?label) AS ?lang)`
}

func sampledLanguageQuery(limit int) string {
	return fmt.Sprintf(`SELECT ?lang (COUNT(?label) AS ?count) WHERE {
  { SELECT ?concept WHERE { ?concept a skos:Concept } LIMIT %d }
  ?concept skos:prefLabel ?label
} GROUP BY (LANG(?label) AS ?lang)`, limit)
}

// rankLanguages sorts by count descending, ties by code, and keeps top.
func rankLanguages(counts map[string]int, top int) []capability.LanguageCount {
	langs := make([]capability.LanguageCount, 0, len(counts))
	for lang, n := range counts {
		langs = append(langs, capability.LanguageCount{Lang: lang, Count: n})
	}
	sort.Slice(langs, func(i, j int) bool {
		if langs[i].Count != langs[j].Count {
			return langs[i].Count > langs[j].Count
		}
		return langs[i].Lang < langs[j].Lang
	})
	if top > 0 && len(langs) > top {
		langs = langs[:top]
	}
	return langs
}

// GenerateLanguagePriorities orders language codes for display: by count
// descending, with "en" moved to the front when present. Every other relative
// order is preserved, and the output is a permutation of the input codes.
func GenerateLanguagePriorities(langs []capability.LanguageCount) []string {
	sorted := make([]capability.LanguageCount, len(langs))
	copy(sorted, langs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})

	out := make([]string, 0, len(sorted))
	enAt := -1
	for i, lc := range sorted {
		if enAt < 0 && lc.Lang == "en" {
			enAt = i
		}
		out = append(out, lc.Lang)
	}
	if enAt > 0 {
		copy(out[1:enAt+1], out[:enAt])
		out[0] = "en"
	}
	return out
}
