package analyze

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/skosprobe/capability"
	"github.com/teranos/skosprobe/logger"
	"github.com/teranos/skosprobe/sparql"
)

// Step reports one finished pipeline stage.
type Step struct {
	Index    int // 1-based
	Total    int
	Name     string
	Duration time.Duration
	Result   string
}

// StepFunc observes progress. It never affects control flow.
type StepFunc func(Step)

// Config tunes the probe battery.
type Config struct {
	Probe     sparql.QueryOptions
	GraphCap  int
	SchemeCap int
	Languages LanguageOptions
}

// DefaultConfig returns the standard battery settings.
func DefaultConfig() Config {
	return Config{
		Probe:     DefaultProbeOptions(),
		GraphCap:  DefaultGraphCap,
		SchemeCap: DefaultSchemeCap,
		Languages: LanguageOptions{}.withDefaults(),
	}
}

// Analyzer orchestrates the probe battery into one AnalysisResult.
type Analyzer struct {
	querier Querier
	config  Config
	logger  *zap.SugaredLogger
	onStep  StepFunc
	now     func() time.Time
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithConfig replaces the battery settings.
func WithConfig(cfg Config) AnalyzerOption {
	return func(a *Analyzer) { a.config = cfg }
}

// WithLogger sets the logger. nil keeps the analyzer silent.
func WithLogger(l *zap.SugaredLogger) AnalyzerOption {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithStepFunc installs a progress callback.
func WithStepFunc(fn StepFunc) AnalyzerOption {
	return func(a *Analyzer) { a.onStep = fn }
}

// WithClock replaces the clock used for AnalyzedAt.
func WithClock(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) { a.now = now }
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(q Querier, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		querier: q,
		config:  DefaultConfig(),
		logger:  zap.NewNop().Sugar(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// pipelineState is threaded explicitly through every stage.
type pipelineState struct {
	result capability.AnalysisResult
	done   bool // set when SKOS presence is False
}

type stage struct {
	name string
	run  func(ctx context.Context, p *Prober, st *pipelineState) (string, error)
}

func (a *Analyzer) stages() []stage {
	return []stage{
		{"json-support", a.stageJSON},
		{"skos-presence", a.stagePresence},
		{"named-graphs", a.stageNamedGraphs},
		{"skos-graphs", a.stageSkosGraphs},
		{"schemes", a.stageSchemes},
		{"counts", a.stageCounts},
		{"relationships", a.stageRelationships},
		{"label-predicates", a.stageLabels},
		{"languages", a.stageLanguages},
	}
}

// Analyze runs the battery in order. Stage failures are local; the only
// early exit is an endpoint without SKOS content. The error is non-nil only
// when ctx is cancelled.
func (a *Analyzer) Analyze(ctx context.Context, ep sparql.Endpoint) (*capability.AnalysisResult, error) {
	log := a.logger.With(logger.FieldEndpoint, ep.URL)
	prober := NewProber(a.querier, ep, a.config.Probe, log)

	st := &pipelineState{result: capability.AnalysisResult{SchemeURIs: []string{}}}
	stages := a.stages()

	for i, s := range stages {
		start := time.Now()
		summary, err := s.run(ctx, prober, st)
		if err != nil {
			log.Debugw("Analysis cancelled", logger.FieldStep, s.name, logger.FieldError, err)
			return nil, err
		}

		step := Step{Index: i + 1, Total: len(stages), Name: s.name, Duration: time.Since(start), Result: summary}
		log.Infow("Analysis step finished",
			logger.FieldStep, s.name,
			logger.FieldResult, summary,
			logger.FieldDurationMS, step.Duration.Milliseconds(),
		)
		if a.onStep != nil {
			a.onStep(step)
		}
		if st.done {
			break
		}
	}

	result := st.result
	if result.Languages == nil {
		result.Languages = []capability.LanguageCount{}
	}
	result.AnalyzedAt = a.now().UTC()

	if err := result.Validate(); err != nil {
		log.Warnw("Analysis produced an inconsistent snapshot", logger.FieldError, err)
	}
	return &result, nil
}

func (a *Analyzer) stageJSON(ctx context.Context, p *Prober, st *pipelineState) (string, error) {
	v, err := p.JSONSupport(ctx)
	st.result.SupportsJSON = v
	if v.IsFalse() {
		a.logger.Infow("Endpoint does not answer in SPARQL JSON, accepting XML results",
			logger.FieldEndpoint, p.endpoint.URL)
		p.AcceptXML()
	}
	return v.String(), err
}

func (a *Analyzer) stagePresence(ctx context.Context, p *Prober, st *pipelineState) (string, error) {
	v, err := p.SkosPresence(ctx)
	if err != nil {
		return "", err
	}
	st.result.HasSkosContent = v
	if v.IsFalse() {
		st.done = true
		return "no SKOS content", nil
	}
	return v.String(), nil
}

func (a *Analyzer) stageNamedGraphs(ctx context.Context, p *Prober, st *pipelineState) (string, error) {
	v, err := p.NamedGraphs(ctx)
	st.result.SupportsNamedGraphs = v
	return v.String(), err
}

func (a *Analyzer) stageSkosGraphs(ctx context.Context, p *Prober, st *pipelineState) (string, error) {
	if !st.result.SupportsNamedGraphs.IsTrue() {
		return "skipped", nil
	}
	graphs, err := p.SkosGraphs(ctx, a.config.GraphCap)
	if err != nil {
		return "", err
	}
	st.result.SkosGraphCount = graphs.Count
	st.result.SkosGraphURIs = graphs.URIs
	if graphs.Count.Known() && graphs.URIs == nil {
		return fmt.Sprintf("more than %d graphs", a.config.GraphCap), nil
	}
	return graphs.Count.String() + " graphs", nil
}

func (a *Analyzer) stageSchemes(ctx context.Context, p *Prober, st *pipelineState) (string, error) {
	schemes, err := p.Schemes(ctx, a.config.SchemeCap)
	if err != nil {
		return "", err
	}
	st.result.SchemeURIs = schemes.URIs
	st.result.SchemeCount = schemes.Count
	st.result.SchemesLimited = schemes.Limited
	if schemes.Limited {
		return fmt.Sprintf("%d schemes (showing %d)", schemes.Count, len(schemes.URIs)), nil
	}
	return fmt.Sprintf("%d schemes", schemes.Count), nil
}

func (a *Analyzer) stageCounts(ctx context.Context, p *Prober, st *pipelineState) (string, error) {
	c, err := p.Counts(ctx)
	if err != nil {
		return "", err
	}
	st.result.TotalConcepts = c.Concepts
	st.result.TotalCollections = c.Collections
	st.result.TotalOrderedCollections = c.OrderedCollections
	return fmt.Sprintf("%s concepts, %s collections, %s ordered collections",
		c.Concepts, c.Collections, c.OrderedCollections), nil
}

func (a *Analyzer) stageRelationships(ctx context.Context, p *Prober, st *pipelineState) (string, error) {
	r, err := p.Relationships(ctx)
	if err != nil {
		return "", err
	}
	st.result.Relationships = r
	return fmt.Sprintf("topConceptOf=%s hasTopConcept=%s broaderTransitive=%s narrowerTransitive=%s",
		r.HasTopConceptOf, r.HasHasTopConcept, r.HasBroaderTransitive, r.HasNarrowerTransitive), nil
}

func (a *Analyzer) stageLabels(ctx context.Context, p *Prober, st *pipelineState) (string, error) {
	var caps capability.LabelPredicateCapabilities
	targets := []struct {
		kind capability.ResourceKind
		dst  *capability.LabelPredicates
	}{
		{capability.KindConcept, &caps.Concept},
		{capability.KindScheme, &caps.Scheme},
		{capability.KindCollection, &caps.Collection},
	}
	for _, t := range targets {
		preds, err := p.LabelPredicates(ctx, t.kind)
		if err != nil {
			return "", err
		}
		*t.dst = preds
	}
	st.result.LabelPredicates = caps

	var found []string
	for _, lp := range capability.AllLabelPredicates {
		if caps.Concept.Get(lp).IsTrue() {
			found = append(found, string(lp))
		}
	}
	if len(found) == 0 {
		return "no concept labels found", nil
	}
	return "concept labels: " + strings.Join(found, ", "), nil
}

func (a *Analyzer) stageLanguages(ctx context.Context, p *Prober, st *pipelineState) (string, error) {
	opts := a.config.Languages
	opts.GraphURIs = st.result.SkosGraphURIs
	opts.AcrossGraphs = st.result.SupportsNamedGraphs.IsTrue() && st.result.SkosGraphURIs == nil

	langs, err := p.Languages(ctx, opts)
	if err != nil {
		return "", err
	}
	st.result.Languages = langs
	return fmt.Sprintf("%d languages", len(langs)), nil
}
