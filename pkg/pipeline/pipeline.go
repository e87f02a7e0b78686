// Package pipeline wires tokenizer, normalizer, dictionaries, matcher
// and postfilters into a reusable processing unit.
//
// A Pipeline is constructed once per configuration and reused for many
// documents. All its parts are immutable after construction, so any
// number of documents can be processed concurrently without locking;
// the only shared mutable state is the abbreviation cache, which is
// keyed by document identity and written by one goroutine per key.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/ontotag/ontotag/pkg/doc"
	"github.com/ontotag/ontotag/pkg/match"
	"github.com/ontotag/ontotag/pkg/normalize"
	"github.com/ontotag/ontotag/pkg/termdict"
	"github.com/ontotag/ontotag/pkg/tokenize"
)

// Postfilter is the caller-supplied hook invoked once per document after
// overlap resolution. It may add, remove or rewrite entities. It is a
// registered interface value, never text evaluated as code.
type Postfilter interface {
	Visit(*doc.Article) error
}

// PostfilterFunc adapts a plain function to the Postfilter interface.
type PostfilterFunc func(*doc.Article) error

// Visit implements Postfilter.
func (f PostfilterFunc) Visit(a *doc.Article) error { return f(a) }

// Pipeline owns its dictionaries and caches explicitly; its lifetime is
// the caller's responsibility. Construct once, use for many documents,
// then Release.
type Pipeline struct {
	tokenizer  *tokenize.Tokenizer
	normalizer normalize.Chain
	dicts      []*termdict.Dictionary

	policy      match.Policy
	offsets     doc.OffsetMode
	stepBudget  int
	sentences   bool
	abbrev      bool
	ignoreErrs  bool
	workers     int
	postfilters []Postfilter

	abbrevCache *lru.Cache[string, map[string]*termdict.Entry]
	abbrevMu    sync.Mutex

	pool   *ants.Pool
	logger *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets the structured logger. Default is zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) error {
		if logger != nil {
			p.logger = logger
		}
		return nil
	}
}

// WithPolicy sets the overlap policy. Default is longest-wins.
func WithPolicy(policy match.Policy) Option {
	return func(p *Pipeline) error {
		p.policy = policy
		return nil
	}
}

// WithOffsetMode sets how entity offsets are reported. Default is bytes.
func WithOffsetMode(mode doc.OffsetMode) Option {
	return func(p *Pipeline) error {
		p.offsets = mode
		return nil
	}
}

// WithStepBudget caps candidates generated per section, guarding against
// pathological dictionary/text pairs.
func WithStepBudget(budget int) Option {
	return func(p *Pipeline) error {
		if budget < 0 {
			return fmt.Errorf("pipeline: negative step budget")
		}
		p.stepBudget = budget
		return nil
	}
}

// WithSentenceBoundaries forbids entity spans crossing sentence ends.
func WithSentenceBoundaries() Option {
	return func(p *Pipeline) error {
		p.sentences = true
		return nil
	}
}

// WithAbbrevDetection enables document-local abbreviation learning.
func WithAbbrevDetection() Option {
	return func(p *Pipeline) error {
		p.abbrev = true
		return nil
	}
}

// WithPostfilters registers hooks, applied in order per document.
func WithPostfilters(filters ...Postfilter) Option {
	return func(p *Pipeline) error {
		p.postfilters = append(p.postfilters, filters...)
		return nil
	}
}

// WithWorkers sizes the collection worker pool. Default is NumCPU.
func WithWorkers(n int) Option {
	return func(p *Pipeline) error {
		if n < 0 {
			return fmt.Errorf("pipeline: negative worker count")
		}
		p.workers = n
		return nil
	}
}

// WithIgnoreDocErrors lets collection runs continue past failed documents.
func WithIgnoreDocErrors() Option {
	return func(p *Pipeline) error {
		p.ignoreErrs = true
		return nil
	}
}

// New builds a pipeline around already-built dictionaries.
//
// Every dictionary must have been built with the same normalizer chain
// the pipeline will key tokens with; a mismatch would produce silent
// false negatives, so it is rejected here, at construction time.
func New(tok *tokenize.Tokenizer, norm normalize.Chain, dicts []*termdict.Dictionary, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		tokenizer:  tok,
		normalizer: norm,
		dicts:      dicts,
		workers:    runtime.NumCPU(),
		logger:     zap.NewNop(),
	}
	for _, d := range dicts {
		if d.NormalizerName() != norm.Name() {
			return nil, fmt.Errorf("%w: dictionary %q built with %q, matcher configured with %q",
				ErrNormalizerMismatch, d.Name(), d.NormalizerName(), norm.Name())
		}
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if p.workers == 0 {
		p.workers = runtime.NumCPU()
	}
	if p.abbrev {
		cache, err := lru.New[string, map[string]*termdict.Entry](1024)
		if err != nil {
			return nil, err
		}
		p.abbrevCache = cache
	}
	pool, err := ants.NewPool(p.workers)
	if err != nil {
		return nil, err
	}
	p.pool = pool
	return p, nil
}

// Release frees the worker pool. The pipeline must not be used after.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// Dictionaries exposes the pipeline's dictionaries (read-only use).
func (p *Pipeline) Dictionaries() []*termdict.Dictionary { return p.dicts }

// ProcessArticle runs the full match on one document: tokenize each
// section, collect raw candidates across all dictionaries, resolve
// overlaps, convert offsets, then run the postfilters. Failures are
// scoped to this document.
func (p *Pipeline) ProcessArticle(ctx context.Context, article *doc.Article) error {
	learned := p.learnedAbbrevs(article.ID)

	for _, sec := range article.Sections {
		toks, err := p.tokenizer.Tokenize(sec.Text)
		if err != nil {
			return &DocError{ArticleID: article.ID, Err: err}
		}
		sec.Tokens = toks

		opts := match.Options{Policy: p.policy, StepBudget: p.stepBudget}
		if p.sentences {
			opts.Boundaries = sentenceEnds(sec.Text)
		}
		raws, err := match.Candidates(ctx, sec, p.dicts, p.normalizer, opts)
		if err != nil {
			return &DocError{ArticleID: article.ID, Err: err}
		}

		if p.abbrev {
			p.detectAbbrevs(sec, raws, learned)
			raws = append(raws, p.abbrevRaws(sec, learned)...)
		}

		sec.Entities = match.Resolve(sec, raws, p.policy)
		if p.offsets == doc.RuneOffsets {
			convertOffsets(sec)
		}
	}

	if p.abbrev && len(learned) > 0 {
		p.storeAbbrevs(article.ID, learned)
	}

	for _, pf := range p.postfilters {
		if err := pf.Visit(article); err != nil {
			return &PostfilterError{ArticleID: article.ID, Err: err}
		}
	}
	return nil
}

// ProcessCollection matches every article of the collection, fanning the
// documents out over the worker pool. Documents are independent units of
// work: one document's failure never corrupts another's results.
//
// The returned report lists every document's outcome. The error is
// non-nil only when a document failed and ignore-doc-errors is off.
func (p *Pipeline) ProcessCollection(ctx context.Context, coll *doc.Collection) (*Report, error) {
	report := &Report{Docs: make([]DocReport, len(coll.Articles))}

	var wg sync.WaitGroup
	for i, article := range coll.Articles {
		i, article := i, article
		wg.Add(1)
		submit := func() {
			defer wg.Done()
			err := p.ProcessArticle(ctx, article)
			report.Docs[i] = DocReport{
				ArticleID: article.ID,
				Entities:  len(article.Entities()),
				Err:       err,
			}
			if err != nil {
				p.logger.Warn("document failed",
					zap.String("article", article.ID), zap.Error(err))
			}
		}
		if err := p.pool.Submit(submit); err != nil {
			// Pool rejected the task (released or overloaded); run inline
			// so the document is still accounted for.
			submit()
		}
	}
	wg.Wait()

	if !p.ignoreErrs {
		for _, d := range report.Docs {
			if d.Err != nil {
				return report, fmt.Errorf("document %s: %w", d.ArticleID, d.Err)
			}
		}
	}
	return report, nil
}

// sentenceEnds lists the byte offsets that entity spans must not cross.
func sentenceEnds(text string) []int {
	sentences := tokenize.Sentences(text)
	if len(sentences) < 2 {
		return nil
	}
	ends := make([]int, 0, len(sentences)-1)
	for _, s := range sentences[:len(sentences)-1] {
		ends = append(ends, s.End)
	}
	return ends
}

// convertOffsets rewrites a section's entity spans from bytes to
// codepoints. The matched text is unaffected.
func convertOffsets(sec *doc.Section) {
	for i, e := range sec.Entities {
		sec.Entities[i].Start = tokenize.RuneOffset(sec.Text, e.Start)
		sec.Entities[i].End = tokenize.RuneOffset(sec.Text, e.End)
	}
}
