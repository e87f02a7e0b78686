package main

import (
	"go.uber.org/zap"

	"github.com/ontotag/ontotag/internal/dictcache"
	"github.com/ontotag/ontotag/internal/server"
	"github.com/ontotag/ontotag/pkg/config"
	"github.com/ontotag/ontotag/pkg/doc"
	"github.com/ontotag/ontotag/pkg/match"
	"github.com/ontotag/ontotag/pkg/normalize"
	"github.com/ontotag/ontotag/pkg/pipeline"
	"github.com/ontotag/ontotag/pkg/termdict"
	"github.com/ontotag/ontotag/pkg/termsource"
	"github.com/ontotag/ontotag/pkg/tokenize"
)

// buildPipeline assembles the full pipeline from a validated
// configuration: tokenizer, normalizer cascade, every dictionary
// (through the row cache when one is configured), and the processing
// options.
func buildPipeline(cfg *config.Config, logger *zap.Logger) (*pipeline.Pipeline, error) {
	tok := tokenize.New(tokenize.Options{
		SplitHyphen: cfg.Tokenizer.SplitHyphen,
		SplitSlash:  cfg.Tokenizer.SplitSlash,
	})
	norm, err := normalize.New(cfg.Normalization...)
	if err != nil {
		return nil, err
	}

	var cache *dictcache.Store
	if cfg.CachePath != "" {
		cache, err = dictcache.Open(cfg.CachePath)
		if err != nil {
			return nil, err
		}
		defer cache.Close()
	}

	dicts := make([]*termdict.Dictionary, 0, len(cfg.Dictionaries))
	for _, dc := range cfg.Dictionaries {
		src, err := openSource(dc, cache, logger)
		if err != nil {
			return nil, err
		}
		dict, err := termdict.Build(dc.Name, src, tok, norm, dc.Priority)
		if closer, ok := src.(interface{ Close() error }); ok {
			closer.Close()
		}
		if err != nil {
			return nil, err
		}
		for _, warn := range dict.Warnings() {
			logger.Warn("termlist row skipped",
				zap.String("dictionary", dc.Name), zap.Error(warn))
		}
		logger.Info("dictionary loaded",
			zap.String("name", dc.Name), zap.Int("terms", dict.Len()))
		dicts = append(dicts, dict)
	}

	policy, err := match.ParsePolicy(cfg.OverlapPolicy)
	if err != nil {
		return nil, err
	}
	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithPolicy(policy),
		pipeline.WithStepBudget(cfg.StepBudget),
		pipeline.WithWorkers(cfg.Workers),
	}
	if cfg.Offsets == "codepoints" {
		opts = append(opts, pipeline.WithOffsetMode(doc.RuneOffsets))
	}
	if cfg.SentenceBoundaries {
		opts = append(opts, pipeline.WithSentenceBoundaries())
	}
	if cfg.AbbrevDetection {
		opts = append(opts, pipeline.WithAbbrevDetection())
	}
	if cfg.IgnoreDocErrors {
		opts = append(opts, pipeline.WithIgnoreDocErrors())
	}
	return pipeline.New(tok, norm, dicts, opts...)
}

// openSource picks the row source for one dictionary: cached rows when a
// cache is configured, a plain TSV parse otherwise.
func openSource(dc config.DictionaryConfig, cache *dictcache.Store, logger *zap.Logger) (termsource.Source, error) {
	opts := termsource.TSVOptions{
		Format:     termsource.Format(dc.Format),
		SkipHeader: dc.SkipHeader,
	}
	if cache == nil {
		return termsource.OpenTSV(dc.Path, opts)
	}
	src, warnings, err := cache.Source(dc.Path, opts)
	if err != nil {
		return nil, err
	}
	for _, warn := range warnings {
		logger.Warn("termlist row skipped",
			zap.String("dictionary", dc.Name), zap.Error(warn))
	}
	return src, nil
}

func newServer(p *pipeline.Pipeline, logger *zap.Logger) *server.Server {
	return server.New(p, logger)
}
