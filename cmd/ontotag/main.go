// Command ontotag annotates text with dictionary-matched concepts.
//
//	ontotag tag -c config.yml -i corpus.txt -f txt -o out.tsv -w pubtator
//	ontotag serve -c config.yml
//	ontotag compile -c config.yml
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/ontotag/ontotag/internal/format"
	"github.com/ontotag/ontotag/pkg/config"
	"github.com/ontotag/ontotag/pkg/doc"
)

func main() {
	app := &cli.App{
		Name:  "ontotag",
		Usage: "dictionary-based concept recognition for text",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "pipeline configuration file",
				Value:   "ontotag.yml",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "verbose logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "tag",
				Usage: "annotate documents from a file or stdin",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "input file (default stdin)",
					},
					&cli.StringFlag{
						Name:    "in-format",
						Aliases: []string{"f"},
						Usage:   "input format: txt, pubtator",
						Value:   "txt",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "output file (default stdout)",
					},
					&cli.StringFlag{
						Name:    "out-format",
						Aliases: []string{"w"},
						Usage:   "output format: pubtator, pubannotation, conll",
						Value:   "pubtator",
					},
				},
				Action: runTag,
			},
			{
				Name:   "serve",
				Usage:  "run the HTTP tagging service",
				Action: runServe,
			},
			{
				Name:   "compile",
				Usage:  "parse the termlists and warm the dictionary cache",
				Action: runCompile,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ontotag:", err)
		os.Exit(1)
	}
}

func setup(c *cli.Context) (*config.Config, *zap.Logger, error) {
	logger, err := newLogger(c.Bool("debug"))
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		logger.Sync()
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	zc := zap.NewProductionConfig()
	zc.DisableStacktrace = true
	return zc.Build()
}

func runTag(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer p.Release()

	in := io.Reader(os.Stdin)
	inputName := "stdin"
	if path := c.String("input"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
		inputName = path
	}

	var coll *doc.Collection
	switch c.String("in-format") {
	case "txt":
		article, err := format.LoadText(inputName, in, format.TxtOptions{})
		if err != nil {
			return err
		}
		coll = &doc.Collection{Articles: []*doc.Article{article}}
	case "pubtator":
		coll, err = format.LoadPubTator(in)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown input format %q", c.String("in-format"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := p.ProcessCollection(ctx, coll)
	if report != nil {
		for _, d := range report.Failed() {
			logger.Warn("document failed", zap.String("article", d.ArticleID), zap.Error(d.Err))
		}
	}
	if err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	var writer format.Writer
	switch c.String("out-format") {
	case "pubtator":
		writer = format.NewPubTatorWriter(out)
	case "pubannotation":
		writer = format.NewPubAnnotationWriter(out)
	case "conll":
		writer = format.NewCoNLLWriter(out)
	default:
		return fmt.Errorf("unknown output format %q", c.String("out-format"))
	}
	return writer.Write(coll)
}

func runServe(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer p.Release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := newServer(p, logger)
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

func runCompile(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.CachePath == "" {
		return fmt.Errorf("compile needs cache_path set in the configuration")
	}
	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer p.Release()

	for _, d := range p.Dictionaries() {
		logger.Info("dictionary compiled",
			zap.String("name", d.Name()),
			zap.Int("terms", d.Len()),
			zap.Int("skipped_rows", len(d.Warnings())))
	}
	return nil
}
