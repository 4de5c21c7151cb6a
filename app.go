package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"pptx-translator/internal/config"
	"pptx-translator/internal/content"
	"pptx-translator/internal/errors"
	"pptx-translator/internal/extractor"
	"pptx-translator/internal/logger"
	"pptx-translator/internal/pptx"
	"pptx-translator/internal/reassembler"
	"pptx-translator/internal/report"
	"pptx-translator/internal/translator"
	"pptx-translator/internal/types"
)

var (
	okColor    = color.New(color.FgGreen, color.Bold)
	warnColor  = color.New(color.FgYellow, color.Bold)
	errColor   = color.New(color.FgRed, color.Bold)
	labelColor = color.New(color.FgCyan)
)

// ReassembleOptions are the write-back switches shared by reassemble and run.
type ReassembleOptions struct {
	RTL         bool
	ShrinkToFit bool
}

// TranslateOptions override configured batching for one command.
type TranslateOptions struct {
	Language      string
	Concurrency   int
	BatchMaxChars int
	NoCache       bool
}

// App wires configuration, the translation engine and the error manager
// into the pipeline stages.
type App struct {
	ctx    context.Context
	config *config.ConfigManager
	errs   *errors.ErrorManager
	engine translator.Engine
	out    io.Writer
	log    logger.Logger
}

// NewApp creates an App reading configuration from configPath. An empty
// path selects the default location.
func NewApp(configPath string) (*App, error) {
	configMgr, err := config.NewConfigManager(configPath)
	if err != nil {
		return nil, err
	}
	return &App{
		ctx:    context.Background(),
		config: configMgr,
		errs:   errors.NewErrorManager(),
		out:    os.Stdout,
		log:    logger.Noop(),
	}, nil
}

// startup loads configuration. A broken config file falls back to
// defaults; the load error is returned so it can be logged once the
// logger is configured from those defaults.
func (a *App) startup(ctx context.Context) error {
	a.ctx = ctx
	return a.config.Load()
}

// SetOutput redirects terminal output.
func (a *App) SetOutput(w io.Writer) {
	a.out = w
}

// SetEngine replaces the chat-model engine.
func (a *App) SetEngine(e translator.Engine) {
	a.engine = e
}

// Errors returns the issues collected so far.
func (a *App) Errors() *errors.ErrorManager {
	return a.errs
}

// Extract reads src and writes its content tree to out.
func (a *App) Extract(src, out string) (*content.DocumentContent, error) {
	if out == "" {
		out = defaultExtractPath(src)
	}
	doc, err := a.extract(src)
	if err != nil {
		return nil, err
	}
	if err := content.Save(out, doc); err != nil {
		return nil, err
	}
	a.finish(out, "Extracted", fmt.Sprintf("%d slides, %d texts", len(doc.Slides), len(doc.Leaves())))
	return doc, nil
}

func (a *App) extract(src string) (*content.DocumentContent, error) {
	pres, err := pptx.Open(src)
	if err != nil {
		return nil, err
	}
	defer pres.Close()

	doc, err := extractor.Extract(a.ctx, pres, a.errs)
	if err != nil {
		return nil, err
	}
	a.log.Info("extraction complete",
		logger.String("source", src),
		logger.Int("slides", len(doc.Slides)),
		logger.Int("leaves", len(doc.Leaves())))
	return doc, nil
}

// Translate loads a content tree, translates it and writes the result.
// The output is written even when some batches failed; the returned error
// then reports the failures.
func (a *App) Translate(in, out string, opts TranslateOptions) (*translator.Result, error) {
	doc, err := content.Load(in)
	if err != nil {
		return nil, err
	}
	lang, err := a.language(opts.Language)
	if err != nil {
		return nil, err
	}
	if out == "" {
		out = defaultTranslatePath(in)
	}

	translated, res, terr := a.translate(doc, lang, opts)
	if translated == nil {
		return nil, terr
	}
	if err := content.Save(out, translated); err != nil {
		return res, err
	}
	a.printTranslation(res)
	a.finish(out, "Translated", fmt.Sprintf("%s, %d texts", lang.Name, res.Translated+res.Cached))
	return res, terr
}

func (a *App) language(name string) (translator.Language, error) {
	if name == "" {
		name = a.config.GetConfig().TargetLanguage
	}
	return translator.ResolveLanguage(name)
}

func (a *App) translate(doc *content.DocumentContent, lang translator.Language, opts TranslateOptions) (*content.DocumentContent, *translator.Result, error) {
	cfg := a.config.Resolved()
	engine := a.engine
	if engine == nil {
		e, err := translator.NewChatEngine(a.ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		engine = e
	}

	var cache *translator.Cache
	if !opts.NoCache {
		cache = translator.NewCache(cachePath(cfg))
		if err := cache.Load(); err != nil {
			a.log.Warn("failed to load translation cache, starting empty", logger.Err(err))
			cache.Clear()
		}
	}

	concurrency := cfg.Concurrency
	if opts.Concurrency > 0 {
		concurrency = opts.Concurrency
	}
	budget := cfg.BatchMaxChars
	if opts.BatchMaxChars > 0 {
		budget = opts.BatchMaxChars
	}

	b := translator.NewBatcher(engine, a.errs, translator.Options{
		Target:          lang,
		BatchMaxChars:   budget,
		Concurrency:     concurrency,
		InterBatchDelay: cfg.InterBatchDelay(),
		MaxRetries:      cfg.MaxRetries,
		Cache:           cache,
		Progress: func(completed, total int) {
			labelColor.Fprintf(a.out, "  batch %d/%d\n", completed, total)
		},
	})
	translated, res, err := b.Translate(a.ctx, doc)
	if cache != nil && translated != nil {
		if serr := cache.Save(); serr != nil {
			a.log.Warn("failed to save translation cache", logger.Err(serr))
		}
	}
	return translated, res, err
}

// Reassemble writes the translated tree in into a copy of src saved at out.
func (a *App) Reassemble(src, in, out string, opts ReassembleOptions) (*reassembler.Stats, error) {
	doc, err := content.Load(in)
	if err != nil {
		return nil, err
	}
	if out == "" {
		out = defaultOutputPath(src, doc.TargetLanguage)
	}
	stats, err := a.reassemble(src, doc, out, opts)
	if err != nil {
		return nil, err
	}
	a.printReassembly(stats)
	a.finish(out, "Saved", fmt.Sprintf("%d of %d shapes updated", stats.UpdatedShapes, stats.Shapes))
	return stats, nil
}

func (a *App) reassemble(src string, doc *content.DocumentContent, out string, opts ReassembleOptions) (*reassembler.Stats, error) {
	if samePath(src, out) {
		return nil, types.NewAppErrorWithDetails(types.ErrInvalidInput, "output would overwrite the source presentation", out, nil)
	}
	pres, err := pptx.Open(src)
	if err != nil {
		return nil, err
	}
	defer pres.Close()

	stats, err := reassembler.Reassemble(a.ctx, pres, doc, reassembler.Options{
		RTL:         opts.RTL,
		ShrinkToFit: opts.ShrinkToFit,
		Errors:      a.errs,
	})
	if err != nil {
		return nil, err
	}
	if err := pres.SaveAs(a.ctx, out); err != nil {
		return nil, err
	}
	return stats, nil
}

// Run extracts, translates and reassembles in one pass. The intermediate
// trees are kept next to the output. Failed batches keep their source text
// in the output and make Run return an error.
func (a *App) Run(src, out string, topts TranslateOptions, ropts ReassembleOptions) error {
	lang, err := a.language(topts.Language)
	if err != nil {
		return err
	}
	if out == "" {
		out = defaultOutputPath(src, lang.Name)
	}
	stem := strings.TrimSuffix(out, filepath.Ext(out))

	doc, err := a.extract(src)
	if err != nil {
		return err
	}
	if err := content.Save(stem+"_extracted.json", doc); err != nil {
		return err
	}

	translated, res, terr := a.translate(doc, lang, topts)
	if translated == nil {
		return terr
	}
	a.printTranslation(res)
	if err := content.Save(stem+"_translated.json", translated); err != nil {
		return err
	}

	stats, err := a.reassemble(src, translated, out, ropts)
	if err != nil {
		return err
	}
	a.printReassembly(stats)
	a.finish(out, "Saved", fmt.Sprintf("%s, %d of %d shapes updated", lang.Name, stats.UpdatedShapes, stats.Shapes))
	return terr
}

// Report writes the translation record workbook for two trees.
func (a *App) Report(source, translated, out string) ([]report.Record, error) {
	src, err := content.Load(source)
	if err != nil {
		return nil, err
	}
	dst, err := content.Load(translated)
	if err != nil {
		return nil, err
	}
	records, err := report.BuildRecords(src, dst)
	if err != nil {
		return nil, err
	}
	if out == "" {
		out = strings.TrimSuffix(translated, filepath.Ext(translated)) + "_records.xlsx"
	}
	if err := report.WriteRecords(out, records); err != nil {
		return nil, err
	}
	counts := report.RecordCounts(records)
	a.finish(out, "Report", fmt.Sprintf("%d translated, %d unchanged, %d empty",
		counts[report.StatusTranslated], counts[report.StatusUnchanged], counts[report.StatusEmpty]))
	return records, nil
}

// Info prints the summary of a content tree and any issues recorded when
// it was produced.
func (a *App) Info(in string) error {
	doc, err := content.Load(in)
	if err != nil {
		return err
	}
	labelColor.Fprintf(a.out, "%s", in)
	if doc.TargetLanguage != "" {
		fmt.Fprintf(a.out, " (%s", doc.TargetLanguage)
		if doc.RTL {
			fmt.Fprint(a.out, ", right-to-left")
		}
		fmt.Fprint(a.out, ")")
	}
	fmt.Fprint(a.out, "\n\n")
	if err := report.WriteSummary(a.out, content.Summarize(doc)); err != nil {
		return err
	}

	issues := errors.IssuesPath(in)
	if _, err := os.Stat(issues); err != nil {
		return nil
	}
	records, err := errors.LoadRecords(issues)
	if err != nil {
		return types.NewAppError(types.ErrIO, "failed to read issues file", err)
	}
	fmt.Fprintln(a.out)
	return report.WriteIssues(a.out, records)
}

// finish saves the issues file next to out and prints the outcome line.
func (a *App) finish(out, verb, detail string) {
	if a.errs.Len() > 0 {
		path := errors.IssuesPath(out)
		if err := a.errs.Save(path); err != nil {
			a.log.Warn("failed to save issues", logger.String("path", path), logger.Err(err))
		}
		fmt.Fprintln(a.out)
		if err := report.WriteIssueSummary(a.out, a.errs.Summary()); err != nil {
			a.log.Warn("failed to print issue summary", logger.Err(err))
		}
		warnColor.Fprintf(a.out, "! %d issues recorded in %s\n", a.errs.Len(), path)
	}
	okColor.Fprintf(a.out, "✓ %s %s", verb, out)
	fmt.Fprintf(a.out, " (%s)\n", detail)
}

func (a *App) printTranslation(res *translator.Result) {
	if res == nil {
		return
	}
	fmt.Fprintf(a.out, "  %d batches, %d translated, %d from cache, %d skipped, %d tokens\n",
		res.Batches, res.Translated, res.Cached, res.Skipped, res.Tokens)
	if res.Failed > 0 {
		errColor.Fprintf(a.out, "  %d batches failed, %d texts left untranslated\n", res.Failed, res.Untouched)
	}
}

func (a *App) printReassembly(s *reassembler.Stats) {
	fmt.Fprintf(a.out, "  %d runs written, %d RTL paragraphs, %d frames set to shrink\n",
		s.Runs, s.RTLParagraphs, s.ShrunkFrames)
	if s.Missing+s.Mismatches > 0 {
		warnColor.Fprintf(a.out, "  %d shapes not found, %d structure mismatches\n", s.Missing, s.Mismatches)
	}
}

func cachePath(cfg *types.Config) string {
	if cfg.CachePath != "" {
		return cfg.CachePath
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "pptx-translator", "translations.json")
}

func defaultExtractPath(src string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + "_extracted.json"
}

func defaultTranslatePath(in string) string {
	stem := strings.TrimSuffix(in, filepath.Ext(in))
	return strings.TrimSuffix(stem, "_extracted") + "_translated.json"
}

func defaultOutputPath(src, lang string) string {
	stem := strings.TrimSuffix(src, filepath.Ext(src))
	if lang == "" {
		return stem + "-translated.pptx"
	}
	return fmt.Sprintf("%s-%s-translated.pptx", stem, strings.ToLower(strings.ReplaceAll(lang, " ", "-")))
}

func samePath(a, b string) bool {
	pa, err1 := filepath.Abs(a)
	pb, err2 := filepath.Abs(b)
	if err1 != nil || err2 != nil {
		return a == b
	}
	return pa == pb
}
