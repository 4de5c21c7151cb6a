package translator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"pptx-translator/internal/content"
	"pptx-translator/internal/errors"
	"pptx-translator/internal/logger"
	"pptx-translator/internal/types"
)

const (
	// DefaultBatchMaxChars is the character budget of one request
	DefaultBatchMaxChars = 6000
	// DefaultConcurrency dispatches batches one at a time
	DefaultConcurrency = 1
	// DefaultMaxRetries is the number of retries after a transient failure
	DefaultMaxRetries = 3
	// BaseRetryDelay is the base delay between retries (exponential backoff)
	BaseRetryDelay = 2 * time.Second
	// MaxRetryDelay caps the backoff
	MaxRetryDelay = 30 * time.Second

	// itemOverhead approximates the JSON framing around each text.
	itemOverhead = len(`{"id":000,"text":""},`)
)

// ProgressCallback is called after each batch with the number of finished
// batches and the total.
type ProgressCallback func(completed, total int)

// Options configures a Batcher.
type Options struct {
	Target          Language
	BatchMaxChars   int
	Concurrency     int
	InterBatchDelay time.Duration
	MaxRetries      int
	BaseRetryDelay  time.Duration
	Cache           *Cache
	Progress        ProgressCallback
}

// Result describes a translation pass.
type Result struct {
	Batches    int `json:"batches"`
	Failed     int `json:"failed_batches"`
	Translated int `json:"translated"`
	Cached     int `json:"cached"`
	Skipped    int `json:"skipped"`
	Untouched  int `json:"untouched"`
	Tokens     int `json:"tokens"`
}

// Batcher groups leaves per unit, sends them through an Engine and merges
// the answers back by index.
type Batcher struct {
	engine Engine
	errs   *errors.ErrorManager
	opts   Options
	log    logger.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewBatcher creates a batcher. errs may be nil.
func NewBatcher(engine Engine, errs *errors.ErrorManager, opts Options) *Batcher {
	if errs == nil {
		errs = errors.NewErrorManager()
	}
	if opts.BatchMaxChars <= 0 {
		opts.BatchMaxChars = DefaultBatchMaxChars
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseRetryDelay <= 0 {
		opts.BaseRetryDelay = BaseRetryDelay
	}
	return &Batcher{
		engine: engine,
		errs:   errs,
		opts:   opts,
		log:    logger.Named("batcher"),
		sleep:  sleepContext,
	}
}

// task is one leaf; only core crosses the engine boundary.
type task struct {
	leaf  *content.Leaf
	lead  string
	core  string
	trail string
}

type batch struct {
	unit  string
	tasks []*task
}

func (b *batch) texts() []string {
	out := make([]string, len(b.tasks))
	for i, t := range b.tasks {
		out[i] = t.core
	}
	return out
}

func (b *batch) location() string {
	return fmt.Sprintf("%s (%s .. %s)", b.unit, b.tasks[0].leaf.Path, b.tasks[len(b.tasks)-1].leaf.Path)
}

type outcome struct {
	texts  []string
	tokens int
	err    error
}

// Translate returns a translated copy of doc. The input is never
// modified. When some batches fail the copy still carries every
// successful translation (failed leaves keep their source text) and the
// error reports the failure count.
func (x *Batcher) Translate(ctx context.Context, doc *content.DocumentContent) (*content.DocumentContent, *Result, error) {
	out := doc.Clone()
	lang := x.opts.Target.Tag.String()
	res := &Result{}

	var units [][]*task
	for _, leaves := range content.Units(out.Leaves()) {
		var pending []*task
		for _, l := range leaves {
			lead, core, trail := splitSpace(l.Text())
			if !hasLetter(core) {
				res.Skipped++
				continue
			}
			if tr, ok := x.opts.Cache.Get(lang, core); ok {
				l.SetText(lead + tr + trail)
				res.Cached++
				continue
			}
			pending = append(pending, &task{leaf: l, lead: lead, core: core, trail: trail})
		}
		if len(pending) > 0 {
			units = append(units, pending)
		}
	}

	batches := mergeBatches(units, x.opts.BatchMaxChars)
	res.Batches = len(batches)
	x.log.Info("starting batch translation",
		logger.String("target", x.opts.Target.Name),
		logger.Int("batches", len(batches)),
		logger.Int("cached", res.Cached),
		logger.Int("skipped", res.Skipped),
		logger.Int("concurrency", x.opts.Concurrency))

	outcomes, err := x.dispatch(ctx, batches)
	if err != nil {
		return nil, nil, err
	}

	for i, b := range batches {
		o := outcomes[i]
		if o.err != nil {
			res.Failed++
			res.Untouched += len(b.tasks)
			x.errs.Record(types.StageTranslate, b.location(), o.err)
			continue
		}
		res.Tokens += o.tokens
		for j, t := range b.tasks {
			t.leaf.SetText(t.lead + o.texts[j] + t.trail)
			x.opts.Cache.Set(lang, t.core, o.texts[j])
			res.Translated++
		}
	}

	out.TargetLanguage = lang
	out.RTL = x.opts.Target.RTL
	out.RefreshDerived()

	x.log.Info("batch translation completed",
		logger.Int("translated", res.Translated),
		logger.Int("failedBatches", res.Failed),
		logger.Int("tokens", res.Tokens))

	if res.Failed > 0 {
		return out, res, types.Errorf(types.ErrTranslation, "%d of %d batches failed", res.Failed, res.Batches)
	}
	return out, res, nil
}

// dispatch runs every batch through a bounded worker pool. A pacer keeps
// the configured gap between two dispatches. Batch failures are returned
// in the outcomes; only cancellation aborts.
func (x *Batcher) dispatch(ctx context.Context, batches []*batch) ([]outcome, error) {
	outcomes := make([]outcome, len(batches))
	var g errgroup.Group
	g.SetLimit(x.opts.Concurrency)

	var mu sync.Mutex
	completed := 0
	p := &pacer{gap: x.opts.InterBatchDelay, sleep: x.sleep}

	for i, b := range batches {
		if err := p.wait(ctx); err != nil {
			break
		}
		g.Go(func() error {
			outcomes[i] = x.run(ctx, i, b)
			mu.Lock()
			completed++
			if x.opts.Progress != nil {
				x.opts.Progress(completed, len(batches))
			}
			mu.Unlock()
			return nil
		})
		p.mark()
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// run sends one batch, retrying transient failures with exponential
// backoff. Structural mismatches are never retried.
func (x *Batcher) run(ctx context.Context, idx int, b *batch) outcome {
	req := Request{Texts: b.texts(), TargetLanguage: x.opts.Target.Name}
	for attempt := 1; ; attempt++ {
		resp, err := x.engine.Translate(ctx, req)
		if err == nil && len(resp.Texts) != len(req.Texts) {
			err = types.Errorf(types.ErrStructuralMismatch,
				"engine returned %d texts for %d", len(resp.Texts), len(req.Texts))
		}
		if err == nil {
			x.log.Debug("batch translated",
				logger.Int("batch", idx+1),
				logger.String("unit", b.unit),
				logger.Int("texts", len(req.Texts)),
				logger.Int("attempt", attempt))
			return outcome{texts: resp.Texts, tokens: resp.TotalTokens}
		}
		if ctx.Err() != nil {
			return outcome{err: ctx.Err()}
		}

		x.log.Warn("batch translation attempt failed",
			logger.Int("batch", idx+1),
			logger.Int("attempt", attempt),
			logger.Err(err))
		if !types.CodeOf(err).Transient() || attempt > x.opts.MaxRetries {
			return outcome{err: err}
		}
		delay := backoffDelay(x.opts.BaseRetryDelay, attempt)
		x.log.Debug("retrying after delay",
			logger.Duration("delay", delay),
			logger.Int("nextAttempt", attempt+1))
		if err := x.sleep(ctx, delay); err != nil {
			return outcome{err: err}
		}
	}
}

// backoffDelay doubles with each attempt: base, 2*base, 4*base ... capped
// at MaxRetryDelay.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 16 {
		return MaxRetryDelay
	}
	delay := base * time.Duration(1<<uint(attempt-1))
	if delay > MaxRetryDelay {
		delay = MaxRetryDelay
	}
	return delay
}

// mergeBatches splits every unit into batches whose total characters stay
// within budget. A text larger than the budget gets a batch of its own.
// Batches never span units.
func mergeBatches(units [][]*task, budget int) []*batch {
	var batches []*batch
	for _, unit := range units {
		if len(unit) == 0 {
			continue
		}
		name := unit[0].leaf.Unit
		var cur *batch
		size := 0
		flush := func() {
			if cur != nil && len(cur.tasks) > 0 {
				batches = append(batches, cur)
			}
			cur, size = nil, 0
		}
		for _, t := range unit {
			n := utf8.RuneCountInString(t.core) + itemOverhead
			if n >= budget {
				flush()
				batches = append(batches, &batch{unit: name, tasks: []*task{t}})
				continue
			}
			if cur != nil && size+n > budget {
				flush()
			}
			if cur == nil {
				cur = &batch{unit: name}
			}
			cur.tasks = append(cur.tasks, t)
			size += n
		}
		flush()
	}
	return batches
}

// pacer enforces a minimum gap between dispatches. It is used from the
// single dispatch loop only.
type pacer struct {
	gap   time.Duration
	last  time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func (p *pacer) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.gap <= 0 || p.last.IsZero() {
		return nil
	}
	if d := time.Until(p.last.Add(p.gap)); d > 0 {
		return p.sleep(ctx, d)
	}
	return nil
}

func (p *pacer) mark() { p.last = time.Now() }

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// splitSpace separates leading and trailing whitespace from the text
// that is actually translated.
func splitSpace(s string) (lead, core, trail string) {
	core = strings.TrimLeftFunc(s, unicode.IsSpace)
	lead = s[:len(s)-len(core)]
	trimmed := strings.TrimRightFunc(core, unicode.IsSpace)
	trail = core[len(trimmed):]
	return lead, trimmed, trail
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
