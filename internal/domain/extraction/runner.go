package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/host-ledger/internal/domain/reservation"
	"github.com/FACorreiaa/host-ledger/pkg/observability"
)

var tracer = otel.Tracer("hostledger/extraction")

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the wall-clock SleepFunc
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunnerConfig tunes throttling and retries
type RunnerConfig struct {
	Delay       time.Duration // pause between consecutive model calls
	Timeout     time.Duration // deadline for a single model call
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	CacheTTL    time.Duration
}

func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Delay:       2 * time.Second,
		Timeout:     90 * time.Second,
		MaxAttempts: 3,
		BaseBackoff: time.Second,
		MaxBackoff:  8 * time.Second,
		CacheTTL:    24 * time.Hour,
	}
}

// Outcome is the result of extracting one document
type Outcome struct {
	Document string
	Records  []reservation.Reservation
	Rejected []Rejection
	Attempts int
	Cached   bool
	Err      error
}

// Runner feeds documents to an Extractor one at a time. The model is rate limited and
// degrades under concurrent load, so calls are never issued in parallel.
type Runner struct {
	extractor Extractor
	cache     ResponseCache
	cfg       RunnerConfig
	sleep     SleepFunc
	jitter    func() time.Duration
	logger    *slog.Logger
}

type RunnerOption func(*Runner)

// WithSleep replaces the wall-clock wait used for throttling and backoff
func WithSleep(fn SleepFunc) RunnerOption {
	return func(r *Runner) { r.sleep = fn }
}

// WithJitter replaces the random backoff jitter
func WithJitter(fn func() time.Duration) RunnerOption {
	return func(r *Runner) { r.jitter = fn }
}

// WithCache enables response caching
func WithCache(c ResponseCache) RunnerOption {
	return func(r *Runner) { r.cache = c }
}

// NewRunner creates a runner. A nil extractor makes every document fail with ErrMissingCredentials.
func NewRunner(extractor Extractor, cfg RunnerConfig, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	r := &Runner{
		extractor: extractor,
		cfg:       cfg,
		sleep:     Sleep,
		jitter:    func() time.Duration { return rand.N(400 * time.Millisecond) },
		logger:    logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Provider names the configured extractor, or "none"
func (r *Runner) Provider() string {
	if r.extractor == nil {
		return "none"
	}
	return r.extractor.Name()
}

// Run processes docs sequentially with the configured delay between model calls.
// Failures are reported per document and never stop the batch, except for missing
// credentials and cancellation which apply to every remaining document.
func (r *Runner) Run(ctx context.Context, docs []Document) []Outcome {
	outcomes := make([]Outcome, 0, len(docs))
	called := false

	for i, doc := range docs {
		if r.extractor == nil {
			outcomes = append(outcomes, Outcome{Document: doc.Name, Err: ErrMissingCredentials})
			continue
		}

		if err := ctx.Err(); err != nil {
			for _, rest := range docs[i:] {
				outcomes = append(outcomes, Outcome{Document: rest.Name, Err: err})
			}
			break
		}

		if cached, ok := r.fromCache(ctx, doc); ok {
			observability.ExtractionCalls.WithLabelValues(r.Provider(), "cached").Inc()
			outcomes = append(outcomes, cached)
			continue
		}

		if called && r.cfg.Delay > 0 {
			if err := r.sleep(ctx, r.cfg.Delay); err != nil {
				outcomes = append(outcomes, Outcome{Document: doc.Name, Err: err})
				continue
			}
		}
		called = true

		outcome := r.extract(ctx, doc)
		outcomes = append(outcomes, outcome)

		if errors.Is(outcome.Err, ErrMissingCredentials) {
			for _, rest := range docs[i+1:] {
				outcomes = append(outcomes, Outcome{Document: rest.Name, Err: ErrMissingCredentials})
			}
			break
		}
	}

	return outcomes
}

func (r *Runner) fromCache(ctx context.Context, doc Document) (Outcome, bool) {
	if r.cache == nil {
		return Outcome{}, false
	}
	text, ok := r.cache.Get(ctx, CacheKey(r.extractor.Name(), doc))
	if !ok {
		return Outcome{}, false
	}
	items, err := ParseCandidates(text)
	if err != nil {
		return Outcome{}, false
	}
	records, rejected := NormalizeCandidates(items)
	return Outcome{Document: doc.Name, Records: records, Rejected: rejected, Cached: true}, true
}

func (r *Runner) extract(ctx context.Context, doc Document) (out Outcome) {
	ctx, span := tracer.Start(ctx, "extraction.Extract")
	span.SetAttributes(
		attribute.String("extraction.provider", r.extractor.Name()),
		attribute.String("extraction.document", doc.Name),
		attribute.String("extraction.mime_type", doc.MIMEType),
		attribute.Int("extraction.bytes", len(doc.Data)),
	)
	start := time.Now()
	defer func() {
		observability.ExtractionDuration.WithLabelValues(r.extractor.Name()).Observe(time.Since(start).Seconds())
		observability.ExtractionCalls.WithLabelValues(r.extractor.Name(), outcomeLabel(out.Err)).Inc()
		span.SetAttributes(
			attribute.Int("extraction.attempts", out.Attempts),
			attribute.Int("extraction.records", len(out.Records)),
			attribute.Int("extraction.rejected", len(out.Rejected)),
		)
		if out.Err != nil {
			span.RecordError(out.Err)
			span.SetStatus(codes.Error, out.Err.Error())
		}
		span.End()
	}()

	out = Outcome{Document: doc.Name}

	var (
		text string
		err  error
	)
	for attempt := 1; ; attempt++ {
		out.Attempts = attempt
		text, err = r.call(ctx, doc)
		if err == nil {
			break
		}
		if !IsTransient(err) || attempt >= r.cfg.MaxAttempts {
			break
		}

		wait := r.backoff(attempt)
		r.logger.Warn("extraction attempt failed, retrying",
			"file", doc.Name,
			"provider", r.extractor.Name(),
			"attempt", attempt,
			"backoff", wait,
			"error", err,
		)
		if serr := r.sleep(ctx, wait); serr != nil {
			err = serr
			break
		}
	}

	if err != nil {
		if IsTransient(err) {
			err = fmt.Errorf("gave up after %d attempts: %w", out.Attempts, err)
		}
		out.Err = err
		return out
	}

	items, err := ParseCandidates(text)
	if err != nil {
		out.Err = err
		return out
	}

	if r.cache != nil {
		r.cache.Set(ctx, CacheKey(r.extractor.Name(), doc), text, r.cfg.CacheTTL)
	}

	out.Records, out.Rejected = NormalizeCandidates(items)
	for _, rej := range out.Rejected {
		r.logger.Debug("extraction candidate rejected", "file", doc.Name, "index", rej.Index, "reason", rej.Reason)
	}
	if len(out.Rejected) > 0 {
		observability.RowsDropped.WithLabelValues("extraction", "invalid_candidate").Add(float64(len(out.Rejected)))
	}
	return out
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMissingCredentials):
		return "missing_credentials"
	case errors.Is(err, ErrContentBlocked):
		return "blocked"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrUnsupportedDocument):
		return "unsupported"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case IsTransient(err):
		return "transient"
	default:
		return "error"
	}
}

// call races the extractor against the per-call deadline. The extractor may ignore its
// context; the deadline still holds and the late result is discarded.
func (r *Runner) call(ctx context.Context, doc Document) (string, error) {
	if r.cfg.Timeout <= 0 {
		return r.extractor.Extract(ctx, doc)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := r.extractor.Extract(callCtx, doc)
		done <- result{text: text, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && errors.Is(res.err, context.DeadlineExceeded) && ctx.Err() == nil && !IsTransient(res.err) {
			return "", Transient(res.err)
		}
		return res.text, res.err
	case <-callCtx.Done():
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "", Transient(fmt.Errorf("no response within %s: %w", r.cfg.Timeout, context.DeadlineExceeded))
	}
}

func (r *Runner) backoff(attempt int) time.Duration {
	wait := r.cfg.BaseBackoff * time.Duration(1<<(attempt-1))
	if r.cfg.MaxBackoff > 0 && wait > r.cfg.MaxBackoff {
		wait = r.cfg.MaxBackoff
	}
	return wait + r.jitter()
}
