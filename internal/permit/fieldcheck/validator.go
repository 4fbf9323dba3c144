package fieldcheck

import (
	"context"
	"strings"
	"sync"
	"time"

	"fishery-permit/internal/common/logger"
	"fishery-permit/internal/common/metrics"
	"fishery-permit/internal/permit/feed"
	"fishery-permit/internal/permit/form"
)

const (
	DefaultDebounce = 1000 * time.Millisecond
	DefaultLatency  = 800 * time.Millisecond
)

// Appender receives the recommendations of applied results.
type Appender interface {
	Append(r feed.Recommendation)
}

type CheckFunc func(field form.Field, value string) Outcome

type Option func(*Validator)

// WithDebounce sets the quiet window before a value is checked.
func WithDebounce(d time.Duration) Option {
	return func(v *Validator) { v.debounce = d }
}

// WithLatency sets the simulated remote check duration per value.
func WithLatency(fn func(field form.Field, value string) time.Duration) Option {
	return func(v *Validator) { v.latency = fn }
}

func WithCheck(fn CheckFunc) Option {
	return func(v *Validator) { v.check = fn }
}

// Validator runs debounced, asynchronous field checks. Each Submit bumps the
// field's sequence number; a finished check is applied only if its sequence is
// still the latest for that field, so results follow input order rather than
// completion order.
type Validator struct {
	debounce time.Duration
	latency  func(field form.Field, value string) time.Duration
	check    CheckFunc
	sink     Appender
	logger   logger.Logger

	mu      sync.Mutex
	seq     map[form.Field]uint64
	timers  map[form.Field]*time.Timer
	results map[form.Field]Result
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewValidator(sink Appender, log logger.Logger, opts ...Option) *Validator {
	ctx, cancel := context.WithCancel(context.Background())
	v := &Validator{
		debounce: DefaultDebounce,
		latency:  func(form.Field, string) time.Duration { return DefaultLatency },
		check:    Check,
		sink:     sink,
		logger:   log.WithFields(map[string]interface{}{"component": "field-validator"}),
		seq:      make(map[form.Field]uint64),
		timers:   make(map[form.Field]*time.Timer),
		results:  make(map[form.Field]Result),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Submit schedules a check of value for field, superseding any pending or
// in-flight check of the same field. An empty value cancels pending work and
// clears the field's previous result without producing a new one.
func (v *Validator) Submit(field form.Field, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}

	v.seq[field]++
	seq := v.seq[field]
	v.stopTimerLocked(field)

	if strings.TrimSpace(value) == "" {
		delete(v.results, field)
		return
	}

	v.wg.Add(1)
	v.timers[field] = time.AfterFunc(v.debounce, func() {
		v.run(field, value, seq)
	})
}

func (v *Validator) stopTimerLocked(field form.Field) {
	if t, ok := v.timers[field]; ok {
		// A timer that never fired never reaches run, so release its slot here.
		if t.Stop() {
			v.wg.Done()
		}
		delete(v.timers, field)
	}
}

func (v *Validator) run(field form.Field, value string, seq uint64) {
	defer v.wg.Done()

	if !v.isLatest(field, seq) {
		metrics.StaleValidationsDropped.WithLabelValues(string(field)).Inc()
		return
	}

	delay := time.NewTimer(v.latency(field, value))
	select {
	case <-delay.C:
	case <-v.ctx.Done():
		delay.Stop()
		return
	}

	out := v.check(field, value)
	out.Result.Field = field

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed || v.seq[field] != seq {
		metrics.StaleValidationsDropped.WithLabelValues(string(field)).Inc()
		v.logger.Debug("discarded superseded validation", map[string]interface{}{
			"field": field,
			"seq":   seq,
		})
		return
	}

	v.results[field] = out.Result
	if v.sink != nil {
		for _, rec := range out.Recommendations {
			v.sink.Append(rec)
		}
	}
	metrics.FieldValidations.WithLabelValues(string(field), string(out.Result.Status)).Inc()
}

func (v *Validator) isLatest(field form.Field, seq uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return !v.closed && v.seq[field] == seq
}

// Result returns the current result for field.
func (v *Validator) Result(field form.Field) (Result, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	r, ok := v.results[field]
	return r, ok
}

// Results returns a consistent copy of all current results in form order.
func (v *Validator) Results() []Result {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]Result, 0, len(v.results))
	for _, f := range form.Fields() {
		if r, ok := v.results[f]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Invalid reports whether the current result for field is invalid.
func (v *Validator) Invalid(field form.Field) bool {
	r, ok := v.Result(field)
	return ok && r.Status == StatusInvalid
}

// Flush runs the check for value synchronously and applies it, superseding any
// pending work for the field. Empty values behave as in Submit.
func (v *Validator) Flush(field form.Field, value string) (Result, bool) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return Result{}, false
	}
	v.seq[field]++
	v.stopTimerLocked(field)
	if strings.TrimSpace(value) == "" {
		delete(v.results, field)
		v.mu.Unlock()
		return Result{}, false
	}
	seq := v.seq[field]
	v.mu.Unlock()

	out := v.check(field, value)
	out.Result.Field = field

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || v.seq[field] != seq {
		return Result{}, false
	}
	v.results[field] = out.Result
	if v.sink != nil {
		for _, rec := range out.Recommendations {
			v.sink.Append(rec)
		}
	}
	metrics.FieldValidations.WithLabelValues(string(field), string(out.Result.Status)).Inc()
	return out.Result, true
}

// Close cancels every pending and in-flight check and waits for them to exit.
func (v *Validator) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	for field := range v.timers {
		v.stopTimerLocked(field)
	}
	v.mu.Unlock()

	v.cancel()
	v.wg.Wait()
}
