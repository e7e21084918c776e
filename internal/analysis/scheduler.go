package analysis

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Dulateaad/TrustChecker/internal/models"
	"github.com/Dulateaad/TrustChecker/internal/observability/metrics"
)

// AnalyzeFunc dispatches one analysis call for the given text.
type AnalyzeFunc func(ctx context.Context, text string) (*models.RiskReport, error)

// TextFunc returns the current final transcript.
type TextFunc func() string

// Scheduler watches the final transcript and re-analyzes it on a fixed
// interval. A call fires only when the transcript is non-empty, at or
// above the minimum length, and different from the last text dispatched.
//
// The dedup key is set at dispatch time, before the response returns, so
// a concurrent tick cannot double-fire while a request is in flight. The
// trade-off: a failed call is not retried until the transcript grows or
// the user triggers analysis manually.
type Scheduler struct {
	analyze   AnalyzeFunc
	finalText TextFunc
	interval  time.Duration
	minLength int

	// OnReport, when set, observes every successful report.
	OnReport func(text string, report *models.RiskReport)
	// OnError, when set, observes every failed call.
	OnError func(err error)

	mu               sync.Mutex
	lastAnalyzedText string
	report           *models.RiskReport
	lastErr          error

	stopOnce sync.Once
	stop     chan struct{}
}

// NewScheduler creates a scheduler over the given transcript source and
// analysis dispatch.
func NewScheduler(analyze AnalyzeFunc, finalText TextFunc, interval time.Duration, minLength int) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if minLength <= 0 {
		minLength = 30
	}
	return &Scheduler{
		analyze:   analyze,
		finalText: finalText,
		interval:  interval,
		minLength: minLength,
		stop:      make(chan struct{}),
	}
}

// Start launches the periodic check. Returns immediately; the loop runs
// until Stop is called or the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
}

// Stop halts the periodic check. Idempotent.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Tick runs one scheduled check, dispatching at most one analysis call.
// The ticker drives it; callers may also step it directly.
func (s *Scheduler) Tick(ctx context.Context) {
	text := s.finalText()

	s.mu.Lock()
	if text == "" {
		s.mu.Unlock()
		metrics.DefaultMetrics.AnalysisSkips.WithLabelValues("empty").Inc()
		return
	}
	if len(text) < s.minLength {
		s.mu.Unlock()
		metrics.DefaultMetrics.AnalysisSkips.WithLabelValues("below_threshold").Inc()
		return
	}
	if text == s.lastAnalyzedText {
		s.mu.Unlock()
		metrics.DefaultMetrics.AnalysisSkips.WithLabelValues("unchanged").Inc()
		return
	}
	// Dedup key set before the request returns, under the same lock that
	// admitted the dispatch.
	s.lastAnalyzedText = text
	s.mu.Unlock()

	s.dispatch(ctx, text)
}

// AnalyzeNow is the manual trigger. It bypasses the threshold and dedup
// checks but still no-ops on an empty transcript.
func (s *Scheduler) AnalyzeNow(ctx context.Context) {
	text := s.finalText()
	if text == "" {
		return
	}

	s.mu.Lock()
	s.lastAnalyzedText = text
	s.mu.Unlock()

	s.dispatch(ctx, text)
}

func (s *Scheduler) dispatch(ctx context.Context, text string) {
	start := time.Now()
	report, err := s.analyze(ctx, text)
	metrics.DefaultMetrics.RecordAnalysis("live_text", err, time.Since(start))

	s.mu.Lock()
	if err != nil {
		// Previous report stays on display; no automatic retry.
		s.lastErr = err
		s.mu.Unlock()

		log.Warn().Err(err).Int("textLength", len(text)).Msg("Live transcript analysis failed")
		if s.OnError != nil {
			s.OnError(err)
		}
		return
	}
	s.report = report
	s.lastErr = nil
	s.mu.Unlock()

	log.Info().
		Int("riskScore", report.RiskScore).
		Str("riskLevel", string(report.RiskLevel)).
		Int("textLength", len(text)).
		Msg("Live transcript analyzed")
	if s.OnReport != nil {
		s.OnReport(text, report)
	}
}

// Report returns the most recent successful report, or nil.
func (s *Scheduler) Report() *models.RiskReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// LastError returns the most recent dispatch error, cleared on success.
func (s *Scheduler) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// LastAnalyzedText returns the dedup key.
func (s *Scheduler) LastAnalyzedText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAnalyzedText
}

// Reset clears the report state for a new capture session.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAnalyzedText = ""
	s.report = nil
	s.lastErr = nil
}
