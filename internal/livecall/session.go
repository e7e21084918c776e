// Package livecall coordinates the live-call pipeline: microphone blocks
// through resample and PCM encode into the gateway stream, inbound
// transcript events into the assembler, and the re-analysis schedule over
// the growing final transcript.
package livecall

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Dulateaad/TrustChecker/internal/analysis"
	"github.com/Dulateaad/TrustChecker/internal/audio"
	"github.com/Dulateaad/TrustChecker/internal/capture"
	"github.com/Dulateaad/TrustChecker/internal/events"
	"github.com/Dulateaad/TrustChecker/internal/gateway"
	"github.com/Dulateaad/TrustChecker/internal/models"
	"github.com/Dulateaad/TrustChecker/internal/observability/logging"
	"github.com/Dulateaad/TrustChecker/internal/observability/metrics"
	"github.com/Dulateaad/TrustChecker/internal/transcript"
)

// Transport is the slice of the gateway session the live call drives.
// *gateway.Session satisfies it.
type Transport interface {
	Connect(ctx context.Context) error
	StartStream(languageCode string, sampleRateHertz int) error
	SendAudio(pcm []byte) error
	StopStream(notifyServer bool)
	State() gateway.ConnState
	ServerStatus() string
	Streaming() bool
	Close() error
}

// Notice is a user-facing notification from the pipeline.
type Notice struct {
	Level   string // "info" or "error"
	Title   string
	Message string
}

// Options configures a live-call session.
type Options struct {
	LanguageCode string
	TargetRate   int

	// Notify surfaces transient notices to the user. Optional.
	Notify func(Notice)
}

// Session is one live-call session: a single transport connection reused
// across start/stop cycles of capture, with session-scoped transcript
// and analysis state. Nothing is persisted beyond it.
type Session struct {
	id        string
	transport Transport
	source    capture.Source
	assembler *transcript.Assembler
	scheduler *analysis.Scheduler
	publisher *events.Publisher
	opts      Options
	logger    zerolog.Logger

	mu        sync.Mutex
	startedAt time.Time
}

// NewSession wires a live-call session together. The scheduler is owned
// and reset by the session; callers provide the analysis dispatch.
func NewSession(
	transport Transport,
	source capture.Source,
	analyze analysis.AnalyzeFunc,
	publisher *events.Publisher,
	interval time.Duration,
	minLength int,
	opts Options,
) *Session {
	if opts.LanguageCode == "" {
		opts.LanguageCode = "en-US"
	}
	if opts.TargetRate <= 0 {
		opts.TargetRate = 16000
	}

	s := &Session{
		id:        uuid.NewString(),
		transport: transport,
		source:    source,
		assembler: transcript.New(),
		publisher: publisher,
		opts:      opts,
	}
	s.logger = logging.WithSession(s.id)
	s.scheduler = analysis.NewScheduler(analyze, s.assembler.Final, interval, minLength)
	s.scheduler.OnReport = s.reportIssued
	s.scheduler.OnError = s.analysisFailed
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Connect establishes the gateway connection and starts the re-analysis
// schedule. One attempt; a failure leaves the session usable for a later
// manual reconnect by the caller.
func (s *Session) Connect(ctx context.Context) error {
	if err := s.transport.Connect(ctx); err != nil {
		return err
	}
	// ctx may carry a dial timeout; the schedule runs for the session
	// lifetime and is halted by Close.
	s.scheduler.Start(context.Background())
	return nil
}

// StartCapture begins one capture cycle: reset transcript and report
// state, declare the stream to the gateway, then acquire the microphone.
func (s *Session) StartCapture(ctx context.Context) error {
	if s.transport.Streaming() {
		return nil
	}
	if s.transport.State() != gateway.StateConnected {
		return gateway.ErrNotConnected
	}

	s.assembler.Reset()
	s.scheduler.Reset()

	if err := s.transport.StartStream(s.opts.LanguageCode, s.opts.TargetRate); err != nil {
		return err
	}

	if err := s.source.Start(s.onBlock); err != nil {
		// The stream was declared but the device never came up; retract.
		s.transport.StopStream(true)
		s.notify(Notice{
			Level:   "error",
			Title:   "Microphone not available",
			Message: "Allow microphone access to use the live check.",
		})
		metrics.DefaultMetrics.SessionsFailed.Inc()
		return fmt.Errorf("start capture: %w", err)
	}

	s.mu.Lock()
	s.startedAt = time.Now()
	s.mu.Unlock()

	metrics.DefaultMetrics.SessionsTotal.Inc()
	metrics.DefaultMetrics.SessionsActive.Inc()

	s.logger.Info().
		Str("languageCode", s.opts.LanguageCode).
		Int("targetRate", s.opts.TargetRate).
		Int("deviceRate", s.source.Rate()).
		Msg("Live capture started")
	return nil
}

// StopCapture tears down the capture pipeline and, when notifyServer is
// set and the channel is up, tells the gateway. Safe when not capturing.
func (s *Session) StopCapture(notifyServer bool) {
	if !s.transport.Streaming() && !s.source.Active() {
		return
	}

	s.source.Stop()
	s.transport.StopStream(notifyServer)

	s.mu.Lock()
	started := s.startedAt
	s.startedAt = time.Time{}
	s.mu.Unlock()

	if !started.IsZero() {
		metrics.DefaultMetrics.SessionsActive.Dec()
		metrics.DefaultMetrics.SessionDuration.Observe(time.Since(started).Seconds())
	}

	s.logger.Info().Bool("notifyServer", notifyServer).Msg("Live capture stopped")
}

// AnalyzeNow is the manual trigger for re-analysis of the final
// transcript.
func (s *Session) AnalyzeNow(ctx context.Context) {
	s.scheduler.AnalyzeNow(ctx)
}

// Close ends the session: capture down, scheduler halted, transport
// closed.
func (s *Session) Close() error {
	s.StopCapture(true)
	s.scheduler.Stop()
	return s.transport.Close()
}

// Snapshot is the displayable state of the session.
type Snapshot struct {
	SessionID    string
	ConnState    gateway.ConnState
	ServerStatus string
	Streaming    bool
	Partial      string
	Final        string
	Report       *models.RiskReport
	AnalysisErr  error
}

// Snapshot returns the current display state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		SessionID:    s.id,
		ConnState:    s.transport.State(),
		ServerStatus: s.transport.ServerStatus(),
		Streaming:    s.transport.Streaming(),
		Partial:      s.assembler.Partial(),
		Final:        s.assembler.Final(),
		Report:       s.scheduler.Report(),
		AnalysisErr:  s.scheduler.LastError(),
	}
}

// onBlock is the capture callback: resample to the declared rate, encode
// to 16-bit PCM, hand to the transport. Runs on the capture goroutine;
// chunks racing a stop are dropped inside SendAudio.
func (s *Session) onBlock(block audio.Block) {
	metrics.DefaultMetrics.AudioBlocksCaptured.Inc()

	downsampled := audio.Downsample(block.Samples, block.Rate, s.opts.TargetRate)
	pcm := audio.PCMBytes(audio.EncodePCM16(downsampled))

	if !s.transport.Streaming() {
		metrics.DefaultMetrics.AudioBlocksDropped.Inc()
		return
	}
	if err := s.transport.SendAudio(pcm); err != nil {
		s.logger.Warn().Err(err).Msg("Audio frame transmission failed")
		return
	}
	metrics.DefaultMetrics.AudioBytesSent.Add(float64(len(pcm)))
}

// --- gateway.Handler implementation ---

// OnStatus records the server-reported stream status.
func (s *Session) OnStatus(state string) {
	s.logger.Debug().Str("state", state).Msg("Gateway status")
}

// OnTranscript folds one transcript event into the assembler and emits
// the audit event.
func (s *Session) OnTranscript(text string, isPartial bool) {
	s.assembler.Apply(text, isPartial)

	now := time.Now().UnixMilli()
	if isPartial {
		metrics.DefaultMetrics.TranscriptsPartial.Inc()
		s.publishPartial(models.TranscriptPartial{
			EventType: "livecall.transcript.partial",
			SessionID: s.id,
			Timestamp: now,
			Text:      text,
		})
		return
	}

	metrics.DefaultMetrics.TranscriptsFinal.Inc()
	s.publishFinal(models.TranscriptFinal{
		EventType: "livecall.transcript.final",
		SessionID: s.id,
		Timestamp: now,
		Text:      text,
		FullText:  s.assembler.Final(),
	})
}

// OnError surfaces a gateway error and forces a local stop. The channel
// itself may still be up, so the server is not notified.
func (s *Session) OnError(message string) {
	s.logger.Warn().Str("message", message).Msg("Gateway stream error")
	s.notify(Notice{Level: "error", Title: "Streaming error", Message: message})
	s.StopCapture(false)
}

// OnDisconnect releases the microphone when the transport drops mid
// stream. No stop frame is sent; the channel is already gone.
func (s *Session) OnDisconnect(wasStreaming bool) {
	if wasStreaming {
		s.StopCapture(false)
		s.notify(Notice{
			Level:   "error",
			Title:   "Connection lost",
			Message: "The live stream ended because the gateway disconnected.",
		})
	}
}

func (s *Session) reportIssued(text string, report *models.RiskReport) {
	s.publishReport(models.ReportIssued{
		EventType:    "livecall.analysis.report",
		SessionID:    s.id,
		Timestamp:    time.Now().UnixMilli(),
		AnalyzedText: text,
		RiskScore:    report.RiskScore,
		RiskLevel:    report.RiskLevel,
	})
}

func (s *Session) analysisFailed(err error) {
	s.notify(Notice{Level: "error", Title: "Analysis error", Message: err.Error()})
}

func (s *Session) notify(n Notice) {
	if s.opts.Notify != nil {
		s.opts.Notify(n)
	} else if n.Level == "error" {
		s.logger.Warn().Str("title", n.Title).Msg(n.Message)
	} else {
		s.logger.Info().Str("title", n.Title).Msg(n.Message)
	}
}

func (s *Session) publishPartial(ev models.TranscriptPartial) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishPartial(context.Background(), s.id, ev); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish partial transcript event")
	}
}

func (s *Session) publishFinal(ev models.TranscriptFinal) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishFinal(context.Background(), s.id, ev); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish final transcript event")
	}
}

func (s *Session) publishReport(ev models.ReportIssued) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishReport(context.Background(), s.id, ev); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish report event")
	}
}
