// Command livecall runs the live-call pipeline from a terminal: capture
// microphone audio, stream it to the transcription gateway, print the
// growing transcript, and print each risk report as the transcript is
// re-checked.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Dulateaad/TrustChecker/internal/analysis"
	"github.com/Dulateaad/TrustChecker/internal/app"
	"github.com/Dulateaad/TrustChecker/internal/capture"
	"github.com/Dulateaad/TrustChecker/internal/config"
	"github.com/Dulateaad/TrustChecker/internal/gateway"
	"github.com/Dulateaad/TrustChecker/internal/livecall"
	"github.com/Dulateaad/TrustChecker/internal/models"
)

func main() {
	gatewayURL := flag.String("gateway", "", "Gateway websocket URL (default from GATEWAY_URL)")
	language := flag.String("language", "", "Transcription language code (default from GATEWAY_LANGUAGE_CODE)")
	duration := flag.Duration("duration", 0, "Stop after this long (0 = run until interrupted)")
	fakeMic := flag.Bool("fake-mic", false, "Use a generated tone instead of the microphone")
	flag.Parse()

	cfg := config.Load()
	if *gatewayURL != "" {
		cfg.Gateway.URL = *gatewayURL
	}
	if *language != "" {
		cfg.Gateway.LanguageCode = *language
	}

	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Startup failed")
	}
	defer application.Shutdown()

	var source capture.Source
	if *fakeMic {
		source = capture.NewScripted(cfg.Capture.BlockSize, cfg.Gateway.TargetRate, 0)
	} else {
		source = capture.NewMicrophone(cfg.Capture.BlockSize)
	}

	client := analysis.NewClient(cfg.Analysis.BaseURL, cfg.Analysis.LiveTextPath, cfg.Analysis.Timeout)

	transport := gateway.New(cfg.Gateway.URL, nil)
	sess := livecall.NewSession(
		transport,
		source,
		client.AnalyzeText,
		nil,
		cfg.Scheduler.Interval,
		cfg.Scheduler.MinLength,
		livecall.Options{
			LanguageCode: cfg.Gateway.LanguageCode,
			TargetRate:   cfg.Gateway.TargetRate,
			Notify: func(n livecall.Notice) {
				fmt.Printf("\n[%s] %s: %s\n", n.Level, n.Title, n.Message)
			},
		},
	)
	transport.SetHandler(sess)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Gateway.ConnectTimeout)
	if err := sess.Connect(ctx); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("Gateway connection failed")
	}
	cancel()

	if err := sess.StartCapture(context.Background()); err != nil {
		sess.Close()
		log.Fatal().Err(err).Msg("Capture failed to start")
	}
	fmt.Println("Streaming. Speak now; Ctrl-C to stop.")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	display := time.NewTicker(time.Second)
	defer display.Stop()

	var lastShown string
	var deadline <-chan time.Time
	if *duration > 0 {
		deadline = time.After(*duration)
	}

loop:
	for {
		select {
		case <-sig:
			break loop
		case <-deadline:
			break loop
		case <-display.C:
			snap := sess.Snapshot()
			if line := transcriptLine(snap); line != lastShown {
				fmt.Printf("\r%s", line)
				lastShown = line
			}
			if snap.Report != nil {
				printReport(snap.Report)
			}
		}
	}

	fmt.Println("\nStopping.")
	sess.AnalyzeNow(context.Background())
	if err := sess.Close(); err != nil {
		log.Warn().Err(err).Msg("Session close failed")
	}
}

func transcriptLine(snap livecall.Snapshot) string {
	line := snap.Final
	if snap.Partial != "" {
		line += " [" + snap.Partial + "]"
	}
	if len(line) > 120 {
		line = "…" + line[len(line)-119:]
	}
	return line
}

var lastReportShown *models.RiskReport

func printReport(report *models.RiskReport) {
	if report == lastReportShown {
		return
	}
	lastReportShown = report

	fmt.Printf("\n--- risk %d (%s): %s\n", report.RiskScore, report.RiskLevel, report.Summary)
	for _, f := range report.RedFlags {
		fmt.Printf("    ! %s (%s): %s\n", f.Type, f.Severity, f.Evidence)
	}
	for _, a := range report.RecommendedActions {
		fmt.Printf("    > %s\n", a)
	}
}
