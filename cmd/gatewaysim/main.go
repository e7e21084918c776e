// Command gatewaysim is a local stand-in for the remote transcription
// gateway and analysis backend. It speaks the gateway wire protocol over
// a websocket, emitting scripted partial/final transcripts as audio
// frames arrive, and serves a canned risk report on the analysis
// endpoint so the whole pipeline runs without any remote service.
package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Dulateaad/TrustChecker/internal/models"
	"github.com/Dulateaad/TrustChecker/internal/observability/logging"
)

// utterance is one scripted exchange: progressive partials, then the
// final text.
type utterance struct {
	partials []string
	final    string
}

var script = []utterance{
	{
		partials: []string{"hello", "hello I am", "hello I am calling"},
		final:    "hello I am calling from your bank's security department",
	},
	{
		partials: []string{"we detected", "we detected suspicious"},
		final:    "we detected suspicious activity on your account",
	},
	{
		partials: []string{"please confirm", "please confirm your card"},
		final:    "please confirm your card number and the code we just sent you",
	},
	{
		partials: []string{"this is", "this is urgent"},
		final:    "this is urgent your account will be blocked in ten minutes",
	},
}

// framesPerEvent is how many binary audio frames advance the script by
// one transcript event.
const framesPerEvent = 4

func main() {
	addr := flag.String("addr", ":9000", "Listen address")
	flag.Parse()

	logCfg := logging.DefaultConfig()
	logCfg.Format = "console"
	logging.Init(logCfg)

	r := chi.NewRouter()
	r.Get("/stream", streamHandler)
	r.Post("/analyze-text", analyzeHandler)

	log.Info().Str("addr", *addr).Msg("Gateway simulator listening")
	if err := http.ListenAndServe(*addr, r); err != nil {
		log.Fatal().Err(err).Msg("Simulator failed")
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// session walks the script for one websocket connection.
type session struct {
	conn *websocket.Conn
	mu   sync.Mutex

	streaming  bool
	frames     int
	utterance  int
	eventIndex int // next partial; len(partials) means final
}

func streamHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Upgrade failed")
		return
	}
	defer conn.Close()

	s := &session{conn: conn}
	s.sendStatus("idle")

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		switch msgType {
		case websocket.TextMessage:
			s.handleControl(payload)
		case websocket.BinaryMessage:
			s.handleAudio(len(payload))
		}
	}
}

func (s *session) handleControl(payload []byte) {
	var frame struct {
		Event           string `json:"event"`
		LanguageCode    string `json:"languageCode"`
		SampleRateHertz int    `json:"sampleRateHertz"`
	}
	if err := json.Unmarshal(payload, &frame); err != nil {
		s.sendError("malformed control frame")
		return
	}

	switch frame.Event {
	case "start":
		if frame.SampleRateHertz <= 0 {
			s.sendError("start frame missing sampleRateHertz")
			return
		}
		s.mu.Lock()
		s.streaming = true
		s.frames = 0
		s.eventIndex = 0
		s.mu.Unlock()
		log.Info().
			Str("languageCode", frame.LanguageCode).
			Int("sampleRateHertz", frame.SampleRateHertz).
			Msg("Stream started")
		s.sendStatus("starting")
		s.sendStatus("streaming")
	case "stop":
		s.mu.Lock()
		s.streaming = false
		s.mu.Unlock()
		log.Info().Msg("Stream stopped")
		s.sendStatus("stopping")
		s.sendStatus("ended")
	default:
		s.sendError("unknown event: " + frame.Event)
	}
}

// handleAudio advances the script: every framesPerEvent frames produce
// the next partial, then the final, then move to the next utterance.
func (s *session) handleAudio(size int) {
	s.mu.Lock()
	if !s.streaming {
		s.mu.Unlock()
		return
	}
	s.frames++
	if s.frames%framesPerEvent != 0 {
		s.mu.Unlock()
		return
	}

	utt := script[s.utterance%len(script)]
	idx := s.eventIndex
	if idx < len(utt.partials) {
		s.eventIndex++
		s.mu.Unlock()
		s.sendTranscript(utt.partials[idx], true)
		return
	}
	s.utterance++
	s.eventIndex = 0
	s.mu.Unlock()
	s.sendTranscript(utt.final, false)
}

func (s *session) send(frame map[string]any) {
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Warn().Err(err).Msg("Write failed")
	}
}

func (s *session) sendStatus(state string) {
	s.send(map[string]any{"event": "status", "state": state})
}

func (s *session) sendTranscript(text string, isPartial bool) {
	s.send(map[string]any{"event": "transcript", "text": text, "isPartial": isPartial})
}

func (s *session) sendError(message string) {
	s.send(map[string]any{"event": "error", "message": message})
}

// analyzeHandler scores the text by keyword so longer transcripts drift
// toward higher risk, which is enough to exercise the report display.
func analyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "text is required"})
		return
	}

	report := scoreText(req.Text)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

var keywords = map[string]models.RedFlag{
	"bank":    {Type: "impersonation", Severity: models.RiskHigh, Evidence: "caller claims to be from a bank"},
	"urgent":  {Type: "pressure", Severity: models.RiskMedium, Evidence: "urgency to act immediately"},
	"card":    {Type: "credential_request", Severity: models.RiskCritical, Evidence: "asks for card details"},
	"code":    {Type: "credential_request", Severity: models.RiskCritical, Evidence: "asks for a one-time code"},
	"blocked": {Type: "threat", Severity: models.RiskHigh, Evidence: "threatens account blocking"},
}

func scoreText(text string) *models.RiskReport {
	lower := strings.ToLower(text)

	var flags []models.RedFlag
	score := 5
	for kw, flag := range keywords {
		if strings.Contains(lower, kw) {
			flags = append(flags, flag)
			score += 20
		}
	}
	if score > 100 {
		score = 100
	}

	level := models.RiskLow
	switch {
	case score >= 80:
		level = models.RiskCritical
	case score >= 60:
		level = models.RiskHigh
	case score >= 30:
		level = models.RiskMedium
	}

	report := &models.RiskReport{
		RiskScore: score,
		RiskLevel: level,
		Summary:   "Simulated assessment for local development.",
		RedFlags:  flags,
	}
	if len(flags) > 0 {
		report.RecommendedActions = []string{
			"Hang up and call the institution back on its official number.",
			"Never share card numbers or one-time codes over the phone.",
		}
		report.SafeReply = "I will call the official number on the back of my card to verify this."
	}
	return report
}
