package capture

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Dulateaad/TrustChecker/internal/audio"
)

// Scripted is a Source that synthesizes a sine tone instead of reading a
// real device. Used for development without a microphone and in tests.
type Scripted struct {
	blockSize int
	rate      int
	interval  time.Duration

	mu     sync.Mutex
	done   chan struct{}
	active atomic.Bool

	phase float64
}

// NewScripted creates a scripted source emitting blockSize-sample blocks
// at the given rate, one block per interval. A zero interval emits at the
// real-time pace of the block size.
func NewScripted(blockSize, rate int, interval time.Duration) *Scripted {
	if interval <= 0 {
		interval = time.Duration(float64(blockSize) / float64(rate) * float64(time.Second))
	}
	return &Scripted{
		blockSize: blockSize,
		rate:      rate,
		interval:  interval,
	}
}

// Start begins emitting synthesized blocks.
func (s *Scripted) Start(onBlock BlockFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active.Load() {
		return nil
	}
	s.done = make(chan struct{})
	s.active.Store(true)

	done := s.done
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if !s.active.Load() {
					return
				}
				onBlock(audio.Block{Samples: s.nextBlock(), Rate: s.rate})
			}
		}
	}()
	return nil
}

// nextBlock synthesizes a 440 Hz tone at -12 dBFS.
func (s *Scripted) nextBlock() []float32 {
	block := make([]float32, s.blockSize)
	step := 2 * math.Pi * 440 / float64(s.rate)
	for i := range block {
		block[i] = float32(0.25 * math.Sin(s.phase))
		s.phase += step
	}
	return block
}

// Stop halts block production.
func (s *Scripted) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active.Load() {
		return
	}
	s.active.Store(false)
	close(s.done)
}

// Rate reports the synthesized sample rate.
func (s *Scripted) Rate() int {
	return s.rate
}

// Active reports whether the source is emitting.
func (s *Scripted) Active() bool {
	return s.active.Load()
}
