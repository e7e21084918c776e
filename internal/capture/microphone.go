package capture

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog/log"

	"github.com/Dulateaad/TrustChecker/internal/audio"
)

// Microphone is a portaudio-backed Source reading mono float32 blocks
// from the default input device at its native sample rate.
type Microphone struct {
	blockSize int

	mu     sync.Mutex
	stream *portaudio.Stream
	rate   int
	done   chan struct{}

	// Sampled inside the read loop before every delivery. The portaudio
	// teardown is not trusted to be synchronous with the last Read.
	active atomic.Bool
}

// NewMicrophone creates a microphone source producing blocks of
// blockSize samples.
func NewMicrophone(blockSize int) *Microphone {
	return &Microphone{blockSize: blockSize}
}

// Start acquires the default input device and launches the read loop.
func (m *Microphone) Start(onBlock BlockFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active.Load() {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: %v", ErrMicrophoneUnavailable, err)
	}

	dev, err := portaudio.DefaultInputDevice()
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("%w: %v", ErrMicrophoneUnavailable, err)
	}
	rate := int(dev.DefaultSampleRate)

	buffer := make([]float32, m.blockSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(rate), len(buffer), buffer)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("%w: %v", ErrMicrophoneUnavailable, err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("%w: %v", ErrMicrophoneUnavailable, err)
	}

	m.stream = stream
	m.rate = rate
	m.done = make(chan struct{})
	m.active.Store(true)

	log.Info().
		Str("device", dev.Name).
		Int("sampleRate", rate).
		Int("blockSize", m.blockSize).
		Msg("Microphone capture started")

	go m.readLoop(onBlock, buffer)
	return nil
}

func (m *Microphone) readLoop(onBlock BlockFunc, buffer []float32) {
	defer close(m.done)

	for {
		if err := m.stream.Read(); err != nil {
			// Read fails once the stream is aborted by Stop; anything
			// else ends capture the same way.
			if m.active.Load() {
				log.Error().Err(err).Msg("Microphone read failed, ending capture")
			}
			return
		}
		if !m.active.Load() {
			return
		}
		block := make([]float32, len(buffer))
		copy(block, buffer)
		onBlock(audio.Block{Samples: block, Rate: m.rate})
	}
}

// Stop halts the read loop and releases the device. No callbacks are
// delivered after Stop returns.
func (m *Microphone) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active.Load() {
		return
	}
	m.active.Store(false)

	// Abort unblocks a pending Read; the loop then exits and closes done.
	if err := m.stream.Abort(); err != nil {
		log.Warn().Err(err).Msg("Microphone stream abort failed")
	}
	<-m.done

	if err := m.stream.Close(); err != nil {
		log.Warn().Err(err).Msg("Microphone stream close failed")
	}
	m.stream = nil
	portaudio.Terminate()

	log.Info().Msg("Microphone capture stopped")
}

// Rate reports the device's native sample rate.
func (m *Microphone) Rate() int {
	return m.rate
}

// Active reports whether capture is running.
func (m *Microphone) Active() bool {
	return m.active.Load()
}
