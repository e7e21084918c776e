// Package capture owns the microphone device and produces fixed-size
// blocks of raw samples at the device's native rate.
package capture

import (
	"errors"

	"github.com/Dulateaad/TrustChecker/internal/audio"
)

// ErrMicrophoneUnavailable is returned when the microphone cannot be
// acquired: permission denied, no input device, or the device is busy.
var ErrMicrophoneUnavailable = errors.New("microphone unavailable")

// BlockFunc receives one captured block. Blocks arrive in capture order
// and are never delivered after Stop returns.
type BlockFunc func(block audio.Block)

// Source produces a continuous sequence of audio blocks while active.
type Source interface {
	// Start acquires the device and begins block production. Starting an
	// already-active source is a no-op. Returns ErrMicrophoneUnavailable
	// (wrapped) when the device cannot be opened.
	Start(onBlock BlockFunc) error

	// Stop releases the device and halts block production. Synchronous:
	// when Stop returns, no further callbacks will be delivered.
	Stop()

	// Rate reports the device's native sample rate. Valid after Start.
	Rate() int

	// Active reports whether the source is currently capturing.
	Active() bool
}
