// Package audio provides the sample-rate conversion and PCM encoding used
// by the live-call pipeline. Both operations are pure functions over one
// block of samples and carry no state between blocks.
package audio

import "math"

// Block is one fixed-size run of floating-point samples in [-1, 1],
// tagged with the rate it was captured at.
type Block struct {
	Samples []float32
	Rate    int
}

// Downsample converts samples at inputRate to outputRate by box-filter
// decimation: each output sample is the mean of the consecutive input
// samples between rounded rate-ratio boundaries. Single pass, O(N), no
// lookahead beyond the block. Not spectrally ideal, but deterministic and
// cheap, which is what a realtime voice stream needs.
//
// When the rates are equal the input slice is returned as-is.
func Downsample(samples []float32, inputRate, outputRate int) []float32 {
	if outputRate == inputRate {
		return samples
	}

	ratio := float64(inputRate) / float64(outputRate)
	outLen := int(math.Round(float64(len(samples)) / ratio))
	out := make([]float32, outLen)

	cursor := 0
	for i := 0; i < outLen; i++ {
		nextBoundary := int(math.Round(float64(i+1) * ratio))
		var accum float32
		count := 0
		for j := cursor; j < nextBoundary && j < len(samples); j++ {
			accum += samples[j]
			count++
		}
		if count > 0 {
			out[i] = accum / float32(count)
		}
		cursor = nextBoundary
	}
	return out
}

// EncodePCM16 maps floating-point samples to signed 16-bit integers.
// Samples are clamped to [-1, 1]; negatives scale by 32768 and
// non-negatives by 32767, matching the asymmetric two's-complement range.
func EncodePCM16(samples []float32) []int16 {
	pcm := make([]int16, len(samples))
	for i, s := range samples {
		if s < -1 {
			s = -1
		} else if s > 1 {
			s = 1
		}
		if s < 0 {
			pcm[i] = int16(s * 32768)
		} else {
			pcm[i] = int16(s * 32767)
		}
	}
	return pcm
}

// PCMBytes packs 16-bit samples little-endian for the wire.
func PCMBytes(pcm []int16) []byte {
	out := make([]byte, len(pcm)*2)
	for i, v := range pcm {
		out[2*i] = byte(v)
		out[2*i+1] = byte(v >> 8)
	}
	return out
}
