package audio

import (
	"math"
	"testing"
)

func TestDownsample_IdentityWhenRatesEqual(t *testing.T) {
	in := []float32{0.1, -0.2, 0.3, -0.4}

	out := Downsample(in, 48000, 48000)

	if len(out) != len(in) {
		t.Fatalf("expected length %d, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("sample %d: expected %v, got %v", i, in[i], out[i])
		}
	}
	// Identity must not copy
	if &out[0] != &in[0] {
		t.Error("expected input slice to be returned unchanged")
	}
}

func TestDownsample_HalvesRate(t *testing.T) {
	in := []float32{0, 1, 0, 1, 0, 1, 0, 1}

	out := Downsample(in, 8, 4)

	if len(out) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(out))
	}
	for i, v := range out {
		if v != 0.5 {
			t.Errorf("sample %d: expected 0.5, got %v", i, v)
		}
	}
}

func TestDownsample_OutputLength(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		inputRate int
		outRate   int
	}{
		{"48k to 16k", 4096, 48000, 16000},
		{"44.1k to 16k", 4096, 44100, 16000},
		{"8k to 4k odd block", 1001, 8000, 4000},
		{"single sample", 1, 48000, 16000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := make([]float32, tt.n)
			out := Downsample(in, tt.inputRate, tt.outRate)

			want := int(math.Round(float64(tt.n) * float64(tt.outRate) / float64(tt.inputRate)))
			diff := len(out) - want
			if diff < -1 || diff > 1 {
				t.Errorf("expected length %d (±1), got %d", want, len(out))
			}
		})
	}
}

func TestDownsample_EmptyInput(t *testing.T) {
	out := Downsample(nil, 48000, 16000)
	if len(out) != 0 {
		t.Errorf("expected empty output, got %d samples", len(out))
	}
}

func TestEncodePCM16_Boundaries(t *testing.T) {
	tests := []struct {
		name string
		in   float32
		want int16
	}{
		{"positive full scale", 1.0, 32767},
		{"negative full scale", -1.0, -32768},
		{"clamped above range", 2.0, 32767},
		{"clamped below range", -2.0, -32768},
		{"zero", 0.0, 0},
		{"half scale", 0.5, 16383},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := EncodePCM16([]float32{tt.in})
			if len(out) != 1 {
				t.Fatalf("expected 1 sample, got %d", len(out))
			}
			if out[0] != tt.want {
				t.Errorf("expected %d, got %d", tt.want, out[0])
			}
		})
	}
}

func TestPCMBytes_LittleEndian(t *testing.T) {
	out := PCMBytes([]int16{0x0102, -2})

	want := []byte{0x02, 0x01, 0xFE, 0xFF}
	if len(out) != len(want) {
		t.Fatalf("expected %d bytes, got %d", len(want), len(out))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("byte %d: expected %#x, got %#x", i, want[i], out[i])
		}
	}
}
