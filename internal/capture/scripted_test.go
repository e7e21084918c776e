package capture

import (
	"sync"
	"testing"
	"time"

	"github.com/Dulateaad/TrustChecker/internal/audio"
)

func collectBlocks(t *testing.T, src *Scripted, want int, timeout time.Duration) []audio.Block {
	t.Helper()

	var mu sync.Mutex
	var blocks []audio.Block
	got := make(chan struct{}, want)

	err := src.Start(func(b audio.Block) {
		mu.Lock()
		blocks = append(blocks, b)
		mu.Unlock()
		select {
		case got <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	deadline := time.After(timeout)
	for i := 0; i < want; i++ {
		select {
		case <-got:
		case <-deadline:
			t.Fatalf("timed out waiting for block %d", i)
		}
	}

	src.Stop()

	mu.Lock()
	defer mu.Unlock()
	out := make([]audio.Block, len(blocks))
	copy(out, blocks)
	return out
}

func TestScripted_EmitsFixedSizeBlocks(t *testing.T) {
	src := NewScripted(256, 16000, time.Millisecond)

	blocks := collectBlocks(t, src, 3, 2*time.Second)

	if len(blocks) < 3 {
		t.Fatalf("expected at least 3 blocks, got %d", len(blocks))
	}
	for i, b := range blocks {
		if len(b.Samples) != 256 {
			t.Errorf("block %d: expected 256 samples, got %d", i, len(b.Samples))
		}
		if b.Rate != 16000 {
			t.Errorf("block %d: expected rate 16000, got %d", i, b.Rate)
		}
		for j, s := range b.Samples {
			if s < -1 || s > 1 {
				t.Fatalf("block %d sample %d out of range: %v", i, j, s)
			}
		}
	}
}

func TestScripted_NoBlocksAfterStop(t *testing.T) {
	src := NewScripted(64, 16000, time.Millisecond)

	var mu sync.Mutex
	count := 0
	if err := src.Start(func(audio.Block) {
		mu.Lock()
		count++
		mu.Unlock()
	}); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	src.Stop()

	mu.Lock()
	after := count
	mu.Unlock()

	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	// The liveness flag is sampled before every delivery, so at most one
	// already-ticked block may land while Stop runs; none land later.
	if count > after+1 {
		t.Errorf("blocks kept arriving after Stop: %d -> %d", after, count)
	}
	if src.Active() {
		t.Error("expected source inactive after Stop")
	}
}

func TestScripted_StartWhileActiveIsNoOp(t *testing.T) {
	src := NewScripted(64, 16000, time.Millisecond)

	if err := src.Start(func(audio.Block) {}); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	defer src.Stop()

	// Second start must not replace the callback or error out.
	called := false
	if err := src.Start(func(audio.Block) { called = true }); err != nil {
		t.Fatalf("unexpected error on double start: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if called {
		t.Error("second Start callback should never be wired")
	}
}

func TestScripted_RestartAfterStop(t *testing.T) {
	src := NewScripted(64, 16000, time.Millisecond)

	blocks := collectBlocks(t, src, 1, time.Second)
	if len(blocks) == 0 {
		t.Fatal("expected a block from first run")
	}

	blocks = collectBlocks(t, src, 1, time.Second)
	if len(blocks) == 0 {
		t.Fatal("expected a block after restart")
	}
}
