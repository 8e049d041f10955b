package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/faiface/beep"

	"github.com/cadence-music/cadence/internal/structures"
)

// stubStreamer is an in-memory source for exercising the poll loop without
// opening an audio device.
type stubStreamer struct {
	pos    int
	length int
}

func (s *stubStreamer) Stream(samples [][2]float64) (int, bool) { return 0, false }
func (s *stubStreamer) Err() error                              { return nil }
func (s *stubStreamer) Len() int                                { return s.length }
func (s *stubStreamer) Position() int                           { return s.pos }
func (s *stubStreamer) Seek(p int) error                        { s.pos = p; return nil }
func (s *stubStreamer) Close() error                            { return nil }

// newInstalledEngine builds an engine with src installed as generation 1,
// playing, without starting the poll loop. Tests drive pollOnce directly.
func newInstalledEngine(src *stubStreamer, rate beep.SampleRate) *Engine {
	e := &Engine{
		events:   make(chan Event, 64),
		vol:      1.0,
		stopChan: make(chan struct{}),
	}
	e.gen = 1
	e.installedGen = 1
	e.streamer = src
	e.ctrl = &beep.Ctrl{}
	e.format = beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
	e.duration = rate.D(src.length)
	e.playing = true
	return e
}

func TestPollOnce_ReportsInstalledGeneration(t *testing.T) {
	src := &stubStreamer{pos: 44100, length: 44100 * 10}
	e := newInstalledEngine(src, 44100)

	e.pollOnce()

	select {
	case ev := <-e.events:
		if ev.Kind != TimeUpdate || ev.Gen != 1 {
			t.Errorf("event = %+v, want TimeUpdate with gen 1", ev)
		}
		if ev.Position != time.Second {
			t.Errorf("Position = %v, want 1s", ev.Position)
		}
	default:
		t.Fatal("no event emitted for installed playing source")
	}
}

func TestPollOnce_SilentWhileLoadInFlight(t *testing.T) {
	// The old source is a tick away from its end. Once a newer Load has
	// bumped the generation, its progress must not surface at all: a
	// TimeUpdate would tear the new track's snapshot, and an Ended would
	// auto-advance past a track that never played.
	src := &stubStreamer{pos: 44100*10 - 1, length: 44100 * 10}
	e := newInstalledEngine(src, 44100)
	e.mu.Lock()
	e.gen = 2 // Load returned 2; its streamer is not installed yet
	e.mu.Unlock()

	e.pollOnce()

	select {
	case ev := <-e.events:
		t.Fatalf("event %+v emitted for superseded source", ev)
	default:
	}
}

// stuckResolver blocks Resolve until released, holding a load in flight.
type stuckResolver struct {
	release chan struct{}
}

func (r *stuckResolver) Resolve(structures.Track) (string, error) {
	<-r.release
	return "", errors.New("resolver stopped")
}

func TestLoad_PausesSupersededSource(t *testing.T) {
	src := &stubStreamer{pos: 100, length: 44100 * 10}
	e := newInstalledEngine(src, 44100)
	r := &stuckResolver{release: make(chan struct{})}
	e.resolver = r
	t.Cleanup(func() { close(r.release) })

	track := structures.Track{ID: "next", Audio: structures.AudioRef{URL: "https://cdn.example.com/next.mp3"}}
	if gen := e.Load(track); gen != 2 {
		t.Fatalf("gen = %d, want 2", gen)
	}

	if !e.ctrl.Paused {
		t.Error("superseded source still playing while the new load resolves")
	}
	e.pollOnce()
	select {
	case ev := <-e.events:
		t.Fatalf("event %+v emitted for superseded source", ev)
	default:
	}
}
