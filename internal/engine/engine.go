// Package engine wraps the single audio output resource. It decodes MP3
// through beep, owns the speaker, and reports progress back to the player
// coordinator as typed events tagged with a load generation so that a
// superseded load can be told apart from the current one.
package engine

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"

	"github.com/cadence-music/cadence/internal/constants"
	"github.com/cadence-music/cadence/internal/logger"
	"github.com/cadence-music/cadence/internal/structures"
)

// EventKind discriminates engine events.
type EventKind int

const (
	// TimeUpdate reports the current playback position.
	TimeUpdate EventKind = iota
	// DurationKnown fires once the decoded duration of a load is known.
	DurationKnown
	// Ended fires when playback reaches the end of the loaded source.
	Ended
	// LoadError fires when a source cannot be fetched or decoded.
	LoadError
)

// Event is one engine notification. Gen identifies the Load call it belongs
// to; consumers drop events whose generation is no longer current.
type Event struct {
	Kind     EventKind
	Gen      uint64
	Position time.Duration
	Duration time.Duration
	Err      error
}

// Resolver turns a track's audio ref into a playable local file path.
// Implementations fetch remote URLs into the cache; local draft paths pass
// through untouched.
type Resolver interface {
	Resolve(track structures.Track) (string, error)
}

const pollInterval = constants.PlayerUpdateInterval

// Engine is the beep-backed playback engine. Exactly one source is loaded at
// a time; a new Load supersedes any in-flight one.
type Engine struct {
	mu       sync.Mutex
	resolver Resolver
	events   chan Event

	gen          uint64 // most recent Load
	installedGen uint64 // generation of the installed streamer
	streamer     beep.StreamSeekCloser
	ctrl         *beep.Ctrl
	volume       *effects.Volume
	format       beep.Format
	duration     time.Duration
	playing      bool
	endedSent    bool

	vol float64 // linear 0..1, kept across loads

	speakerInitialized bool
	currentSampleRate  beep.SampleRate

	stopChan chan struct{}
	stopOnce sync.Once
}

// New creates an engine. The speaker is initialized lazily on the first load
// because the sample rate is not known until then.
func New(resolver Resolver) *Engine {
	e := &Engine{
		resolver: resolver,
		events:   make(chan Event, 64),
		vol:      1.0,
		stopChan: make(chan struct{}),
	}
	go e.pollLoop()
	return e
}

// Events returns the engine's event stream. Events are dropped rather than
// blocking when the consumer falls behind.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Load begins loading a new source and returns its generation. Resolution and
// decoding happen on a background goroutine; completion or failure arrives as
// a DurationKnown or LoadError event carrying the returned generation. A
// later Load supersedes this one: its completion is discarded internally and
// its events never fire. The superseded source is paused right away, so the
// last call wins audibly even while the new one is still resolving.
func (e *Engine) Load(track structures.Track) uint64 {
	e.mu.Lock()
	e.gen++
	gen := e.gen
	if e.ctrl != nil {
		speaker.Lock()
		e.ctrl.Paused = true
		speaker.Unlock()
	}
	e.playing = false
	e.mu.Unlock()

	go e.load(track, gen)
	return gen
}

func (e *Engine) load(track structures.Track, gen uint64) {
	path, err := e.resolver.Resolve(track)
	if err != nil {
		e.failLoad(gen, fmt.Errorf("resolve audio for %s: %w", track.ID, err))
		return
	}

	file, err := os.Open(path)
	if err != nil {
		e.failLoad(gen, fmt.Errorf("open audio file: %w", err))
		return
	}

	streamer, format, err := mp3.Decode(file)
	if err != nil {
		file.Close()
		e.failLoad(gen, fmt.Errorf("decode mp3: %w", err))
		return
	}

	e.mu.Lock()
	if gen != e.gen {
		// A newer load superseded this one while it was decoding.
		e.mu.Unlock()
		streamer.Close()
		logger.Debug("Discarding superseded load (gen %d)", gen)
		return
	}

	if e.streamer != nil {
		e.streamer.Close()
	}
	if e.speakerInitialized {
		speaker.Clear()
	}

	volume := &effects.Volume{
		Streamer: streamer,
		Base:     2,
		Volume:   linearToDB(e.vol),
		Silent:   e.vol <= 0,
	}
	ctrl := &beep.Ctrl{Streamer: volume, Paused: true}

	e.streamer = streamer
	e.ctrl = ctrl
	e.volume = volume
	e.format = format
	e.duration = format.SampleRate.D(streamer.Len())
	e.playing = false
	e.endedSent = false
	e.installedGen = gen

	if !e.speakerInitialized || e.currentSampleRate != format.SampleRate {
		if e.speakerInitialized {
			speaker.Close()
		}
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			e.streamer = nil
			e.ctrl = nil
			e.volume = nil
			e.mu.Unlock()
			streamer.Close()
			e.failLoad(gen, fmt.Errorf("init speaker at %d Hz: %w", format.SampleRate, err))
			return
		}
		e.speakerInitialized = true
		e.currentSampleRate = format.SampleRate
	}

	speaker.Clear()
	speaker.Play(ctrl)

	duration := e.duration
	e.mu.Unlock()

	logger.Debug("Loaded %s (%s), duration %v", track.ID, track.Title, duration)
	e.emit(Event{Kind: DurationKnown, Gen: gen, Duration: duration})
}

func (e *Engine) failLoad(gen uint64, err error) {
	e.mu.Lock()
	stale := gen != e.gen
	e.mu.Unlock()
	if stale {
		return
	}
	logger.Error("Load failed: %v", err)
	e.emit(Event{Kind: LoadError, Gen: gen, Err: err})
}

// Play resumes playback of the loaded source. No-op when nothing is loaded.
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctrl == nil {
		return
	}
	speaker.Lock()
	e.ctrl.Paused = false
	speaker.Unlock()
	e.playing = true
}

// Pause pauses playback. No-op when nothing is loaded.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctrl == nil {
		return
	}
	speaker.Lock()
	e.ctrl.Paused = true
	speaker.Unlock()
	e.playing = false
}

// Seek moves to pos, clamped to [0, duration].
func (e *Engine) Seek(pos time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer == nil {
		return
	}

	if pos < 0 {
		pos = 0
	}
	if pos > e.duration {
		pos = e.duration
	}

	sample := e.format.SampleRate.N(pos)
	if max := e.streamer.Len() - 1; sample > max {
		sample = max
	}
	if sample < 0 {
		sample = 0
	}

	wasPlaying := e.playing
	if wasPlaying {
		speaker.Lock()
		e.ctrl.Paused = true
		speaker.Unlock()
	}

	if err := e.streamer.Seek(sample); err != nil {
		logger.Error("Seek to sample %d failed: %v", sample, err)
		if err := e.streamer.Seek(0); err != nil {
			logger.Error("Reset after failed seek also failed: %v", err)
		}
	}
	e.endedSent = false

	if wasPlaying {
		speaker.Lock()
		e.ctrl.Paused = false
		speaker.Unlock()
	}
}

// SetVolume sets the output volume, clamped to [0,1]. Zero mutes. The value
// survives track changes and may be set before anything is loaded.
func (e *Engine) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.vol = v
	if e.volume == nil {
		return
	}
	speaker.Lock()
	e.volume.Silent = v <= 0
	e.volume.Volume = linearToDB(v)
	speaker.Unlock()
}

// Volume returns the current volume in [0,1].
func (e *Engine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vol
}

// Position returns the playback position of the loaded source.
func (e *Engine) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positionLocked()
}

func (e *Engine) positionLocked() time.Duration {
	if e.streamer == nil {
		return 0
	}
	return e.format.SampleRate.D(e.streamer.Position())
}

// Duration returns the decoded duration of the loaded source.
func (e *Engine) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

// Close stops the poll loop and releases the speaker.
func (e *Engine) Close() error {
	e.stopOnce.Do(func() { close(e.stopChan) })

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer != nil {
		e.streamer.Close()
		e.streamer = nil
	}
	if e.speakerInitialized {
		speaker.Close()
		e.speakerInitialized = false
	}
	return nil
}

// pollLoop publishes position updates and detects end of playback. beep has
// no end-of-stream callback on Ctrl, so the position is compared against the
// decoded duration on every tick.
func (e *Engine) pollLoop() {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.pollOnce()
		case <-e.stopChan:
			return
		}
	}
}

func (e *Engine) pollOnce() {
	e.mu.Lock()
	if e.streamer == nil || e.gen != e.installedGen {
		// Either nothing is installed, or a newer load is still in flight
		// and the installed source is superseded. Its progress must not
		// surface under the new generation.
		e.mu.Unlock()
		return
	}
	gen := e.installedGen
	pos := e.positionLocked()
	duration := e.duration

	ended := e.playing && !e.endedSent && pos >= duration-pollInterval
	if ended {
		e.endedSent = true
		e.playing = false
		if e.ctrl != nil {
			speaker.Lock()
			e.ctrl.Paused = true
			speaker.Unlock()
		}
		pos = duration
	}
	e.mu.Unlock()

	e.emit(Event{Kind: TimeUpdate, Gen: gen, Position: pos, Duration: duration})
	if ended {
		e.emit(Event{Kind: Ended, Gen: gen, Position: duration, Duration: duration})
	}
}

// emit delivers an event to the consumer. A TimeUpdate is dropped when the
// channel is full since the next tick replaces it; lifecycle events wait for
// the consumer so an Ended or LoadError is never lost.
func (e *Engine) emit(ev Event) {
	if ev.Kind == TimeUpdate {
		select {
		case e.events <- ev:
		default:
		}
		return
	}
	select {
	case e.events <- ev:
	case <-e.stopChan:
	}
}

// linearToDB maps a 0..1 volume to the decibel scale beep's Volume effect
// expects, matching a base-2 exponential curve.
func linearToDB(v float64) float64 {
	if v <= 0 {
		return -10
	}
	return 20 * (v - 1)
}
