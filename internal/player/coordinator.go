// Package player holds the playback coordinator: the single authoritative
// state machine between the UI surfaces, the queue, and the audio engine.
// Every UI surface mutates playback through the coordinator's operations and
// observes it through published snapshots; nothing else touches the engine.
package player

import (
	"sync"
	"time"

	"github.com/cadence-music/cadence/internal/engine"
	"github.com/cadence-music/cadence/internal/logger"
	"github.com/cadence-music/cadence/internal/queue"
	"github.com/cadence-music/cadence/internal/structures"
)

// Engine is the coordinator's view of the playback engine. The real
// implementation is engine.Engine; tests substitute a fake.
type Engine interface {
	Load(track structures.Track) uint64
	Play()
	Pause()
	Seek(pos time.Duration)
	SetVolume(v float64)
	Events() <-chan engine.Event
	Close() error
}

// DefaultRestartThreshold is how far into a track PlayPrevious restarts it
// instead of moving to the prior queue entry.
const DefaultRestartThreshold = 3 * time.Second

// Snapshot is one consistent view of player state. Subscribers always see a
// whole snapshot; the current track and its timeline never tear.
type Snapshot struct {
	CurrentTrack *structures.Track
	IsPlaying    bool
	CurrentTime  time.Duration
	Duration     time.Duration
	Volume       float64
	Queue        []structures.Track
	QueueIndex   int
	Err          error
}

// Options configures a coordinator.
type Options struct {
	// RestartThreshold overrides DefaultRestartThreshold when positive.
	RestartThreshold time.Duration
	// Volume is the initial volume in [0,1].
	Volume float64
}

// Coordinator mediates between UI calls, the queue, and the engine. One
// instance exists per application session; it survives navigation and is torn
// down only by Close or emptied by ResetPlayer.
type Coordinator struct {
	mu  sync.Mutex
	eng Engine
	q   *queue.Queue

	gen         uint64 // generation of the engine load we accept events from
	loaded      bool   // a load has been issued for the current track
	playing     bool
	currentTime time.Duration
	duration    time.Duration
	volume      float64
	lastErr     error

	restartThreshold time.Duration

	listeners []chan Snapshot

	stopChan chan struct{}
	stopOnce sync.Once
}

// New creates a coordinator and starts consuming engine events.
func New(eng Engine, opts Options) *Coordinator {
	threshold := opts.RestartThreshold
	if threshold <= 0 {
		threshold = DefaultRestartThreshold
	}
	vol := clampVolume(opts.Volume)
	eng.SetVolume(vol)

	c := &Coordinator{
		eng:              eng,
		q:                queue.New(),
		volume:           vol,
		restartThreshold: threshold,
		stopChan:         make(chan struct{}),
	}
	go c.run()
	return c
}

// Close stops event consumption and releases the engine.
func (c *Coordinator) Close() error {
	c.stopOnce.Do(func() { close(c.stopChan) })
	return c.eng.Close()
}

func (c *Coordinator) run() {
	for {
		select {
		case ev := <-c.eng.Events():
			c.handleEvent(ev)
		case <-c.stopChan:
			return
		}
	}
}

// PlaySong plays a single track as a one-item queue. Calling it with the
// track that is already current toggles play/pause instead of reloading.
func (c *Coordinator) PlaySong(track structures.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur := c.q.Current(); cur != nil && cur.ID == track.ID && c.loaded {
		c.togglePlayLocked()
		return
	}
	// Replace with a one-item list can't produce an invalid index.
	_ = c.q.Replace([]structures.Track{track}, 0)
	c.loadCurrentLocked(true)
}

// PlayQueue replaces the queue with tracks and starts playing at startIndex.
// Callers hand over an already-ordered list; shuffling happens at the caller
// boundary, the coordinator is a plain ordered-list player.
func (c *Coordinator) PlayQueue(tracks []structures.Track, startIndex int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.q.Replace(tracks, startIndex); err != nil {
		return err
	}
	if c.q.Len() == 0 {
		c.stopLocked()
		return nil
	}
	c.loadCurrentLocked(true)
	return nil
}

// TogglePlay flips play/pause. No-op when nothing is loaded.
func (c *Coordinator) TogglePlay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.togglePlayLocked()
}

func (c *Coordinator) togglePlayLocked() {
	if !c.loaded {
		return
	}
	if c.playing {
		c.eng.Pause()
		c.playing = false
	} else {
		c.eng.Play()
		c.playing = true
	}
	c.publishLocked()
}

// SeekTo moves playback to pos. The engine clamps out-of-range positions.
func (c *Coordinator) SeekTo(pos time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		return
	}
	c.eng.Seek(pos)
	if pos < 0 {
		pos = 0
	}
	if c.duration > 0 && pos > c.duration {
		pos = c.duration
	}
	c.currentTime = pos
	c.publishLocked()
}

// SetVolume sets the output volume. Volume is a user preference: it survives
// track changes and ResetPlayer.
func (c *Coordinator) SetVolume(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v = clampVolume(v)
	c.eng.SetVolume(v)
	c.volume = v
	c.publishLocked()
}

// PlayNext advances to the next queue entry, preserving play/pause mode.
// No-op at the end of the queue; the queue never wraps.
func (c *Coordinator) PlayNext() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.q.Advance() {
		c.loadCurrentLocked(c.playing)
	}
}

// SetRestartThreshold updates how far into a track PlayPrevious restarts it
// instead of retreating. Non-positive values restore the default.
func (c *Coordinator) SetRestartThreshold(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d <= 0 {
		d = DefaultRestartThreshold
	}
	c.restartThreshold = d
}

// PlayPrevious restarts the current track when more than the restart
// threshold has elapsed, and moves to the prior queue entry otherwise. With
// no prior entry it restarts from the beginning.
func (c *Coordinator) PlayPrevious() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded && c.currentTime > c.restartThreshold {
		c.eng.Seek(0)
		c.currentTime = 0
		c.publishLocked()
		return
	}
	if c.q.Retreat() {
		c.loadCurrentLocked(c.playing)
		return
	}
	if c.loaded {
		c.eng.Seek(0)
		c.currentTime = 0
		c.publishLocked()
	}
}

// AddToQueue appends a track. Playback state is untouched; appending to an
// empty queue does not start anything.
func (c *Coordinator) AddToQueue(track structures.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.q.Append(track)
	c.publishLocked()
}

// RemoveFromQueue removes the track at index. Removing the current track
// keeps playing whatever shifts into its place, preserving play/pause mode;
// emptying the queue stops playback.
func (c *Coordinator) RemoveFromQueue(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	wasCurrent := index == c.q.Index()
	if err := c.q.RemoveAt(index); err != nil {
		return err
	}
	if wasCurrent {
		if c.q.Len() == 0 {
			c.stopLocked()
		} else {
			c.loadCurrentLocked(c.playing)
		}
		return nil
	}
	c.publishLocked()
	return nil
}

// RemoveFromQueueByID removes every occurrence of a track id from the queue,
// processing matches in descending index order so earlier removals don't
// shift later targets.
func (c *Coordinator) RemoveFromQueueByID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := c.q.Items()
	removedCurrent := false
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].ID != id {
			continue
		}
		if i == c.q.Index() {
			removedCurrent = true
		}
		if err := c.q.RemoveAt(i); err != nil {
			logger.Error("Remove by id %s at index %d failed: %v", id, i, err)
		}
	}
	if removedCurrent {
		if c.q.Len() == 0 {
			c.stopLocked()
		} else {
			c.loadCurrentLocked(c.playing)
		}
		return
	}
	c.publishLocked()
}

// ResetPlayer stops the engine, clears the queue, and returns to the empty
// state. Volume is preserved. No event from the previous source is applied
// after this returns.
func (c *Coordinator) ResetPlayer() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.q.Clear()
	c.lastErr = nil
	c.stopLocked()
}

// stopLocked halts playback and discards any pending engine events by
// zeroing the accepted generation; engine generations start at 1, so
// nothing in flight can match.
func (c *Coordinator) stopLocked() {
	c.gen = 0
	c.loaded = false
	c.playing = false
	c.eng.Pause()
	c.currentTime = 0
	c.duration = 0
	c.publishLocked()
}

// loadCurrentLocked issues a load for the track under the cursor. The
// catalog duration is published immediately as a provisional value; the
// decoded duration replaces it when DurationKnown arrives.
func (c *Coordinator) loadCurrentLocked(autoplay bool) {
	t := c.q.Current()
	if t == nil {
		c.stopLocked()
		return
	}
	c.gen = c.eng.Load(*t)
	c.loaded = true
	c.playing = autoplay
	c.currentTime = 0
	c.duration = time.Duration(t.Duration) * time.Second
	c.lastErr = nil
	c.publishLocked()
}

func (c *Coordinator) handleEvent(ev engine.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ev.Gen != c.gen || !c.loaded {
		// Stale: a newer load or a reset superseded the source this
		// event belongs to.
		return
	}

	switch ev.Kind {
	case engine.TimeUpdate:
		c.currentTime = ev.Position
		if ev.Duration > 0 {
			c.duration = ev.Duration
		}
		c.publishLocked()

	case engine.DurationKnown:
		c.duration = ev.Duration
		// The engine loads paused; start it if play was requested.
		if c.playing {
			c.eng.Play()
		}
		c.publishLocked()

	case engine.Ended:
		if c.q.Advance() {
			c.loadCurrentLocked(true)
			return
		}
		// End of queue: settle paused with the track fully elapsed.
		c.playing = false
		c.currentTime = c.duration
		c.publishLocked()

	case engine.LoadError:
		// Policy: halt on the failed track and surface the error. Never
		// auto-skip, and never keep claiming to play while silent.
		logger.Error("Playback load failed: %v", ev.Err)
		c.playing = false
		c.lastErr = ev.Err
		c.publishLocked()
	}
}

// Snapshot returns the current player state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	return Snapshot{
		CurrentTrack: c.q.Current(),
		IsPlaying:    c.playing,
		CurrentTime:  c.currentTime,
		Duration:     c.duration,
		Volume:       c.volume,
		Queue:        c.q.Items(),
		QueueIndex:   c.q.Index(),
		Err:          c.lastErr,
	}
}

// Subscribe registers a state listener. Every mutation publishes one
// snapshot; a slow listener misses intermediate snapshots rather than
// blocking the player.
func (c *Coordinator) Subscribe() <-chan Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Snapshot, 8)
	c.listeners = append(c.listeners, ch)
	return ch
}

// Unsubscribe removes and closes a listener channel.
func (c *Coordinator) Unsubscribe(ch <-chan Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, l := range c.listeners {
		if l == ch {
			close(l)
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			return
		}
	}
}

func (c *Coordinator) publishLocked() {
	snap := c.snapshotLocked()
	for _, l := range c.listeners {
		select {
		case l <- snap:
		default:
		}
	}
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
