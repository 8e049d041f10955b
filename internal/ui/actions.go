package ui

import (
	"math/rand"

	"github.com/cadence-music/cadence/internal/logger"
	"github.com/cadence-music/cadence/internal/structures"
)

// playFrom hands an ordered track list to the coordinator starting at index.
// This is the single playback entry point for every view.
func (m *Model) playFrom(tracks []structures.Track, index int) {
	if err := m.coord.PlayQueue(tracks, index); err != nil {
		logger.Error("Play queue of %d tracks at %d failed: %v", len(tracks), index, err)
		m.err = err
	}
}

// playShuffled plays a shuffled copy of the active view's track list. The
// coordinator is a plain ordered-list player; shuffling is this caller's job.
func (m *Model) playShuffled() {
	var source []structures.Track
	switch m.view {
	case viewHome:
		source = m.popular
	case viewTracks:
		source = m.tracks
	case viewSearch:
		if m.results != nil {
			source = m.results.Tracks
		}
	case viewQueue:
		source = m.snap.Queue
	}
	if len(source) == 0 {
		return
	}
	m.playFrom(shuffled(source), 0)
}

// shuffled returns a Fisher-Yates shuffled copy, leaving the source intact.
func shuffled(tracks []structures.Track) []structures.Track {
	out := make([]structures.Track, len(tracks))
	copy(out, tracks)
	for i := len(out) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
