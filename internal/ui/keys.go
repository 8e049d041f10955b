package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cadence-music/cadence/internal/constants"
	"github.com/cadence-music/cadence/internal/structures"
)

func matchesAny(key string, bindings []string) bool {
	for _, b := range bindings {
		if key == b {
			return true
		}
	}
	return false
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.typing {
		return m.handleSearchInput(msg)
	}

	kb := m.cfg.KeyBindings
	switch {
	case key == "ctrl+c" || key == kb.Quit:
		return m, tea.Quit

	// Playback controls work from every view.
	case key == kb.PlayPause:
		m.coord.TogglePlay()
	case key == kb.NextTrack:
		m.coord.PlayNext()
	case key == kb.PrevTrack:
		m.coord.PlayPrevious()
	case matchesAny(key, kb.VolumeUp):
		m.coord.SetVolume(m.snap.Volume + constants.VolumeStep)
	case matchesAny(key, kb.VolumeDown):
		m.coord.SetVolume(m.snap.Volume - constants.VolumeStep)
	case key == kb.SeekForward:
		m.coord.SeekTo(m.snap.CurrentTime + m.seekStep())
	case key == kb.SeekBackward:
		m.coord.SeekTo(m.snap.CurrentTime - m.seekStep())

	// Navigation.
	case matchesAny(key, kb.MoveUp):
		if m.cursor > 0 {
			m.cursor--
		}
	case matchesAny(key, kb.MoveDown):
		if m.cursor < m.listLen()-1 {
			m.cursor++
		}
	case matchesAny(key, kb.Select):
		return m.selectCurrent()
	case matchesAny(key, kb.Back), key == kb.Home:
		m.view = viewHome
		m.cursor = 0
		m.err = nil

	// Actions.
	case key == kb.Search:
		m.view = viewSearch
		m.typing = true
		m.searchInput = ""
		m.cursor = 0
	case key == kb.QueueView:
		m.view = viewQueue
		m.cursor = 0
	case key == kb.Shuffle:
		m.playShuffled()
	case key == kb.AddToQueue:
		if t, ok := m.selectedTrack(); ok {
			m.coord.AddToQueue(t)
		}
	case key == kb.RemoveTrack:
		if m.view == viewQueue && m.cursor < len(m.snap.Queue) {
			if err := m.coord.RemoveFromQueue(m.cursor); err == nil && m.cursor > 0 {
				m.cursor--
			}
		}
	}

	m.snap = m.coord.Snapshot()
	return m, nil
}

func (m *Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.typing = false
		query := strings.TrimSpace(m.searchInput)
		if query == "" {
			return m, nil
		}
		return m, m.runSearch(query)
	case tea.KeyEsc:
		m.typing = false
		m.view = viewHome
		return m, nil
	case tea.KeyBackspace:
		if len(m.searchInput) > 0 {
			runes := []rune(m.searchInput)
			m.searchInput = string(runes[:len(runes)-1])
		}
		return m, nil
	case tea.KeySpace:
		m.searchInput += " "
		return m, nil
	case tea.KeyRunes:
		m.searchInput += string(msg.Runes)
		return m, nil
	}
	return m, nil
}

func (m *Model) seekStep() time.Duration {
	seconds := m.cfg.SeekSeconds
	if seconds <= 0 {
		seconds = constants.SeekSeconds
	}
	return time.Duration(seconds) * time.Second
}

// listLen is the number of selectable rows in the active view.
func (m *Model) listLen() int {
	switch m.view {
	case viewHome:
		return len(m.playlists) + len(m.popular)
	case viewTracks:
		return len(m.tracks)
	case viewSearch:
		if m.results == nil {
			return 0
		}
		return len(m.results.Tracks)
	case viewQueue:
		return len(m.snap.Queue)
	}
	return 0
}

// selectedTrack returns the track under the cursor, when the cursor is on a
// track row.
func (m *Model) selectedTrack() (t structures.Track, ok bool) {
	switch m.view {
	case viewHome:
		if i := m.cursor - len(m.playlists); i >= 0 && i < len(m.popular) {
			return m.popular[i], true
		}
	case viewTracks:
		if m.cursor < len(m.tracks) {
			return m.tracks[m.cursor], true
		}
	case viewSearch:
		if m.results != nil && m.cursor < len(m.results.Tracks) {
			return m.results.Tracks[m.cursor], true
		}
	case viewQueue:
		if m.cursor < len(m.snap.Queue) {
			return m.snap.Queue[m.cursor], true
		}
	}
	return t, false
}

func (m *Model) selectCurrent() (tea.Model, tea.Cmd) {
	switch m.view {
	case viewHome:
		if m.cursor < len(m.playlists) {
			return m, m.openPlaylist(m.playlists[m.cursor])
		}
		if i := m.cursor - len(m.playlists); i >= 0 && i < len(m.popular) {
			m.playFrom(m.popular, i)
		}
	case viewTracks:
		if m.cursor < len(m.tracks) {
			m.playFrom(m.tracks, m.cursor)
		}
	case viewSearch:
		if m.results != nil && m.cursor < len(m.results.Tracks) {
			m.playFrom(m.results.Tracks, m.cursor)
		}
	case viewQueue:
		if m.cursor < len(m.snap.Queue) {
			m.playFrom(m.snap.Queue, m.cursor)
		}
	}
	m.snap = m.coord.Snapshot()
	return m, nil
}
