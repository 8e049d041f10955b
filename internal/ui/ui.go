// Package ui renders the terminal interface. Every view is a pure renderer
// over the coordinator's published snapshots plus catalog data fetched from
// the API; no playback state lives here.
package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cadence-music/cadence/internal/api"
	"github.com/cadence-music/cadence/internal/logger"
	"github.com/cadence-music/cadence/internal/player"
	"github.com/cadence-music/cadence/internal/structures"
)

type view int

const (
	viewHome view = iota
	viewTracks
	viewSearch
	viewQueue
)

// Model is the bubbletea model for the whole application.
type Model struct {
	cfg    *structures.Config
	client *api.Client
	coord  *player.Coordinator

	snap      player.Snapshot
	snapshots <-chan player.Snapshot

	view   view
	width  int
	height int
	cursor int

	playlists []structures.Playlist
	popular   []structures.Track

	listTitle string
	tracks    []structures.Track

	searchInput string
	typing      bool
	results     *structures.SearchResults

	err error
}

// Messages.

type snapshotMsg player.Snapshot

type homeDataMsg struct {
	playlists []structures.Playlist
	popular   []structures.Track
}

type trackListMsg struct {
	title  string
	tracks []structures.Track
}

type searchResultsMsg struct{ results *structures.SearchResults }

type errMsg struct{ err error }

// ConfigReloadedMsg is sent from outside the program when the config file
// changes on disk.
type ConfigReloadedMsg struct{ Config *structures.Config }

// New creates the UI model.
func New(cfg *structures.Config, client *api.Client, coord *player.Coordinator) *Model {
	return &Model{
		cfg:       cfg,
		client:    client,
		coord:     coord,
		snap:      coord.Snapshot(),
		snapshots: coord.Subscribe(),
	}
}

// Run starts the bubbletea program and blocks until the user quits. The
// returned program handle is delivered through onStart so callers can Send
// messages (config reloads) into the running UI.
func Run(m *Model, onStart func(*tea.Program)) error {
	opts := []tea.ProgramOption{}
	if !m.cfg.DisableAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(m, opts...)
	if onStart != nil {
		onStart(p)
	}
	_, err := p.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForSnapshot(), m.loadHome())
}

func (m *Model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-m.snapshots
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func (m *Model) loadHome() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		playlists, err := client.ListPlaylists(ctx)
		if err != nil {
			return errMsg{err}
		}
		popular, err := client.PopularSongs(ctx)
		if err != nil {
			return errMsg{err}
		}
		return homeDataMsg{playlists: playlists, popular: popular}
	}
}

func (m *Model) openPlaylist(p structures.Playlist) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		full, err := client.GetPlaylist(ctx, p.ID)
		if err != nil {
			return errMsg{err}
		}
		return trackListMsg{title: full.Title, tracks: full.Tracks}
	}
}

func (m *Model) runSearch(query string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		results, err := client.Search(ctx, query)
		if err != nil {
			return errMsg{err}
		}
		return searchResultsMsg{results}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case snapshotMsg:
		m.snap = player.Snapshot(msg)
		return m, m.waitForSnapshot()

	case homeDataMsg:
		m.playlists = msg.playlists
		m.popular = msg.popular
		return m, nil

	case trackListMsg:
		m.listTitle = msg.title
		m.tracks = msg.tracks
		m.view = viewTracks
		m.cursor = 0
		return m, nil

	case searchResultsMsg:
		m.results = msg.results
		m.cursor = 0
		return m, nil

	case errMsg:
		logger.Error("UI request failed: %v", msg.err)
		m.err = msg.err
		return m, nil

	case ConfigReloadedMsg:
		m.cfg = msg.Config
		m.coord.SetRestartThreshold(time.Duration(msg.Config.RestartThresholdSeconds * float64(time.Second)))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	var body string
	switch m.view {
	case viewHome:
		body = m.renderHome()
	case viewTracks:
		body = m.renderTrackList(m.listTitle, m.tracks)
	case viewSearch:
		body = m.renderSearch()
	case viewQueue:
		body = m.renderQueue()
	}

	bar := m.renderPlayerBar()
	bodyHeight := m.height - lipgloss.Height(bar)
	body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, body, bar)
}

func (m *Model) statusLine() string {
	if m.err != nil {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f7768e")).
			Render(fmt.Sprintf("couldn't complete request: %v", m.err))
	}
	if m.snap.Err != nil {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f7768e")).
			Render("couldn't play this track - pick another one")
	}
	return ""
}
