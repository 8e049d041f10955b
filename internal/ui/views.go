package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/cadence-music/cadence/internal/structures"
)

func (m *Model) titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.cfg.Theme.Selected)).
		Bold(true)
}

func (m *Model) rowStyle(selected bool) lipgloss.Style {
	s := lipgloss.NewStyle().Foreground(lipgloss.Color(m.cfg.Theme.Foreground))
	if selected {
		s = s.Foreground(lipgloss.Color(m.cfg.Theme.Selected)).Bold(true)
	}
	return s
}

func (m *Model) renderHome() string {
	var b strings.Builder
	b.WriteString(m.titleStyle().Render("Your Playlists"))
	b.WriteString("\n")
	if len(m.playlists) == 0 {
		b.WriteString("  (no playlists yet)\n")
	}
	for i, p := range m.playlists {
		cursor := "  "
		if m.cursor == i {
			cursor = "> "
		}
		row := fmt.Sprintf("%s%s (%d tracks)", cursor, p.Title, p.TrackCount)
		b.WriteString(m.rowStyle(m.cursor == i).Render(row))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.titleStyle().Render("Popular Right Now"))
	b.WriteString("\n")
	for i, t := range m.popular {
		idx := len(m.playlists) + i
		b.WriteString(m.renderTrackRow(t, m.cursor == idx, m.isCurrent(t, -1)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderTrackList(title string, tracks []structures.Track) string {
	var b strings.Builder
	b.WriteString(m.titleStyle().Render(title))
	b.WriteString("\n")
	if len(tracks) == 0 {
		b.WriteString("  (empty)\n")
	}
	for i, t := range tracks {
		b.WriteString(m.renderTrackRow(t, m.cursor == i, m.isCurrent(t, -1)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderSearch() string {
	var b strings.Builder
	prompt := "Search: " + m.searchInput
	if m.typing {
		prompt += "▌"
	}
	b.WriteString(m.titleStyle().Render(prompt))
	b.WriteString("\n\n")

	if m.results == nil {
		b.WriteString("  type a query and press enter\n")
		return b.String()
	}

	if len(m.results.Artists) > 0 {
		b.WriteString(m.titleStyle().Render("Artists"))
		b.WriteString("\n")
		for _, a := range m.results.Artists {
			b.WriteString("    " + a.Name + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(m.titleStyle().Render("Songs"))
	b.WriteString("\n")
	if len(m.results.Tracks) == 0 {
		b.WriteString("  (no matches)\n")
	}
	for i, t := range m.results.Tracks {
		b.WriteString(m.renderTrackRow(t, m.cursor == i, m.isCurrent(t, -1)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderQueue() string {
	var b strings.Builder
	b.WriteString(m.titleStyle().Render(fmt.Sprintf("Queue (%d)", len(m.snap.Queue))))
	b.WriteString("\n")
	if len(m.snap.Queue) == 0 {
		b.WriteString("  (queue is empty)\n")
	}
	for i, t := range m.snap.Queue {
		b.WriteString(m.renderTrackRow(t, m.cursor == i, i == m.snap.QueueIndex))
		b.WriteString("\n")
	}
	return b.String()
}

// isCurrent reports whether t is the playing track. queueIndex restricts the
// match to one queue position; -1 matches by id alone.
func (m *Model) isCurrent(t structures.Track, queueIndex int) bool {
	if m.snap.CurrentTrack == nil || m.snap.CurrentTrack.ID != t.ID {
		return false
	}
	return queueIndex < 0 || queueIndex == m.snap.QueueIndex
}

func (m *Model) renderTrackRow(t structures.Track, selected, playing bool) string {
	cursor := "  "
	if selected {
		cursor = "> "
	}
	marker := "  "
	if playing {
		marker = "♪ "
	}

	duration := fmt.Sprintf("%d:%02d", t.Duration/60, t.Duration%60)
	label := fmt.Sprintf("%s%s%s - %s", cursor, marker, t.Title, t.ArtistNames())
	maxLabel := m.width - runewidth.StringWidth(duration) - 2
	if maxLabel > 0 && runewidth.StringWidth(label) > maxLabel {
		label = runewidth.Truncate(label, maxLabel-1, "…")
	}

	style := m.rowStyle(selected)
	if playing {
		style = style.Foreground(lipgloss.Color(m.cfg.Theme.Playing))
	}
	return style.Render(fmt.Sprintf("%s  %s", label, duration))
}
