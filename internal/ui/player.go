package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// renderPlayerBar draws the persistent mini player: track line, progress
// bar, and transport state. It renders purely from the latest snapshot.
func (m *Model) renderPlayerBar() string {
	theme := m.cfg.Theme
	width := m.width
	if width <= 0 {
		width = 80
	}

	border := lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Border)).
		Render(strings.Repeat("─", width))

	var info string
	if m.snap.CurrentTrack != nil {
		t := m.snap.CurrentTrack
		icon := "⏸"
		if m.snap.IsPlaying {
			icon = "▶"
		}
		line := fmt.Sprintf("%s %s - %s", icon, t.Title, t.ArtistNames())
		queuePos := ""
		if n := len(m.snap.Queue); n > 1 {
			queuePos = fmt.Sprintf("  [%d/%d]", m.snap.QueueIndex+1, n)
		}
		maxInfo := width - runewidth.StringWidth(queuePos)
		if runewidth.StringWidth(line) > maxInfo {
			line = runewidth.Truncate(line, maxInfo-1, "…")
		}
		info = lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Playing)).
			Bold(true).
			Render(line) + queuePos
	} else {
		info = lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Foreground)).
			Faint(true).
			Render("nothing playing")
	}

	timeline := fmt.Sprintf("%s / %s", formatDuration(m.snap.CurrentTime), formatDuration(m.snap.Duration))
	volume := fmt.Sprintf("vol %3.0f%%", m.snap.Volume*100)
	barWidth := width - runewidth.StringWidth(timeline) - runewidth.StringWidth(volume) - 4
	progress := renderProgress(barWidth, m.snap.CurrentTime, m.snap.Duration, theme.ProgressBar, theme.ProgressBarFill)
	controls := fmt.Sprintf("%s  %s  %s", timeline, progress, volume)

	lines := []string{border, info, controls}
	if status := m.statusLine(); status != "" {
		lines = append(lines, status)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderProgress(width int, pos, total time.Duration, bg, fill string) string {
	if width < 4 {
		return ""
	}
	filled := 0
	if total > 0 {
		filled = int(float64(width) * float64(pos) / float64(total))
		if filled > width {
			filled = width
		}
	}
	bar := lipgloss.NewStyle().Foreground(lipgloss.Color(fill)).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(lipgloss.Color(bg)).Render(strings.Repeat("░", width-filled))
	return bar
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
