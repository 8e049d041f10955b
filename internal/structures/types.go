package structures

import (
	"strings"
)

// Artist identifies a contributing artist on a track.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AudioRef points at the audio bytes for a track. Exactly one of the two
// fields is set: URL for catalog tracks served by the API, LocalPath for
// not-yet-uploaded drafts previewed straight from disk.
type AudioRef struct {
	URL       string `json:"url,omitempty"`
	LocalPath string `json:"local_path,omitempty"`
}

// IsLocal reports whether the ref points at a local file instead of the API.
func (r AudioRef) IsLocal() bool {
	return r.LocalPath != ""
}

// IsZero reports whether the ref points at nothing playable.
func (r AudioRef) IsZero() bool {
	return r.URL == "" && r.LocalPath == ""
}

// Track represents a playable item. Immutable once constructed; Duration is
// the catalog's expected length in seconds and may be provisional until the
// engine reports the decoded duration.
type Track struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Duration int      `json:"duration"`
	CoverURL string   `json:"cover_url,omitempty"`
	Artists  []Artist `json:"artists"`
	Audio    AudioRef `json:"audio"`
}

// ArtistNames joins the artist names for display.
func (t Track) ArtistNames() string {
	if len(t.Artists) == 0 {
		return "Unknown Artist"
	}
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

// Record represents an album in the catalog.
type Record struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	CoverURL string   `json:"cover_url,omitempty"`
	Artists  []Artist `json:"artists"`
	Tracks   []Track  `json:"tracks,omitempty"`
}

// Playlist represents a user playlist.
type Playlist struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	CoverURL    string  `json:"cover_url,omitempty"`
	TrackCount  int     `json:"track_count"`
	Tracks      []Track `json:"tracks,omitempty"`
}

// ArtistPage is the full artist view: profile plus their catalog.
type ArtistPage struct {
	Artist    Artist   `json:"artist"`
	Bio       string   `json:"bio,omitempty"`
	AvatarURL string   `json:"avatar_url,omitempty"`
	Records   []Record `json:"records,omitempty"`
	TopTracks []Track  `json:"top_tracks,omitempty"`
}

// SearchResults groups the hits of one search query.
type SearchResults struct {
	Artists   []Artist   `json:"artists"`
	Records   []Record   `json:"records"`
	Tracks    []Track    `json:"tracks"`
	Playlists []Playlist `json:"playlists"`
}

// Config represents the application configuration.
type Config struct {
	Theme       Theme       `toml:"theme"`
	KeyBindings KeyBindings `toml:"key_bindings"`

	// Cache configuration
	MaxCacheSize int64 `toml:"max_cache_size"` // in MB

	// Player configuration
	DefaultVolume           float64 `toml:"default_volume"`
	SeekSeconds             int     `toml:"seek_seconds"`
	RestartThresholdSeconds float64 `toml:"restart_threshold_seconds"`

	// UI configuration
	DisableAltScreen bool `toml:"disable_alt_screen"`
}

// Theme represents the UI theme configuration.
type Theme struct {
	Foreground      string `toml:"foreground"`
	Selected        string `toml:"selected"`
	Playing         string `toml:"playing"`
	Border          string `toml:"border"`
	ProgressBar     string `toml:"progress_bar"`
	ProgressBarFill string `toml:"progress_bar_fill"`
}

// KeyBindings represents configurable keyboard shortcuts.
type KeyBindings struct {
	// Global controls
	PlayPause    string   `toml:"play_pause"`
	Quit         string   `toml:"quit"`
	VolumeUp     []string `toml:"volume_up"`
	VolumeDown   []string `toml:"volume_down"`
	SeekForward  string   `toml:"seek_forward"`
	SeekBackward string   `toml:"seek_backward"`
	NextTrack    string   `toml:"next_track"`
	PrevTrack    string   `toml:"prev_track"`

	// Navigation
	MoveUp   []string `toml:"move_up"`
	MoveDown []string `toml:"move_down"`
	Select   []string `toml:"select"`
	Back     []string `toml:"back"`

	// Actions
	Search      string `toml:"search"`
	Shuffle     string `toml:"shuffle"`
	AddToQueue  string `toml:"add_to_queue"`
	RemoveTrack string `toml:"remove_track"`
	QueueView   string `toml:"queue_view"`
	Home        string `toml:"home"`
}

// CacheEntry records one cached audio file.
type CacheEntry struct {
	TrackID  string
	FilePath string
	FileSize int64
}
