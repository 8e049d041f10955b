package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/cadence-music/cadence/internal/structures"
)

// Load loads the configuration from a TOML file.
func Load(path string) (*structures.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to a TOML file.
func Save(cfg *structures.Config, path string) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Default returns the default configuration.
func Default() *structures.Config {
	return &structures.Config{
		MaxCacheSize:            1024, // 1GB
		DefaultVolume:           0.7,
		SeekSeconds:             5,
		RestartThresholdSeconds: 3,
		Theme: structures.Theme{
			Foreground:      "#c0caf5",
			Selected:        "#7aa2f7",
			Playing:         "#9ece6a",
			Border:          "#3b4261",
			ProgressBar:     "#565f89",
			ProgressBarFill: "#7aa2f7",
		},
		KeyBindings: structures.KeyBindings{
			// Global controls
			PlayPause:    "space",
			Quit:         "ctrl+d",
			VolumeUp:     []string{"+", "="},
			VolumeDown:   []string{"-", "_"},
			SeekForward:  "right",
			SeekBackward: "left",
			NextTrack:    "n",
			PrevTrack:    "p",

			// Navigation
			MoveUp:   []string{"up", "k"},
			MoveDown: []string{"down", "j"},
			Select:   []string{"enter", "l"},
			Back:     []string{"esc", "backspace"},

			// Actions
			Search:      "f",
			Shuffle:     "s",
			AddToQueue:  "a",
			RemoveTrack: "r",
			QueueView:   "q",
			Home:        "h",
		},
	}
}
