package constants

import "time"

// Timing constants
const (
	PlayerUpdateInterval = 100 * time.Millisecond
)

// Audio player constants
const (
	VolumeStep  = 0.05 // 5% volume change per step
	SeekSeconds = 5    // default seconds to seek forward/backward
)

// File size constants
const (
	KB = 1024
	MB = 1024 * KB
	GB = 1024 * MB
)
