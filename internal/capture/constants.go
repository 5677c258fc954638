package capture

import "time"

// Capture constants
const (
	// Hamming distance at or below which two perceptual hashes count as the same frame
	MaxHashDistance = 2

	// Pause between retakes while waiting for the page to settle
	DefaultRetakeInterval = 500 * time.Millisecond
)
