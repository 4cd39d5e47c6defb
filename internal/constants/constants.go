// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Image processing constants
const (
	// MaxOCRImageSize is the maximum dimension (width or height) sent to
	// vision OCR providers; badge text survives 800px easily
	MaxOCRImageSize = 800

	// MinRegionScore is the minimum detector confidence for a badge
	// region to be worth recognizing
	MinRegionScore = 0.4
)

// Event channel constants
const (
	// EventChannelBuffer is the buffer size for session event channels
	EventChannelBuffer = 100
)

// Handler constants
const (
	// DefaultRecordPageSize is the page size for the records listing endpoint
	DefaultRecordPageSize = 100

	// DefaultNearestLimit is the default number of nearest-enrollee results
	DefaultNearestLimit = 5
)
