// Package inference defines the external model collaborators the
// verification core consumes: frame acquisition, badge region detection,
// text recognition, and face extraction. The core never runs a model
// itself; everything here is an interface over an external service.
package inference

import (
	"context"

	"facegate/internal/liveness"
)

// Landmarks holds the named 2-D points the core reads from a detected face.
// The underlying models emit many more points; only these three matter for
// the yaw estimate, the rest stay opaque.
type Landmarks struct {
	NoseTip       liveness.Point `json:"nose_tip"`
	LeftEyeOuter  liveness.Point `json:"left_eye_outer"`
	RightEyeOuter liveness.Point `json:"right_eye_outer"`
}

// Detection is one frame-level model result.
type Detection struct {
	Score      float64    `json:"score"`
	BBox       []float64  `json:"bbox"` // [x1, y1, x2, y2] in frame pixels
	Descriptor []float32  `json:"descriptor,omitempty"`
	Landmarks  *Landmarks `json:"landmarks,omitempty"`
}

// FrameSource provides the current visual frame on demand. Delivery cadence
// is only guaranteed to be "at least once per tick attempt".
type FrameSource interface {
	// Frame returns the current frame as encoded image bytes (JPEG/PNG).
	Frame(ctx context.Context) ([]byte, error)
}

// RegionDetector finds candidate badge regions in a frame.
type RegionDetector interface {
	DetectRegions(ctx context.Context, frame []byte) ([]Detection, error)
}

// TextRecognizer reads text from an image region. No output structure is
// guaranteed; reconciliation happens downstream.
type TextRecognizer interface {
	RecognizeText(ctx context.Context, region []byte) (string, error)
}

// FaceExtractor detects faces and returns their landmarks and descriptors.
type FaceExtractor interface {
	ExtractFaces(ctx context.Context, frame []byte) ([]Detection, error)
}
