// Package liveness implements the head-turn challenge that must pass before
// any biometric comparison is attempted. A printed photo cannot turn left
// and right, so requiring both directions blocks static spoofs.
package liveness

import "math"

const (
	// DefaultGain scales the normalized nose/eye asymmetry into the
	// [-100, 100] yaw range.
	DefaultGain = 250.0

	// DefaultThreshold is the absolute yaw at which a turn counts as observed.
	DefaultThreshold = 70.0

	// yawLimit clamps the yaw estimate.
	yawLimit = 100.0

	// minEyeDist guards against degenerate landmark sets; below one pixel
	// of eye separation the yaw estimate is meaningless.
	minEyeDist = 1.0
)

// Point is a 2-D landmark coordinate in frame pixels.
type Point struct {
	X float64
	Y float64
}

func dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Config tunes the gate. The yaw sign convention is empirically tied to
// camera mirroring, so InvertYaw flips it rather than hard-coding one
// orientation.
type Config struct {
	Gain      float64
	Threshold float64
	InvertYaw bool
}

// DefaultConfig returns the gate tuning used in production.
func DefaultConfig() Config {
	return Config{Gain: DefaultGain, Threshold: DefaultThreshold}
}

// EstimateYaw derives a yaw estimate in [-100, 100] from the nose tip and
// the two eye outer corners. Positive values mean a turn toward the
// left-observed direction under the default sign convention. A degenerate
// landmark set (eyes closer than one pixel) yields 0.
func EstimateYaw(nose, leftEyeOuter, rightEyeOuter Point, gain float64) float64 {
	eyeDist := dist(leftEyeOuter, rightEyeOuter)
	if eyeDist < minEyeDist {
		return 0
	}

	dLeft := dist(nose, leftEyeOuter)
	dRight := dist(nose, rightEyeOuter)

	yaw := (dLeft - dRight) / eyeDist * gain
	return math.Max(-yawLimit, math.Min(yawLimit, yaw))
}

// Gate tracks the head-turn challenge for one verification stage. It is not
// safe for concurrent use; the scan scheduler serializes ticks.
type Gate struct {
	cfg Config

	leftObserved  bool
	rightObserved bool
}

// NewGate creates a gate with the given tuning.
func NewGate(cfg Config) *Gate {
	if cfg.Gain == 0 {
		cfg.Gain = DefaultGain
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	return &Gate{cfg: cfg}
}

// Observe feeds one frame's landmarks into the gate and returns the yaw
// estimate. Once both turns are observed the gate stays passed until Reset.
func (g *Gate) Observe(nose, leftEyeOuter, rightEyeOuter Point) float64 {
	yaw := EstimateYaw(nose, leftEyeOuter, rightEyeOuter, g.cfg.Gain)
	if g.cfg.InvertYaw {
		yaw = -yaw
	}

	if yaw >= g.cfg.Threshold {
		g.leftObserved = true
	}
	if yaw <= -g.cfg.Threshold {
		g.rightObserved = true
	}
	return yaw
}

// Passed reports whether both turns have been observed.
func (g *Gate) Passed() bool {
	return g.leftObserved && g.rightObserved
}

// LeftObserved reports whether the left turn has been observed.
func (g *Gate) LeftObserved() bool { return g.leftObserved }

// RightObserved reports whether the right turn has been observed.
func (g *Gate) RightObserved() bool { return g.rightObserved }

// Pending names the turn still required, or "" once the gate has passed.
// The face stage surfaces this to the subject as the current instruction.
func (g *Gate) Pending() string {
	switch {
	case !g.leftObserved && !g.rightObserved:
		return "turn left and right"
	case !g.leftObserved:
		return "turn left"
	case !g.rightObserved:
		return "turn right"
	default:
		return ""
	}
}

// Reset clears both observations. Called at stage start and on session reset.
func (g *Gate) Reset() {
	g.leftObserved = false
	g.rightObserved = false
}
