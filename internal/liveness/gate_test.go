package liveness

import (
	"math"
	"testing"
)

// yawGate drives a gate with raw yaw values by synthesizing landmarks that
// produce the requested estimate. Eyes are 100px apart, so a nose offset of
// yaw/gain*eyeDist along the eye axis reproduces the target value.
func observeYaw(t *testing.T, g *Gate, target float64) float64 {
	t.Helper()

	left := Point{X: 0, Y: 0}
	right := Point{X: 100, Y: 0}
	// dLeft - dRight = target/gain * eyeDist, with the nose on the eye axis:
	// nose at x => dLeft = x, dRight = 100 - x, dLeft - dRight = 2x - 100.
	x := (target/DefaultGain*100 + 100) / 2
	yaw := g.Observe(Point{X: x, Y: 0}, left, right)
	if math.Abs(yaw-target) > 0.5 {
		t.Fatalf("synthesized yaw %.2f, wanted %.2f", yaw, target)
	}
	return yaw
}

func TestEstimateYaw_Degenerate(t *testing.T) {
	// Eyes closer than a pixel yield yaw 0.
	yaw := EstimateYaw(Point{X: 50, Y: 50}, Point{X: 0, Y: 0}, Point{X: 0.5, Y: 0}, DefaultGain)
	if yaw != 0 {
		t.Errorf("degenerate landmarks yaw = %f, want 0", yaw)
	}
}

func TestEstimateYaw_Clamped(t *testing.T) {
	// An extreme nose offset clamps to [-100, 100].
	yaw := EstimateYaw(Point{X: 1000, Y: 0}, Point{X: 0, Y: 0}, Point{X: 100, Y: 0}, DefaultGain)
	if yaw != 100 {
		t.Errorf("yaw = %f, want clamp at 100", yaw)
	}

	yaw = EstimateYaw(Point{X: -1000, Y: 0}, Point{X: 0, Y: 0}, Point{X: 100, Y: 0}, DefaultGain)
	if yaw != -100 {
		t.Errorf("yaw = %f, want clamp at -100", yaw)
	}
}

func TestEstimateYaw_Symmetry(t *testing.T) {
	// A centered nose yields zero yaw.
	yaw := EstimateYaw(Point{X: 50, Y: 30}, Point{X: 0, Y: 0}, Point{X: 100, Y: 0}, DefaultGain)
	if math.Abs(yaw) > 1e-9 {
		t.Errorf("centered nose yaw = %f, want 0", yaw)
	}
}

func TestGate_BothTurnsPass(t *testing.T) {
	g := NewGate(DefaultConfig())

	// Sequence [80, 10, -75]: left observed, neutral, right observed.
	observeYaw(t, g, 80)
	if !g.LeftObserved() || g.RightObserved() {
		t.Fatal("after +80 only left should be observed")
	}

	observeYaw(t, g, 10)
	if g.Passed() {
		t.Fatal("gate must not pass after one direction")
	}

	observeYaw(t, g, -75)
	if !g.Passed() {
		t.Error("gate should pass after both directions observed")
	}
	if g.Pending() != "" {
		t.Errorf("pending = %q, want empty after pass", g.Pending())
	}
}

func TestGate_OneDirectionNeverPasses(t *testing.T) {
	g := NewGate(DefaultConfig())

	// Sequence [80, 10, 10] leaves the right turn outstanding.
	observeYaw(t, g, 80)
	observeYaw(t, g, 10)
	observeYaw(t, g, 10)

	if g.Passed() {
		t.Error("gate must not pass without the right turn")
	}
	if g.Pending() != "turn right" {
		t.Errorf("pending = %q, want %q", g.Pending(), "turn right")
	}
}

func TestGate_LatchesUntilReset(t *testing.T) {
	g := NewGate(DefaultConfig())
	observeYaw(t, g, 80)
	observeYaw(t, g, -80)

	// Neutral frames after passing must not clear the gate.
	observeYaw(t, g, 0)
	if !g.Passed() {
		t.Error("gate must stay passed until reset")
	}

	g.Reset()
	if g.Passed() || g.LeftObserved() || g.RightObserved() {
		t.Error("reset must clear all observations")
	}
	if g.Pending() != "turn left and right" {
		t.Errorf("pending after reset = %q", g.Pending())
	}
}

func TestGate_InvertYaw(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InvertYaw = true
	g := NewGate(cfg)

	// With the sign flipped, a raw +80 counts as the right turn.
	left := Point{X: 0, Y: 0}
	right := Point{X: 100, Y: 0}
	x := (80.0/DefaultGain*100 + 100) / 2
	g.Observe(Point{X: x, Y: 0}, left, right)

	if g.LeftObserved() {
		t.Error("inverted gate must not mark left for positive raw yaw")
	}
	if !g.RightObserved() {
		t.Error("inverted gate should mark right for positive raw yaw")
	}
}
