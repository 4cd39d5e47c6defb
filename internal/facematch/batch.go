package facematch

import (
	"sort"
	"time"
)

// BatchConfig tunes the rolling-batch acceptance rule.
type BatchConfig struct {
	// MaxSamples closes the batch once this many samples are collected.
	MaxSamples int
	// Timeout closes the batch this long after it opened, whether or not
	// MaxSamples was reached.
	Timeout time.Duration
	// DistanceThreshold is the per-sample "good" cutoff and the median cutoff.
	DistanceThreshold float64
	// RequiredGood is the minimum number of samples at or below the
	// threshold for the batch to pass.
	RequiredGood int
}

// DefaultBatchConfig returns the production acceptance tuning.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxSamples:        12,
		Timeout:           2200 * time.Millisecond,
		DistanceThreshold: 0.60,
		RequiredGood:      6,
	}
}

// Verdict is the outcome of one completed batch.
type Verdict struct {
	Matched    bool
	Similarity float64 // 1 - median distance, only meaningful when Matched
	Confidence float64 // detection score of the last contributing frame
	Reason     string  // set when not matched
}

// Batch accumulates per-frame distance samples for one matching attempt.
// A single frame is noisy (pose, lighting, motion blur); the decision is
// taken over the whole batch. Not safe for concurrent use; the scan
// scheduler serializes ticks.
type Batch struct {
	cfg      BatchConfig
	started  time.Time
	samples  []float64
	lastConf float64
}

// NewBatch opens a batch at the given instant.
func NewBatch(cfg BatchConfig, now time.Time) *Batch {
	return &Batch{
		cfg:     cfg,
		started: now,
		samples: make([]float64, 0, cfg.MaxSamples),
	}
}

// Add offers one distance sample with its detection confidence. Samples
// outside (0, MaxDistance) are discarded as sensor noise and do not count.
// It reports whether the sample was accepted.
func (b *Batch) Add(distance, confidence float64) bool {
	if distance <= 0 || distance >= MaxDistance {
		return false
	}
	if len(b.samples) >= b.cfg.MaxSamples {
		return false
	}
	b.samples = append(b.samples, distance)
	b.lastConf = confidence
	return true
}

// Size returns the number of collected samples.
func (b *Batch) Size() int {
	return len(b.samples)
}

// Started returns the instant the batch opened.
func (b *Batch) Started() time.Time {
	return b.started
}

// Done reports whether the batch should close: sample cap reached or the
// wall-clock timeout elapsed, whichever comes first.
func (b *Batch) Done(now time.Time) bool {
	if len(b.samples) >= b.cfg.MaxSamples {
		return true
	}
	return now.Sub(b.started) >= b.cfg.Timeout
}

// Decide closes the batch and produces its verdict. The batch passes iff
// the median distance is at or below the threshold AND at least
// RequiredGood samples are at or below it. The two conditions together
// reject both a single lucky frame and a borderline-but-consistent run.
// A batch with no samples fails.
func (b *Batch) Decide() Verdict {
	if len(b.samples) == 0 {
		return Verdict{Reason: "no usable samples collected"}
	}

	sorted := make([]float64, len(b.samples))
	copy(sorted, b.samples)
	sort.Float64s(sorted)

	median := sorted[len(sorted)/2]

	good := 0
	for _, d := range sorted {
		if d <= b.cfg.DistanceThreshold {
			good++
		}
	}

	if median > b.cfg.DistanceThreshold {
		return Verdict{Reason: "median distance above threshold"}
	}
	if good < b.cfg.RequiredGood {
		return Verdict{Reason: "too few good samples"}
	}

	return Verdict{
		Matched:    true,
		Similarity: DisplaySimilarity(median),
		Confidence: b.lastConf,
	}
}
