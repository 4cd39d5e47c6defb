// Package verifier composes the identifier stage and the face stage into
// one verification session: a finite state machine driven by periodic scan
// ticks, ending in a single accept or reject verdict.
package verifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"facegate/internal/constants"
	"facegate/internal/facematch"
	"facegate/internal/identity"
	"facegate/internal/inference"
	"facegate/internal/liveness"
	"facegate/internal/logger"
	"facegate/internal/reconcile"
	"facegate/internal/records"
)

// State is one orchestrator state.
type State string

// Session states. SUCCESS and the FAILED_* states are terminal; only an
// explicit reset leaves them.
const (
	StateScanningID     State = "SCANNING_ID"
	StateVerifyingFace  State = "VERIFYING_FACE"
	StateSuccess        State = "SUCCESS"
	StateFailedID       State = "FAILED_ID"
	StateFailedFace     State = "FAILED_FACE"
	StateFailedMismatch State = "FAILED_MISMATCH"
)

// Terminal reports whether the state requires an external reset to continue.
func (s State) Terminal() bool {
	switch s {
	case StateSuccess, StateFailedID, StateFailedFace, StateFailedMismatch:
		return true
	}
	return false
}

// Result is the final verdict of a successful session.
type Result struct {
	Identifier string    `json:"identifier"`
	Name       string    `json:"name"`
	Similarity float64   `json:"similarity"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// Status is a point-in-time snapshot of a session, safe to serve to clients.
type Status struct {
	State        State   `json:"state"`
	Identifier   string  `json:"identifier,omitempty"`
	Name         string  `json:"name,omitempty"`
	Instruction  string  `json:"instruction,omitempty"`
	FaceAttempts int     `json:"face_attempts"`
	BatchSamples int     `json:"batch_samples"`
	Result       *Result `json:"result,omitempty"`
}

// Tuning groups the orchestrator's decision parameters. Zero values fall
// back to production defaults.
type Tuning struct {
	Liveness        liveness.Config
	Batch           facematch.BatchConfig
	MaxFaceAttempts int
	// MismatchCheck enables the nearest-enrollee cross-check after a
	// passing batch. Off by default; it rejects a passing match when the
	// live face is closer to a different enrolled identity.
	MismatchCheck bool
}

// DefaultTuning returns the production decision parameters.
func DefaultTuning() Tuning {
	return Tuning{
		Liveness:        liveness.DefaultConfig(),
		Batch:           facematch.DefaultBatchConfig(),
		MaxFaceAttempts: 5,
	}
}

func (t Tuning) withDefaults() Tuning {
	d := DefaultTuning()
	if t.Liveness.Gain == 0 {
		t.Liveness.Gain = d.Liveness.Gain
	}
	if t.Liveness.Threshold == 0 {
		t.Liveness.Threshold = d.Liveness.Threshold
	}
	if t.Batch.MaxSamples == 0 {
		t.Batch = d.Batch
	}
	if t.MaxFaceAttempts == 0 {
		t.MaxFaceAttempts = d.MaxFaceAttempts
	}
	return t
}

// Deps are the external collaborators one session consumes. Frames, Regions,
// Text, and Faces are inference services; Store and Snapshot are read-only
// record views. Index is optional and only consulted when MismatchCheck is
// enabled.
type Deps struct {
	Frames   inference.FrameSource
	Regions  inference.RegionDetector
	Text     inference.TextRecognizer
	Faces    inference.FaceExtractor
	Store    records.Store
	Snapshot *records.Snapshot
	Index    *records.NearestIndex
	Clock    func() time.Time // defaults to time.Now
}

// Orchestrator runs one verification session. All state mutations happen
// under the session lock; inference calls run outside it, and their results
// are applied only when the session epoch has not moved on in the meantime.
type Orchestrator struct {
	Broadcaster

	deps   Deps
	tuning Tuning
	log    zerolog.Logger

	mu           sync.Mutex
	state        State
	epoch        uint64
	record       *identity.Record
	gate         *liveness.Gate
	batch        *facematch.Batch
	attempts     int
	lastBatchEnd time.Time
	result       *Result
}

// New creates an orchestrator in SCANNING_ID.
func New(deps Deps, tuning Tuning) (*Orchestrator, error) {
	if deps.Frames == nil || deps.Regions == nil || deps.Text == nil || deps.Faces == nil {
		return nil, errors.New("all inference collaborators are required")
	}
	if deps.Store == nil || deps.Snapshot == nil {
		return nil, errors.New("record store and snapshot are required")
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	tuning = tuning.withDefaults()

	o := &Orchestrator{
		deps:   deps,
		tuning: tuning,
		log:    logger.With("verifier"),
		state:  StateScanningID,
		gate:   liveness.NewGate(tuning.Liveness),
	}
	return o, nil
}

func (o *Orchestrator) lock()   { o.mu.Lock() }
func (o *Orchestrator) unlock() { o.mu.Unlock() }

// State returns the current session state.
func (o *Orchestrator) State() State {
	o.lock()
	defer o.unlock()
	return o.state
}

// Result returns the final verdict, or nil before SUCCESS.
func (o *Orchestrator) Result() *Result {
	o.lock()
	defer o.unlock()
	return o.result
}

// Status returns a snapshot of the session for presentation.
func (o *Orchestrator) Status() Status {
	o.lock()
	defer o.unlock()

	st := Status{
		State:        o.state,
		FaceAttempts: o.attempts,
		Result:       o.result,
	}
	if o.record != nil {
		st.Identifier = identity.Display(o.record.Identifier)
		st.Name = o.record.Name
	}
	if o.state == StateVerifyingFace {
		st.Instruction = o.gate.Pending()
		if o.batch != nil {
			st.BatchSamples = o.batch.Size()
		}
	}
	return st
}

// Reset clears all session state back to SCANNING_ID. Valid from every
// state and idempotent; in-flight tick results from before the reset are
// discarded when they arrive.
func (o *Orchestrator) Reset() {
	o.lock()
	defer o.unlock()
	o.epoch++
	o.state = StateScanningID
	o.record = nil
	o.gate.Reset()
	o.batch = nil
	o.attempts = 0
	o.lastBatchEnd = time.Time{}
	o.result = nil
	o.SendEvent(Event{Type: EventState, Data: StateScanningID})
}

// transition moves to a new state and bumps the epoch so superseded ticks
// cannot apply. Caller holds the lock.
func (o *Orchestrator) transition(s State) {
	o.epoch++
	o.state = s
	o.SendEvent(Event{Type: EventState, Data: s})
	o.log.Info().Str("state", string(s)).Msg("session transition")
}

// TickID performs one identifier-stage tick: grab a frame, detect badge
// regions, recognize text from the best one, reconcile it against the known
// identifier set, and look the match up in the record store. A tick that
// finds nothing usable is a no-op; the next tick tries again.
func (o *Orchestrator) TickID(ctx context.Context) error {
	o.lock()
	if o.state != StateScanningID {
		o.unlock()
		return nil
	}
	epoch := o.epoch
	known := o.deps.Snapshot.Identifiers()
	o.unlock()

	frame, err := o.deps.Frames.Frame(ctx)
	if err != nil {
		return fmt.Errorf("acquire frame: %w", err)
	}

	dets, err := o.deps.Regions.DetectRegions(ctx, frame)
	if err != nil {
		return fmt.Errorf("detect regions: %w", err)
	}

	best := bestDetection(dets)
	if best == nil || best.Score < constants.MinRegionScore {
		return nil
	}

	region, err := inference.CropRegion(frame, best.BBox)
	if err != nil {
		return fmt.Errorf("crop region: %w", err)
	}

	text, err := o.deps.Text.RecognizeText(ctx, region)
	if err != nil {
		return fmt.Errorf("recognize text: %w", err)
	}

	matched, ok := reconcile.Match(text, known)
	var rec *identity.Record
	var unknown string
	if ok {
		rec, err = o.deps.Store.Get(ctx, matched)
		if errors.Is(err, records.ErrNotFound) {
			// Snapshot ahead of the store; treat as unknown.
			unknown = matched
			err = nil
		} else if err != nil {
			return fmt.Errorf("load record: %w", err)
		}
	} else {
		// Text that resolves to a well-formed identifier outside the
		// known set is a presented-but-unenrolled badge, a terminal
		// failure rather than scan noise.
		unknown = unknownCandidate(text)
		if unknown == "" {
			return nil
		}
	}

	o.lock()
	defer o.unlock()
	if o.epoch != epoch || o.state != StateScanningID {
		// A reset or a faster tick got here first.
		return nil
	}

	if rec != nil {
		o.record = rec
		o.gate.Reset()
		o.batch = nil
		o.attempts = 0
		o.lastBatchEnd = time.Time{}
		o.transition(StateVerifyingFace)
		o.SendEvent(Event{
			Type:    EventInstruction,
			Message: o.gate.Pending(),
			Data:    identity.Display(rec.Identifier),
		})
		return nil
	}

	o.log.Warn().Str("identifier", unknown).Msg("identifier not enrolled")
	o.transition(StateFailedID)
	return nil
}

// unknownCandidate scans recognized text for a well-formed canonical
// identifier. Used only to distinguish "unenrolled badge" from garbage.
func unknownCandidate(text string) string {
	digits := reconcile.Digits(text)
	for i := 0; i+identity.CanonicalLength <= len(digits); i++ {
		window := digits[i : i+identity.CanonicalLength]
		if identity.Valid(window) {
			return window
		}
	}
	return ""
}

// faceOverlapIoU is the box overlap above which two face detections are
// collapsed into one.
const faceOverlapIoU = 0.5

// dedupeFaces collapses detections whose boxes overlap heavily, keeping the
// higher-scoring one.
func dedupeFaces(dets []inference.Detection) []inference.Detection {
	var out []inference.Detection
	for _, d := range dets {
		merged := false
		for i := range out {
			if facematch.ComputeIoU(d.BBox, out[i].BBox) > faceOverlapIoU {
				if d.Score > out[i].Score {
					out[i] = d
				}
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, d)
		}
	}
	return out
}

// bestDetection returns the highest-scoring detection, or nil.
func bestDetection(dets []inference.Detection) *inference.Detection {
	var best *inference.Detection
	for i := range dets {
		if best == nil || dets[i].Score > best.Score {
			best = &dets[i]
		}
	}
	return best
}

// TickFace performs one face-stage tick: extract faces from the current
// frame, feed the liveness gate, and once it has passed, accumulate
// distance samples into the current batch. A completed batch either
// finishes the session or burns one attempt.
func (o *Orchestrator) TickFace(ctx context.Context) error {
	o.lock()
	if o.state != StateVerifyingFace {
		o.unlock()
		return nil
	}
	epoch := o.epoch
	o.unlock()

	frame, err := o.deps.Frames.Frame(ctx)
	if err != nil {
		return fmt.Errorf("acquire frame: %w", err)
	}

	faces, err := o.deps.Faces.ExtractFaces(ctx, frame)
	if err != nil {
		return fmt.Errorf("extract faces: %w", err)
	}

	o.lock()
	defer o.unlock()
	if o.epoch != epoch || o.state != StateVerifyingFace {
		return nil
	}

	// Exactly one face must be in frame; zero or several are ambiguous
	// and contribute nothing. Heavily overlapping detections are one face
	// reported twice, not two people.
	faces = dedupeFaces(faces)
	if len(faces) != 1 {
		if len(faces) > 1 {
			o.SendEvent(Event{Type: EventInstruction, Message: "exactly one face must be visible"})
		}
		return nil
	}
	face := faces[0]

	if face.Landmarks != nil {
		o.gate.Observe(face.Landmarks.NoseTip, face.Landmarks.LeftEyeOuter, face.Landmarks.RightEyeOuter)
	}
	if !o.gate.Passed() {
		o.SendEvent(Event{Type: EventInstruction, Message: o.gate.Pending()})
		return nil
	}

	now := o.deps.Clock()

	if o.batch == nil {
		// Throttle: do not open attempts faster than the batch window.
		if !o.lastBatchEnd.IsZero() && now.Sub(o.lastBatchEnd) < o.tuning.Batch.Timeout {
			return nil
		}
		o.batch = facematch.NewBatch(o.tuning.Batch, now)
	}

	d := facematch.MinDistance(face.Descriptor, o.record.Descriptors)
	o.batch.Add(d, face.Score)
	o.SendEvent(Event{
		Type: EventProgress,
		Data: map[string]int{"samples": o.batch.Size(), "attempts": o.attempts},
	})

	if !o.batch.Done(now) {
		return nil
	}

	verdict := o.batch.Decide()
	o.batch = nil
	o.lastBatchEnd = now

	if !verdict.Matched {
		o.attempts++
		o.log.Info().Str("reason", verdict.Reason).Int("attempts", o.attempts).Msg("matching attempt failed")
		if o.attempts >= o.tuning.MaxFaceAttempts {
			o.transition(StateFailedFace)
		}
		return nil
	}

	if o.tuning.MismatchCheck && o.deps.Index != nil {
		if closest, ok := o.deps.Index.ClosestIdentifier(face.Descriptor); ok && closest != o.record.Identifier {
			o.log.Warn().
				Str("identifier", o.record.Identifier).
				Str("closest", closest).
				Msg("live face closer to a different enrolled identity")
			o.transition(StateFailedMismatch)
			return nil
		}
	}

	o.result = &Result{
		Identifier: o.record.Identifier,
		Name:       o.record.Name,
		Similarity: verdict.Similarity,
		Confidence: verdict.Confidence,
		Timestamp:  now,
	}
	o.transition(StateSuccess)
	o.SendEvent(Event{Type: EventVerdict, Data: o.result})
	return nil
}

// Tick dispatches to the stage the session is currently in. Terminal states
// make it a no-op.
func (o *Orchestrator) Tick(ctx context.Context) error {
	switch o.State() {
	case StateScanningID:
		return o.TickID(ctx)
	case StateVerifyingFace:
		return o.TickFace(ctx)
	}
	return nil
}
