package cmd

import (
	"context"
	"errors"
	"fmt"

	"facegate/internal/config"
	"facegate/internal/facematch"
	"facegate/internal/identity"
	"facegate/internal/inference"
	"facegate/internal/liveness"
	"facegate/internal/records"
	"facegate/internal/records/postgres"
	"facegate/internal/verifier"
)

// openRecordStore connects to PostgreSQL, applies migrations, and returns
// the pool with its record store. The caller owns closing the pool.
func openRecordStore(ctx context.Context, cfg *config.Config) (*postgres.Pool, *postgres.RecordStore, error) {
	if cfg.Database.URL == "" {
		return nil, nil, errors.New("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return pool, postgres.NewRecordStore(pool), nil
}

// buildRecognizer picks the text recognizer named by OCR_PROVIDER.
func buildRecognizer(ctx context.Context, cfg *config.Config, model *inference.ModelClient) (inference.TextRecognizer, error) {
	switch cfg.Model.OCRProvider {
	case "", "model":
		return model, nil
	case "openai":
		if cfg.OpenAI.Token == "" {
			return nil, errors.New("OPENAI_TOKEN is required for the openai OCR provider")
		}
		return inference.NewOpenAIRecognizer(cfg.OpenAI.Token), nil
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, errors.New("GEMINI_API_KEY is required for the gemini OCR provider")
		}
		return inference.NewGeminiRecognizer(ctx, cfg.Gemini.APIKey)
	default:
		return nil, fmt.Errorf("unknown OCR provider %q", cfg.Model.OCRProvider)
	}
}

// tuningFromConfig maps the threshold configuration onto decision tuning.
func tuningFromConfig(t config.ThresholdsConfig) verifier.Tuning {
	return verifier.Tuning{
		Liveness: liveness.Config{
			Gain:      t.Liveness.Gain,
			Threshold: t.Liveness.YawThreshold,
			InvertYaw: t.Liveness.InvertYaw,
		},
		Batch: facematch.BatchConfig{
			MaxSamples:        t.Batch.MaxSamples,
			Timeout:           t.Batch.BatchTimeout(),
			DistanceThreshold: t.Batch.DistanceThreshold,
			RequiredGood:      t.Batch.RequiredGood,
		},
		MaxFaceAttempts: t.Session.MaxFaceAttempts,
		MismatchCheck:   t.Session.MismatchCheck,
	}
}

// buildVerifierDeps wires the inference clients and record views one
// orchestrator consumes. The snapshot is shared across sessions; a fresh
// one is loaded here.
func buildVerifierDeps(ctx context.Context, cfg *config.Config, store records.Store) (verifier.Deps, error) {
	if cfg.Camera.SnapshotURL == "" {
		return verifier.Deps{}, errors.New("CAMERA_URL environment variable is required")
	}

	model := inference.NewModelClient(cfg.Model.URL)
	recognizer, err := buildRecognizer(ctx, cfg, model)
	if err != nil {
		return verifier.Deps{}, err
	}

	snapshot := records.NewSnapshot(nil)
	if err := snapshot.Refresh(ctx, store); err != nil {
		return verifier.Deps{}, fmt.Errorf("failed to load identifier snapshot: %w", err)
	}

	deps := verifier.Deps{
		Frames:   inference.NewHTTPFrameSource(cfg.Camera.SnapshotURL),
		Regions:  model,
		Text:     recognizer,
		Faces:    model,
		Store:    store,
		Snapshot: snapshot,
	}

	if cfg.Thresholds.Session.MismatchCheck {
		index := records.NewNearestIndex()
		all, err := allRecords(ctx, store)
		if err != nil {
			return verifier.Deps{}, err
		}
		if err := index.BuildFromRecords(all); err != nil {
			return verifier.Deps{}, fmt.Errorf("failed to build nearest-enrollee index: %w", err)
		}
		deps.Index = index
	}

	return deps, nil
}

// recordLister is implemented by stores that can enumerate full records.
type recordLister interface {
	All(ctx context.Context) ([]identity.Record, error)
}

// allRecords loads every record with descriptors from the store.
func allRecords(ctx context.Context, store records.Store) ([]identity.Record, error) {
	lister, ok := store.(recordLister)
	if !ok {
		return nil, errors.New("record store cannot enumerate full records")
	}
	return lister.All(ctx)
}
