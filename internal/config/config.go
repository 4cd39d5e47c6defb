// Package config loads service configuration from the environment plus the
// embedded decision-tunable defaults.
package config

import (
	_ "embed"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed thresholds.yaml
var thresholdsYAML []byte

// Config is the full service configuration.
type Config struct {
	Camera     CameraConfig
	Model      ModelConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	Database   DatabaseConfig
	Registry   RegistryConfig
	Thresholds ThresholdsConfig
}

// CameraConfig points at the kiosk camera.
type CameraConfig struct {
	SnapshotURL string // HTTP endpoint returning the current frame
}

// ModelConfig points at the inference model server.
type ModelConfig struct {
	URL         string // defaults to http://localhost:8000
	OCRProvider string // "model" (default), "openai", or "gemini"
}

// OpenAIConfig holds the OpenAI vision OCR credentials.
type OpenAIConfig struct {
	Token string
}

// GeminiConfig holds the Gemini vision OCR credentials.
type GeminiConfig struct {
	APIKey string
}

// DatabaseConfig configures the PostgreSQL record store.
type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // default 25
	MaxIdleConns int    // default 5
}

// RegistryConfig points at the external registration system's database,
// read only by the `records sync` import.
type RegistryConfig struct {
	DSN string // MariaDB DSN (e.g. registry:registry@tcp(db:3306)/registry)
}

// ThresholdsConfig mirrors the embedded thresholds.yaml.
type ThresholdsConfig struct {
	Liveness LivenessThresholds `yaml:"liveness"`
	Batch    BatchThresholds    `yaml:"batch"`
	Session  SessionThresholds  `yaml:"session"`
}

// LivenessThresholds tunes the head-turn gate.
type LivenessThresholds struct {
	Gain         float64 `yaml:"gain"`
	YawThreshold float64 `yaml:"yaw_threshold"`
	InvertYaw    bool    `yaml:"invert_yaw"`
}

// BatchThresholds tunes the batch decision engine.
type BatchThresholds struct {
	MaxSamples        int     `yaml:"max_samples"`
	TimeoutMs         int     `yaml:"timeout_ms"`
	DistanceThreshold float64 `yaml:"distance_threshold"`
	RequiredGood      int     `yaml:"required_good"`
}

// SessionThresholds tunes the orchestrator and scan scheduler.
type SessionThresholds struct {
	MaxFaceAttempts int  `yaml:"max_face_attempts"`
	IDTickMs        int  `yaml:"id_tick_ms"`
	FaceTickMs      int  `yaml:"face_tick_ms"`
	MismatchCheck   bool `yaml:"mismatch_check"`
}

// BatchTimeout returns the batch timeout as a duration.
func (b BatchThresholds) BatchTimeout() time.Duration {
	return time.Duration(b.TimeoutMs) * time.Millisecond
}

// IDTick returns the identifier-stage tick interval.
func (s SessionThresholds) IDTick() time.Duration {
	return time.Duration(s.IDTickMs) * time.Millisecond
}

// FaceTick returns the face-stage tick interval.
func (s SessionThresholds) FaceTick() time.Duration {
	return time.Duration(s.FaceTickMs) * time.Millisecond
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envBool reads an environment variable as a boolean, defaulting when unset
// or invalid.
func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

// Load reads the configuration from the environment, layered over the
// embedded threshold defaults.
func Load() *Config {
	var thresholds ThresholdsConfig
	if err := yaml.Unmarshal(thresholdsYAML, &thresholds); err != nil {
		// Embedded file; a parse failure is a build defect.
		panic("failed to unmarshal embedded thresholds.yaml: " + err.Error())
	}

	// Env overrides allow field tuning without a rebuild.
	thresholds.Liveness.Gain = envFloat("LIVENESS_GAIN", thresholds.Liveness.Gain)
	thresholds.Liveness.YawThreshold = envFloat("LIVENESS_YAW_THRESHOLD", thresholds.Liveness.YawThreshold)
	thresholds.Liveness.InvertYaw = envBool("LIVENESS_INVERT_YAW", thresholds.Liveness.InvertYaw)
	thresholds.Batch.MaxSamples = envInt("BATCH_MAX_SAMPLES", thresholds.Batch.MaxSamples)
	thresholds.Batch.TimeoutMs = envInt("BATCH_TIMEOUT_MS", thresholds.Batch.TimeoutMs)
	thresholds.Batch.DistanceThreshold = envFloat("BATCH_DISTANCE_THRESHOLD", thresholds.Batch.DistanceThreshold)
	thresholds.Batch.RequiredGood = envInt("BATCH_REQUIRED_GOOD", thresholds.Batch.RequiredGood)
	thresholds.Session.MaxFaceAttempts = envInt("SESSION_MAX_FACE_ATTEMPTS", thresholds.Session.MaxFaceAttempts)
	thresholds.Session.IDTickMs = envInt("SESSION_ID_TICK_MS", thresholds.Session.IDTickMs)
	thresholds.Session.FaceTickMs = envInt("SESSION_FACE_TICK_MS", thresholds.Session.FaceTickMs)
	thresholds.Session.MismatchCheck = envBool("SESSION_MISMATCH_CHECK", thresholds.Session.MismatchCheck)

	return &Config{
		Camera: CameraConfig{
			SnapshotURL: os.Getenv("CAMERA_URL"),
		},
		Model: ModelConfig{
			URL:         os.Getenv("MODEL_URL"),
			OCRProvider: os.Getenv("OCR_PROVIDER"),
		},
		OpenAI: OpenAIConfig{
			Token: os.Getenv("OPENAI_TOKEN"),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Registry: RegistryConfig{
			DSN: os.Getenv("REGISTRY_DSN"),
		},
		Thresholds: thresholds,
	}
}
