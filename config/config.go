package config

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	BindAddress string   `env:"BIND_ADDRESS" envDefault:"0.0.0.0:50005"`
	TLSDomains  []string `env:"TLS_DOMAINS" envSeparator:","` // e.g. "example.com,example2.com"
	DebugMode   bool     `env:"DEBUG_MODE" envDefault:"false"`
	APIKey      string   `env:"API_KEY"` // Shared secret expected in the x-api-key header
	// Only these origins receive CORS headers
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"https://ornate-bublanina-ed2551.netlify.app,http://localhost:3000,http://localhost:5000,http://127.0.0.1:5500"`
	MaxBodyMB      int64    `env:"MAX_BODY_MB" envDefault:"50"` // Photos arrive base64 encoded inside JSON

	DatabaseURL string `env:"DATABASE_URL"` // PostgreSQL (pgvector) will be used if this is set
	MySQLDSN    string `env:"MYSQL_DSN"`    // MySQL will be used if DATABASE_URL is not set and this is
	SQLiteFile  string `env:"SQLITE_FILE" envDefault:"biometria.sqlite"`

	ModelsDir     string        `env:"MODELS_DIR" envDefault:"models"`            // dlib model files for go-face
	FaceDetectCNN bool          `env:"FACE_DETECT_CNN" envDefault:"false"`        // Much slower, more accurate at different angles
	ExtractorURL  string        `env:"EXTRACTOR_URL"`                             // Remote embedding server, replaces dlib when set
	Workers       int           `env:"EXTRACT_WORKERS"`                           // Defaults to the number of CPUs
	Timeout       time.Duration `env:"EXTRACT_TIMEOUT" envDefault:"30s"`          // Upper bound for decoding + extraction
	PhotoMaxSide  uint          `env:"PHOTO_MAX_SIDE" envDefault:"1024"`          // Photos are downscaled before extraction
	Threshold     float64       `env:"MATCH_THRESHOLD" envDefault:"0.55"`         // Euclidean distance below which faces match
	Scale         float64       `env:"SIMILARITY_SCALE" envDefault:"100"`         // similarity = 100 - distance*scale
	TmpDir        string        `env:"TMP_DIR" envDefault:"/tmp"`                 // Backup artifacts are staged here
	BackupDir     string        `env:"BACKUP_DIR" envDefault:"backups"`           // Append-only, used when no S3 bucket is configured
	Compress      bool          `env:"BACKUP_COMPRESS" envDefault:"false"`        // zstd the artifacts
	S3            S3Config      `envPrefix:"BACKUP_S3_"`
}

type S3Config struct {
	Bucket   string `env:"BUCKET"`
	Prefix   string `env:"PREFIX" envDefault:"biometria/"`
	Region   string `env:"REGION" envDefault:"us-east-1"`
	Endpoint string `env:"ENDPOINT"` // S3 compatible storage, path-style addressing is used when set
	Key      string `env:"KEY"`
	Secret   string `env:"SECRET"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, errors.New("API_KEY is required"))
	}
	if c.Threshold <= 0 {
		errs = append(errs, fmt.Errorf("MATCH_THRESHOLD must be positive, got %v", c.Threshold))
	}
	if c.Scale <= 0 {
		errs = append(errs, fmt.Errorf("SIMILARITY_SCALE must be positive, got %v", c.Scale))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("EXTRACT_TIMEOUT must be positive, got %v", c.Timeout))
	}
	if c.MaxBodyMB <= 0 {
		errs = append(errs, fmt.Errorf("MAX_BODY_MB must be positive, got %d", c.MaxBodyMB))
	}
	return errors.Join(errs...)
}

// Backend names the storage engine selected by the configuration.
func (c *Config) Backend() string {
	if c.DatabaseURL != "" {
		return "postgres"
	}
	if c.MySQLDSN != "" {
		return "mysql"
	}
	return "sqlite"
}
