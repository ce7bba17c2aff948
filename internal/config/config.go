package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/txsift/internal/columns"
)

// FileName is the workspace configuration file.
const FileName = "txsift.yaml"

// Model backends.
const (
	ModelBayes = "bayes"
	ModelONNX  = "onnx"
)

// Storage backends.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// History backends.
const (
	HistoryCSV    = "csv"
	HistorySQLite = "sqlite"
)

// Config represents the top-level txsift.yaml configuration.
type Config struct {
	Keywords KeywordsConfig `yaml:"keywords"`
	Features FeaturesConfig `yaml:"features"`
	Model    ModelConfig    `yaml:"model"`
	Storage  StorageConfig  `yaml:"storage"`
	History  HistoryConfig  `yaml:"history"`
	Server   ServerConfig   `yaml:"server"`
	Git      GitConfig      `yaml:"git"`
	Log      LogConfig      `yaml:"log"`
}

// KeywordsConfig overrides the header keywords per role. An empty list
// keeps the built-in keywords for that role.
type KeywordsConfig struct {
	Description []string `yaml:"description,omitempty"`
	Reference   []string `yaml:"reference,omitempty"`
	Credit      []string `yaml:"credit,omitempty"`
}

// Sets builds the keyword sets, falling back to the defaults per role.
func (k KeywordsConfig) Sets() columns.KeywordSets {
	sets := columns.DefaultKeywordSets()
	if len(k.Description) > 0 {
		sets.Description = columns.NewKeywordSet(k.Description...)
	}
	if len(k.Reference) > 0 {
		sets.Reference = columns.NewKeywordSet(k.Reference...)
	}
	if len(k.Credit) > 0 {
		sets.Credit = columns.NewKeywordSet(k.Credit...)
	}
	return sets
}

// FeaturesConfig controls feature-string assembly.
type FeaturesConfig struct {
	MissingToken string `yaml:"missing_token"`
}

// ModelConfig locates the pre-trained classifier.
type ModelConfig struct {
	Backend    string `yaml:"backend"`               // "bayes" or "onnx"
	Path       string `yaml:"path"`                  // relative to the workspace
	Vocabulary string `yaml:"vocabulary,omitempty"`  // onnx only
	ORTLibrary string `yaml:"ort_library,omitempty"` // onnx only
	InputName  string `yaml:"input_name,omitempty"`
	OutputName string `yaml:"output_name,omitempty"`
}

// StorageConfig selects where run artifacts are written.
type StorageConfig struct {
	Backend string   `yaml:"backend"` // "local" or "s3"
	Root    string   `yaml:"root"`    // local only, relative to the workspace
	S3      S3Config `yaml:"s3,omitempty"`
}

// S3Config addresses an S3-compatible bucket.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region,omitempty"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// HistoryConfig selects the run history backend.
type HistoryConfig struct {
	Backend string `yaml:"backend"` // "csv" or "sqlite"
	Path    string `yaml:"path"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Addr        string  `yaml:"addr"`
	MaxUploadMB int64   `yaml:"max_upload_mb"`
	RateLimit   float64 `yaml:"rate_limit"` // requests per second, 0 disables
	Burst       int     `yaml:"burst"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// LogConfig sets the log level ("debug", "info", "warn", "error").
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads a txsift.yaml file from disk. Omitted fields take defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new workspace.
func Default() *Config {
	cfg := &Config{
		Keywords: KeywordsConfig{
			Description: columns.DefaultKeywordSets().Description.Keywords(),
			Reference:   columns.DefaultKeywordSets().Reference.Keywords(),
			Credit:      columns.DefaultKeywordSets().Credit.Keywords(),
		},
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "txsift",
			AuthorEmail: "txsift@localhost",
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Features.MissingToken == "" {
		c.Features.MissingToken = "nan"
	}
	if c.Model.Backend == "" {
		c.Model.Backend = ModelBayes
	}
	if c.Model.Path == "" {
		c.Model.Path = "models/model.gob"
	}
	if c.Model.Backend == ModelONNX {
		if c.Model.InputName == "" {
			c.Model.InputName = "input"
		}
		if c.Model.OutputName == "" {
			c.Model.OutputName = "label"
		}
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = StorageLocal
	}
	if c.Storage.Root == "" {
		c.Storage.Root = "."
	}
	if c.History.Backend == "" {
		c.History.Backend = HistoryCSV
	}
	if c.History.Path == "" {
		if c.History.Backend == HistorySQLite {
			c.History.Path = "logs/history.db"
		} else {
			c.History.Path = "logs/run-log.csv"
		}
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 32
	}
	if c.Server.RateLimit > 0 && c.Server.Burst == 0 {
		c.Server.Burst = 1
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate rejects unknown backends and incomplete backend settings.
func (c *Config) Validate() error {
	switch c.Model.Backend {
	case ModelBayes:
	case ModelONNX:
		if c.Model.Vocabulary == "" {
			return fmt.Errorf("model.vocabulary is required for the onnx backend")
		}
	default:
		return fmt.Errorf("unknown model.backend %q", c.Model.Backend)
	}
	switch c.Storage.Backend {
	case StorageLocal:
	case StorageS3:
		if c.Storage.S3.Endpoint == "" || c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.endpoint and storage.s3.bucket are required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	switch c.History.Backend {
	case HistoryCSV, HistorySQLite:
	default:
		return fmt.Errorf("unknown history.backend %q", c.History.Backend)
	}
	return nil
}
