// Package config loads runtime settings from an optional YAML file and the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	yaml "gopkg.in/yaml.v2"
)

const (
	ClassifierBayes  = "bayes"
	ClassifierGemini = "gemini"
	ClassifierRules  = "rules"
)

// Columns lists the accepted header names for each column role.
// Matching is case-insensitive; the first matching header wins.
type Columns struct {
	Note   []string `yaml:"note"`
	Amount []string `yaml:"amount"`
	Date   []string `yaml:"date"`
}

type ClassifierConfig struct {
	Kind        string `yaml:"kind"`
	ModelPath   string `yaml:"model_path"` // local path or gs:// URI
	GeminiModel string `yaml:"gemini_model"`
	RulesPath   string `yaml:"rules_path"`
}

type ServerConfig struct {
	Port        string `yaml:"port"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

type GCPConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

type BigQueryConfig struct {
	Dataset      string `yaml:"dataset"`
	RowsTable    string `yaml:"table_rows"`
	PeriodsTable string `yaml:"table_periods"`
}

type Config struct {
	Columns     Columns          `yaml:"columns"`
	DateLayouts []string         `yaml:"date_layouts"`
	Currency    string           `yaml:"currency"`
	LogLevel    string           `yaml:"log_level"`
	Classifier  ClassifierConfig `yaml:"classifier"`
	Server      ServerConfig     `yaml:"server"`
	GCP         GCPConfig        `yaml:"gcp"`
	BigQuery    BigQueryConfig   `yaml:"bigquery"`
}

// DefaultDateLayouts are tried in order when parsing the date column.
var DefaultDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006/1/2",
	"2006/1/2 15:04:05",
	"1/2/2006",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"02.01.2006",
	"02.01.2006 15:04",
	"02-Jan-2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"Mon, 02 Jan 2006 15:04:05 MST",
	"20060102",
	"2006-01",
	"Jan 2006",
	"January 2006",
}

// Default returns the configuration used when no file or environment
// override is present. Header aliases follow the dashboard export format
// (Note, KES, Date).
func Default() *Config {
	return &Config{
		Columns: Columns{
			Note:   []string{"Note", "note", "description"},
			Amount: []string{"KES", "amount"},
			Date:   []string{"Date", "date"},
		},
		DateLayouts: append([]string(nil), DefaultDateLayouts...),
		Currency:    "KES",
		LogLevel:    "info",
		Classifier: ClassifierConfig{
			Kind:        ClassifierBayes,
			ModelPath:   "income_expense_classifier.gob",
			GeminiModel: "gemini-2.5-flash",
		},
		Server: ServerConfig{
			Port:        "8080",
			MaxUploadMB: 10,
		},
		BigQuery: BigQueryConfig{
			Dataset:      "finance",
			RowsTable:    "classified_transactions",
			PeriodsTable: "monthly_category_counts",
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and environment overrides, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %s: %w", path, err)
		}
		if err := yaml.UnmarshalStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Classifier.Kind = getEnv("MM_CLASSIFIER", c.Classifier.Kind)
	c.Classifier.ModelPath = getEnv("MM_MODEL_PATH", c.Classifier.ModelPath)
	c.Classifier.GeminiModel = getEnv("MM_GEMINI_MODEL", c.Classifier.GeminiModel)
	c.Classifier.RulesPath = getEnv("MM_RULES_PATH", c.Classifier.RulesPath)
	c.Currency = getEnv("MM_CURRENCY", c.Currency)
	c.LogLevel = getEnv("MM_LOG_LEVEL", c.LogLevel)
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.MaxUploadMB = getEnvInt("MM_MAX_UPLOAD_MB", c.Server.MaxUploadMB)
	c.GCP.ProjectID = getEnv("GOOGLE_CLOUD_PROJECT", c.GCP.ProjectID)
	c.GCP.CredentialsFile = getEnv("MM_GCP_CREDENTIALS_FILE", c.GCP.CredentialsFile)
	c.BigQuery.Dataset = getEnv("MM_BQ_DATASET", c.BigQuery.Dataset)
}

// Validate reports every configuration problem in a single error.
func (c *Config) Validate() error {
	var problems []string

	if len(c.Columns.Note) == 0 {
		problems = append(problems, "columns.note must list at least one header name")
	}

	switch c.Classifier.Kind {
	case ClassifierBayes:
		if c.Classifier.ModelPath == "" {
			problems = append(problems, "classifier.model_path is required for the bayes classifier")
		}
	case ClassifierGemini:
		if c.Classifier.GeminiModel == "" {
			problems = append(problems, "classifier.gemini_model is required for the gemini classifier")
		}
	case ClassifierRules:
		if c.Classifier.RulesPath == "" {
			problems = append(problems, "classifier.rules_path is required for the rules classifier")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid classifier kind '%s': must be one of [%s %s %s]",
			c.Classifier.Kind, ClassifierBayes, ClassifierGemini, ClassifierRules))
	}

	if port, err := strconv.Atoi(c.Server.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Server.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.Server.MaxUploadMB <= 0 {
		problems = append(problems, "server.max_upload_mb must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
