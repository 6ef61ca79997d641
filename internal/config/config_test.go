package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ClassifierBayes, cfg.Classifier.Kind)
	assert.Contains(t, cfg.Columns.Note, "Note")
	assert.Contains(t, cfg.Columns.Amount, "KES")
	assert.Equal(t, "KES", cfg.Currency)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
currency: USD
columns:
  note: [Memo]
  amount: [Value]
classifier:
  kind: rules
  rules_path: rules.yaml
server:
  port: "9090"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("MM_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, []string{"Memo"}, cfg.Columns.Note)
	assert.Equal(t, []string{"Value"}, cfg.Columns.Amount)
	assert.Equal(t, []string{"Date", "date"}, cfg.Columns.Date)
	assert.Equal(t, ClassifierRules, cfg.Classifier.Kind)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("no_such_key: 1\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"unknown classifier", func(c *Config) { c.Classifier.Kind = "svm" }, true},
		{"bayes without model", func(c *Config) { c.Classifier.ModelPath = "" }, true},
		{"rules without file", func(c *Config) { c.Classifier.Kind = ClassifierRules }, true},
		{"gemini", func(c *Config) { c.Classifier.Kind = ClassifierGemini }, false},
		{"bad port", func(c *Config) { c.Server.Port = "http" }, true},
		{"port out of range", func(c *Config) { c.Server.Port = "70000" }, true},
		{"no note aliases", func(c *Config) { c.Columns.Note = nil }, true},
		{"zero upload size", func(c *Config) { c.Server.MaxUploadMB = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
