// Package rules provides YAML-based upload validation rules shared by the
// client-side uploader and the server-side handlers.
package rules

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults applied when a rules file is missing or leaves a field unset.
const (
	DefaultMaxFileSize = 50 * 1024 * 1024 // 50MB
	DefaultMaxFiles    = 20
	DefaultBatchSize   = 5
)

// Rules defines what the upload pipeline accepts.
type Rules struct {
	// MaxFileSize is the per-file size ceiling in bytes.
	MaxFileSize int64 `yaml:"maxFileSize"`
	// AllowedExtensions lists acceptable file extensions (with leading dot).
	// Empty means any extension is accepted.
	AllowedExtensions []string `yaml:"allowedExtensions"`
	// MaxFiles is the default per-run file count ceiling.
	MaxFiles int `yaml:"maxFiles"`
	// BatchSize is the number of files sent per transport call.
	BatchSize int `yaml:"batchSize"`
}

// Default returns the built-in rule set.
func Default() *Rules {
	return &Rules{
		MaxFileSize: DefaultMaxFileSize,
		MaxFiles:    DefaultMaxFiles,
		BatchSize:   DefaultBatchSize,
	}
}

// Load reads rules from a YAML file. A missing file yields the defaults.
func Load(filePath string) (*Rules, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	defer file.Close()

	return LoadFromReader(file)
}

// LoadFromReader parses rules from an io.Reader.
func LoadFromReader(r io.Reader) (*Rules, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	rules := Default()
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}

	if rules.MaxFileSize <= 0 {
		rules.MaxFileSize = DefaultMaxFileSize
	}
	if rules.MaxFiles <= 0 {
		rules.MaxFiles = DefaultMaxFiles
	}
	if rules.BatchSize <= 0 {
		rules.BatchSize = DefaultBatchSize
	}

	return rules, nil
}

// AllowsExtension reports whether the file name's extension is acceptable.
func (r *Rules) AllowsExtension(name string) bool {
	if len(r.AllowedExtensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range r.AllowedExtensions {
		if strings.ToLower(allowed) == ext {
			return true
		}
	}
	return false
}
