// Package config discovers and loads the authseed configuration file.
//
// A fixed, ordered list of file names is tried in the working directory; the
// first existing file wins. Provider blocks are kept raw (map[string]any)
// until the selected provider strategy validates them, so a broken block for
// an unselected provider never fails a run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kuitang/authseed/internal/errs"
)

// CandidateFileNames are the config file names tried, in order, in the
// working directory.
var CandidateFileNames = []string{
	"authseed.yaml",
	"authseed.yml",
	".authseed.yaml",
}

// File is the parsed configuration file.
type File struct {
	// Provider selects the identity provider ("firebase" or "supabase").
	Provider string `yaml:"provider"`

	// Firebase and Supabase hold the raw per-provider blocks. Validation is
	// the selected provider strategy's job.
	Firebase map[string]any `yaml:"firebase,omitempty"`
	Supabase map[string]any `yaml:"supabase,omitempty"`

	// Profiles are named partial overrides merged onto the active provider's
	// block, e.g. an "admin" profile with an alternate userId.
	Profiles map[string]map[string]any `yaml:"profiles,omitempty"`

	// BaseURL, when set, is navigated to after injection so the application
	// observes the seeded session. Navigation failure is non-fatal.
	BaseURL string `yaml:"baseUrl,omitempty"`

	// Debug enables debug-level logging of each pipeline step.
	Debug bool `yaml:"debug,omitempty"`
}

// ProviderBlock returns a copy of the raw block for the named provider.
// The copy keeps profile merging from mutating the cached file.
func (f *File) ProviderBlock(name string) map[string]any {
	var src map[string]any
	switch name {
	case "firebase":
		src = f.Firebase
	case "supabase":
		src = f.Supabase
	}
	block := make(map[string]any, len(src))
	for k, v := range src {
		block[k] = v
	}
	return block
}

// ApplyProfile returns the active provider's block with the named profile's
// fields merged on top. The merge is shallow: an override field replaces the
// base field wholesale. Only the active provider's block is touched.
func (f *File) ApplyProfile(profile string) (map[string]any, error) {
	block := f.ProviderBlock(f.Provider)
	if profile == "" {
		return block, nil
	}
	override, ok := f.Profiles[profile]
	if !ok {
		return nil, errs.InvalidField("profiles."+profile, "profile not defined")
	}
	for k, v := range override {
		block[k] = v
	}
	return block, nil
}

// Parse decodes and structurally validates raw config bytes.
// Provider sub-fields are left to the provider strategies.
func Parse(raw []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, errs.Wrap(errs.ConfigInvalid, "config file is not valid YAML", err)
	}
	if strings.TrimSpace(f.Provider) == "" {
		return nil, errs.InvalidField("provider", "missing or empty")
	}
	return &f, nil
}

// Discover returns the first existing candidate path and the full list of
// attempted absolute paths.
func Discover(dir string) (found string, attempted []string, err error) {
	if dir == "" {
		dir, err = os.Getwd()
		if err != nil {
			return "", nil, fmt.Errorf("resolve working directory: %w", err)
		}
	}
	for _, name := range CandidateFileNames {
		path := filepath.Join(dir, name)
		if abs, absErr := filepath.Abs(path); absErr == nil {
			path = abs
		}
		attempted = append(attempted, path)
		if found != "" {
			continue
		}
		if _, statErr := os.Stat(path); statErr == nil {
			found = path
		}
	}
	return found, attempted, nil
}

// Load reads, parses, and structurally validates the config file in dir
// (working directory when empty).
func Load(dir string) (*File, error) {
	path, attempted, err := Discover(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, errs.Newf(errs.ConfigNotFound,
			"no config file found; tried: %s", strings.Join(attempted, ", "))
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ConfigNotFound, "read config file "+path, err)
	}
	return Parse(raw)
}
