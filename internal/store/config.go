package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// GlobalConfig lives in ~/.pautas/config.json and is shared by all profiles.
type GlobalConfig struct {
	CurrentProfile string `json:"currentProfile,omitempty"`

	// Profiles optionally pin a backend per profile. Environment and flags win.
	Profiles map[string]ProfileRef `json:"profiles,omitempty"`

	// Theme is the local preference used while nobody is logged in.
	Theme string `json:"theme,omitempty"`
}

type ProfileRef struct {
	Server  string `json:"server,omitempty"`
	APIBase string `json:"apiBase,omitempty"`
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.pautas).
	if v := strings.TrimSpace(os.Getenv("PAUTAS_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pautas"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func LoadConfig() (*GlobalConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &GlobalConfig{}, nil
		}
		return nil, err
	}
	var cfg GlobalConfig
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func SaveConfig(cfg *GlobalConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	// CLI and TUI may write concurrently; rename keeps readers from seeing half a file.
	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}

// UpdateConfig loads, mutates and saves the global config.
func UpdateConfig(fn func(cfg *GlobalConfig)) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	fn(cfg)
	return SaveConfig(cfg)
}

// ListProfiles returns profiles with a directory or a config entry.
func ListProfiles() ([]string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	outSet := map[string]struct{}{}
	if ents, err := os.ReadDir(filepath.Join(dir, "profiles")); err == nil {
		for _, e := range ents {
			if e.IsDir() {
				outSet[e.Name()] = struct{}{}
			}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	for name := range cfg.Profiles {
		outSet[name] = struct{}{}
	}
	out := make([]string, 0, len(outSet))
	for name := range outSet {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}
