package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	sqliteFileName   = "session.sqlite"
	tuiStateFileName = "tui-state.json"
	DefaultProfile   = "default"
)

// Store is the per-profile directory holding the session database.
type Store struct {
	Dir string
}

// ProfileDir returns ~/.pautas/profiles/<name>.
func ProfileDir(name string) (string, error) {
	name, err := NormalizeProfileName(name)
	if err != nil {
		return "", err
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "profiles", name), nil
}

func NormalizeProfileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("profile name is empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", errors.New("profile name must be a plain directory name")
	}
	return name, nil
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) sqlitePath() string {
	return filepath.Join(s.Dir, sqliteFileName)
}

func (s Store) tuiStatePath() string {
	return filepath.Join(s.Dir, tuiStateFileName)
}
