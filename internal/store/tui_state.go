package store

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
)

// TUIState remembers list view settings across relaunches.
//
// It is best effort: callers should tolerate missing/invalid data.
type TUIState struct {
	Version int `json:"version"`

	Search string `json:"search,omitempty"`
	// Filter is one of: all|assigned|unassigned
	Filter string `json:"filter,omitempty"`
	Page   int    `json:"page,omitempty"`
	// SummarySort is one of: progress|orders|name
	SummarySort string `json:"summarySort,omitempty"`
}

func (s Store) LoadTUIState() (*TUIState, error) {
	if strings.TrimSpace(s.Dir) == "" {
		return &TUIState{Version: 1}, nil
	}
	b, err := os.ReadFile(s.tuiStatePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &TUIState{Version: 1}, nil
		}
		return nil, err
	}
	var st TUIState
	if err := json.Unmarshal(b, &st); err != nil {
		// Corrupted: treat as missing.
		return &TUIState{Version: 1}, nil
	}
	if st.Version == 0 {
		st.Version = 1
	}
	return &st, nil
}

func (s Store) SaveTUIState(st *TUIState) error {
	if strings.TrimSpace(s.Dir) == "" || st == nil {
		return nil
	}
	if err := s.Ensure(); err != nil {
		return err
	}
	if st.Version == 0 {
		st.Version = 1
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return atomicWriteFile(s.Dir, "tui-state.json.*.tmp", s.tuiStatePath(), b, 0o644)
}

// RemoveTUIState deletes saved view settings (used on logout).
func (s Store) RemoveTUIState() error {
	err := os.Remove(s.tuiStatePath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
