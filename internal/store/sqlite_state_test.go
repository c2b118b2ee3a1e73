package store

import (
	"context"
	"encoding/json"
	"testing"
)

func TestSQLiteSlices_SaveLoadClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := Store{Dir: t.TempDir()}

	got, err := s.LoadSlices(ctx)
	if err != nil {
		t.Fatalf("LoadSlices (empty): %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no slices, got %d", len(got))
	}

	type user struct {
		Name string `json:"name"`
		Code int    `json:"code"`
	}
	if err := s.SaveSlices(ctx, map[string]any{
		"user":    user{Name: "Ana", Code: 55},
		"control": map[string]bool{"isLoading": false},
	}); err != nil {
		t.Fatalf("SaveSlices: %v", err)
	}
	// Overwrite one slice.
	if err := s.SaveSlices(ctx, map[string]any{"user": user{Name: "Ana B", Code: 55}}); err != nil {
		t.Fatalf("SaveSlices (overwrite): %v", err)
	}

	got, err = s.LoadSlices(ctx)
	if err != nil {
		t.Fatalf("LoadSlices: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 slices, got %d", len(got))
	}
	var u user
	if err := json.Unmarshal(got["user"], &u); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if u.Name != "Ana B" || u.Code != 55 {
		t.Fatalf("unexpected user: %#v", u)
	}

	var u2 user
	ok, err := s.ReadSlice(ctx, "user", &u2)
	if err != nil || !ok || u2.Name != "Ana B" {
		t.Fatalf("ReadSlice = %#v, %v, %v", u2, ok, err)
	}
	ok, err = s.ReadSlice(ctx, "chat", &u2)
	if err != nil || ok {
		t.Fatalf("ReadSlice(missing) = %v, %v", ok, err)
	}

	rows, err := s.ListSlices(ctx)
	if err != nil || len(rows) != 2 {
		t.Fatalf("ListSlices = %d rows, %v", len(rows), err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, err = s.LoadSlices(ctx)
	if err != nil {
		t.Fatalf("LoadSlices (after clear): %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected cleared store, got %d slices", len(got))
	}
}
