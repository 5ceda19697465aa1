package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "herd.db"))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreSaveLoad(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	if _, ok, err := s.Load(ctx, 7, "wool"); err != nil || ok {
		t.Fatalf("Load before save = ok %v, err %v", ok, err)
	}

	tree := Tree{}
	tree.SetFloat("lastShear", 36.5)
	tree.SetInt("generation", 4)
	tree.SetBool("isPregnant", true)
	if err := s.Save(ctx, 7, "wool", tree); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := s.Load(ctx, 7, "wool")
	if err != nil || !ok {
		t.Fatalf("Load = ok %v, err %v", ok, err)
	}
	if v := got.GetFloat("lastShear", 0); v != 36.5 {
		t.Errorf("lastShear = %v, want 36.5", v)
	}
	if v := got.GetInt("generation", 0); v != 4 {
		t.Errorf("generation = %v, want 4", v)
	}
	if v := got.GetBool("isPregnant", false); !v {
		t.Error("isPregnant = false, want true")
	}

	tree.SetFloat("lastShear", 50)
	if err := s.Save(ctx, 7, "wool", tree); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	got, _, _ = s.Load(ctx, 7, "wool")
	if v := got.GetFloat("lastShear", 0); v != 50 {
		t.Errorf("lastShear after overwrite = %v, want 50", v)
	}
}

func TestStoreLoadAllAndDelete(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	recs := []Record{
		{Entity: 2, Path: "wool", Tree: Tree{"lastShear": 1.0}},
		{Entity: 1, Path: "multiplywithevolution", Tree: Tree{"isPregnant": false}},
		{Entity: 1, Path: "wool", Tree: Tree{"lastShear": 2.0}},
	}
	if err := s.SaveAll(ctx, recs); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	all, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("LoadAll returned %d records, want 3", len(all))
	}
	if all[0].Entity != 1 || all[0].Path != "multiplywithevolution" || all[2].Entity != 2 {
		t.Errorf("unexpected order: %+v", all)
	}

	if err := s.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	all, _ = s.LoadAll(ctx)
	if len(all) != 1 || all[0].Entity != 2 {
		t.Errorf("after delete = %+v", all)
	}
}

func TestStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "herd.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if err := s.Save(ctx, 3, "wool", Tree{"lastShear": 12.0}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.SetMeta(ctx, "totalHours", 120.25); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s.Close() }()

	tree, ok, err := s.Load(ctx, 3, "wool")
	if err != nil || !ok {
		t.Fatalf("Load after reopen = ok %v, err %v", ok, err)
	}
	if v := tree.GetFloat("lastShear", 0); v != 12 {
		t.Errorf("lastShear = %v, want 12", v)
	}
	hours, ok, err := s.Meta(ctx, "totalHours")
	if err != nil || !ok || hours != 120.25 {
		t.Errorf("Meta = %v ok %v err %v, want 120.25", hours, ok, err)
	}
	if _, ok, _ := s.Meta(ctx, "missing"); ok {
		t.Error("missing meta key reported present")
	}
}

func TestStoreMemory(t *testing.T) {
	s, err := Open(MemoryPath)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	if err := s.Save(ctx, 1, "wool", Tree{"lastShear": 3.0}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok, err := s.Load(ctx, 1, "wool"); err != nil || !ok {
		t.Errorf("Load = ok %v, err %v", ok, err)
	}
}

func TestStoreClear(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	if err := s.Save(ctx, 3, "entity", Tree{"code": "sheep-ewe"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.SetMeta(ctx, "totalHours", 48); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	recs, err := s.LoadAll(ctx)
	if err != nil || len(recs) != 0 {
		t.Errorf("LoadAll after Clear = %d records, err %v", len(recs), err)
	}
	if _, ok, _ := s.Meta(ctx, "totalHours"); ok {
		t.Error("meta survived Clear")
	}
}

func TestTreeDefaults(t *testing.T) {
	tree := Tree{"frac": 2.5, "whole": 3.0, "flag": "yes"}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"missing float", tree.GetFloat("nope", 1.5), 1.5},
		{"int from whole float", tree.GetInt("whole", -1), 3},
		{"int rejects fraction", tree.GetInt("frac", -1), -1},
		{"bool wrong type", tree.GetBool("flag", true), true},
		{"has", tree.Has("frac"), true},
		{"has missing", tree.Has("nope"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}
