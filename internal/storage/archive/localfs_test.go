package archive

import (
	"context"
	"testing"
)

func TestLocalFS_WriteReadDelete(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFS() error = %v", err)
	}
	ctx := context.Background()

	if err := fs.Write(ctx, "runs/abc/result.json", []byte(`{"id":"abc"}`)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	data, err := fs.Read(ctx, "runs/abc/result.json")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(data) != `{"id":"abc"}` {
		t.Errorf("Read() = %s", data)
	}

	ok, err := fs.Exists(ctx, "runs/abc/result.json")
	if err != nil || !ok {
		t.Errorf("Exists() = %v, %v", ok, err)
	}

	if err := fs.Delete(ctx, "runs/abc/result.json"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	ok, _ = fs.Exists(ctx, "runs/abc/result.json")
	if ok {
		t.Error("file should be gone after delete")
	}
}

func TestLocalFS_List(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFS() error = %v", err)
	}
	ctx := context.Background()

	fs.Write(ctx, "runs/a/result.json", []byte("{}"))
	fs.Write(ctx, "runs/a/trades.csv", []byte("x"))
	fs.Write(ctx, "runs/b/result.json", []byte("{}"))

	paths, err := fs.List(ctx, "runs")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(paths) != 3 {
		t.Errorf("expected 3 paths, got %d: %v", len(paths), paths)
	}

	empty, err := fs.List(ctx, "nothing-here")
	if err != nil {
		t.Fatalf("List() on missing prefix: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no paths, got %v", empty)
	}
}
