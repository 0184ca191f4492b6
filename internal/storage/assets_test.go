package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"healthtrack/internal/model"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
}

func TestRelocate(t *testing.T) {
	root := t.TempDir()
	as, err := NewAssetStore(root)
	if err != nil {
		t.Fatalf("NewAssetStore failed: %v", err)
	}

	src := filepath.Join(root, "unknown", "photo.jpg")
	writeTestFile(t, src, "image data")

	newPath, err := as.Relocate(src, model.EntryTypeMeal)
	if err != nil {
		t.Fatalf("Relocate failed: %v", err)
	}

	want := filepath.Join(root, "meal", "photo.jpg")
	if newPath != want {
		t.Errorf("New path = %s, want %s", newPath, want)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("Source still exists after relocation")
	}
	content, err := os.ReadFile(newPath)
	if err != nil {
		t.Fatalf("Failed to read relocated file: %v", err)
	}
	if string(content) != "image data" {
		t.Errorf("Content mismatch after relocation")
	}
}

func TestRelocateCollision(t *testing.T) {
	root := t.TempDir()
	as, err := NewAssetStore(root)
	if err != nil {
		t.Fatalf("NewAssetStore failed: %v", err)
	}

	src := filepath.Join(root, "unknown", "photo.jpg")
	writeTestFile(t, src, "new data")

	occupied := filepath.Join(root, "meal", "photo.jpg")
	writeTestFile(t, occupied, "existing data")

	newPath, err := as.Relocate(src, model.EntryTypeMeal)
	if err != nil {
		t.Fatalf("Relocate failed: %v", err)
	}

	if newPath == occupied {
		t.Fatalf("Collision was not resolved, destination reused: %s", newPath)
	}
	if !strings.HasPrefix(filepath.Base(newPath), "photo-") || !strings.HasSuffix(newPath, ".jpg") {
		t.Errorf("Suffixed name %s does not keep base and extension", filepath.Base(newPath))
	}

	// The occupant must be untouched.
	content, _ := os.ReadFile(occupied)
	if string(content) != "existing data" {
		t.Errorf("Existing file was overwritten")
	}
	moved, _ := os.ReadFile(newPath)
	if string(moved) != "new data" {
		t.Errorf("Relocated content mismatch")
	}
}

func TestRelocateMissingSource(t *testing.T) {
	root := t.TempDir()
	as, err := NewAssetStore(root)
	if err != nil {
		t.Fatalf("NewAssetStore failed: %v", err)
	}

	_, err = as.Relocate(filepath.Join(root, "unknown", "gone.jpg"), model.EntryTypeMeal)
	if err == nil {
		t.Fatal("Relocate of a missing source must fail")
	}
	if !os.IsNotExist(err) {
		t.Errorf("Error %v is not detectable via os.IsNotExist", err)
	}
}

func TestRelocateSamePath(t *testing.T) {
	root := t.TempDir()
	as, err := NewAssetStore(root)
	if err != nil {
		t.Fatalf("NewAssetStore failed: %v", err)
	}

	src := filepath.Join(root, "meal", "photo.jpg")
	writeTestFile(t, src, "data")

	newPath, err := as.Relocate(src, model.EntryTypeMeal)
	if err != nil {
		t.Fatalf("Relocate failed: %v", err)
	}
	if newPath != src {
		t.Errorf("Same-directory relocation returned %s, want %s unchanged", newPath, src)
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("File missing after no-op relocation: %v", err)
	}
}
