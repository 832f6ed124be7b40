package mcrt

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadColumnSnapshotOptionalColumns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snap.txt")
	content := "# x y z M Z T\n" +
		"-0.5 0 0 1 0.01 100\n" +
		"0.5 0 0 1 0.02 20000\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	opts := ColumnImportOptions{ImportMetallicity: true, ImportTemperature: true}
	snap, err := LoadColumnSnapshot(path, opts)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Count() != 2 {
		t.Fatalf("expected 2 sites, got %d", snap.Count())
	}
	z0, ok := snap.MetallicityAt(0)
	if !ok || z0 != 0.01 {
		t.Fatalf("unexpected metallicity[0]: %.6g ok=%v", z0, ok)
	}
	temp1, ok := snap.TemperatureAt(1)
	if !ok || temp1 != 20000 {
		t.Fatalf("unexpected temperature[1]: %.6g ok=%v", temp1, ok)
	}
	if _, ok := snap.VelocityAt(0); ok {
		t.Fatal("velocity should be absent when not imported")
	}
}

func TestLoadColumnSnapshotColumnMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snap.txt")
	if err := os.WriteFile(path, []byte("0 0 0 1 0.01\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadColumnSnapshot(path, ColumnImportOptions{}); err == nil {
		t.Fatal("expected column-count mismatch error")
	}
}
