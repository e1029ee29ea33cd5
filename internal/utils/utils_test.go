package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.bin")

	if err := WriteFileAtomic(path, []byte("payload"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload" {
		t.Errorf("content = %q", data)
	}

	// overwrite leaves no temp files behind
	if err := WriteFileAtomic(path, []byte("replaced"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic overwrite: %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("found %d entries after overwrite, want just the file", len(entries))
	}
}

func TestExtractHelpers(t *testing.T) {
	data := map[string]any{
		"section": map[string]any{
			"count": int64(3),
			"ratio": 0.5,
			"whole": int64(2),
			"name":  "value",
		},
	}

	section, ok := ExtractSection(data, "section")
	if !ok {
		t.Fatal("ExtractSection missed")
	}
	if v, ok := ExtractInt(section, "count"); !ok || v != 3 {
		t.Errorf("ExtractInt = (%d, %v)", v, ok)
	}
	if v, ok := ExtractFloat(section, "ratio"); !ok || v != 0.5 {
		t.Errorf("ExtractFloat = (%v, %v)", v, ok)
	}
	// TOML integers read as floats too
	if v, ok := ExtractFloat(section, "whole"); !ok || v != 2.0 {
		t.Errorf("ExtractFloat on integer = (%v, %v)", v, ok)
	}
	if v, ok := ExtractString(section, "name"); !ok || v != "value" {
		t.Errorf("ExtractString = (%q, %v)", v, ok)
	}

	if _, ok := ExtractInt(section, "name"); ok {
		t.Error("ExtractInt accepted a string")
	}
	if _, ok := ExtractSection(data, "missing"); ok {
		t.Error("ExtractSection reported a missing section")
	}
}

func TestParseTOMLWithRecovery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loose.toml")
	if err := os.WriteFile(path, []byte("[a]\nx = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	loose, err := ParseTOMLWithRecovery(path)
	if err != nil {
		t.Fatalf("ParseTOMLWithRecovery: %v", err)
	}
	section, ok := ExtractSection(loose, "a")
	if !ok {
		t.Fatal("section a missing")
	}
	if v, _ := ExtractInt(section, "x"); v != 1 {
		t.Errorf("x = %d", v)
	}
}
