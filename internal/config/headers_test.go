package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadHeaderDictionaryDefault(t *testing.T) {
	dict, err := LoadHeaderDictionary("")
	if err != nil {
		t.Fatalf("LoadHeaderDictionary() error = %v", err)
	}

	for header, want := range map[string]string{
		"رقم الدعوى":           "case_number",
		"م":                    "order_index",
		"تاريخ الجلسة القادمة": "next_session_date",
		"مستأنف ضده":           "defendant",
		"مستأنف":               "plaintiff",
		"حالة":                 "status",
	} {
		got, ok := dict.Lookup(header)
		if !ok {
			t.Fatalf("header %q should be known", header)
		}
		if got != want {
			t.Fatalf("Lookup(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestLoadHeaderDictionaryFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "headers.yaml")
	if err := os.WriteFile(path, []byte("case_number:\n  - Case No\n  - Docket\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	dict, err := LoadHeaderDictionary(path)
	if err != nil {
		t.Fatalf("LoadHeaderDictionary() error = %v", err)
	}

	if got, ok := dict.Lookup("Docket"); !ok || got != "case_number" {
		t.Fatalf("Lookup(Docket) = %q, %v", got, ok)
	}
	if _, ok := dict.Lookup("رقم الدعوى"); ok {
		t.Fatalf("file dictionary replaces the built-in one")
	}
}

func TestParseHeaderDictionaryRejectsInvalidInput(t *testing.T) {
	for name, raw := range map[string]string{
		"ambiguous synonym": "plaintiff: [X]\ndefendant: [X]\n",
		"empty":             "# nothing\n",
	} {
		if _, err := ParseHeaderDictionary([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadHeaderDictionaryMissingFile(t *testing.T) {
	if _, err := LoadHeaderDictionary(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
