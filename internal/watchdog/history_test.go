package watchdog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHistoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	history, err := LoadHistory(path)
	if err != nil {
		t.Fatalf("LoadHistory returned error: %v", err)
	}
	if history.Len() != 0 {
		t.Errorf("fresh history has %d entries", history.Len())
	}

	if err := history.Add("https://news/1"); err != nil {
		t.Fatal(err)
	}
	if err := history.Add("https://news/2"); err != nil {
		t.Fatal(err)
	}

	reloaded, err := LoadHistory(path)
	if err != nil {
		t.Fatalf("reload returned error: %v", err)
	}
	if !reloaded.Seen("https://news/1") || !reloaded.Seen("https://news/2") {
		t.Error("persisted links not seen after reload")
	}
	if reloaded.Seen("https://news/3") {
		t.Error("unknown link reported as seen")
	}
}

func TestHistoryAddIsIdempotent(t *testing.T) {
	history, err := LoadHistory(filepath.Join(t.TempDir(), "history.json"))
	if err != nil {
		t.Fatal(err)
	}

	if err := history.Add("https://news/1"); err != nil {
		t.Fatal(err)
	}
	if err := history.Add("https://news/1"); err != nil {
		t.Fatal(err)
	}
	if history.Len() != 1 {
		t.Errorf("Len = %d, want 1", history.Len())
	}
}

func TestHistoryCorruptFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadHistory(path); err == nil {
		t.Fatal("expected parse error")
	}
}
