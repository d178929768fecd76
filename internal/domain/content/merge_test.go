package content

import (
	"reflect"
	"testing"
)

func TestMergeProfileShallow(t *testing.T) {
	existing := Document{
		"profile": map[string]any{"name": "A", "title": "B"},
	}
	updates := Document{
		"profile": map[string]any{"name": "C"},
	}

	merged := Merge(existing, updates)
	profile := merged["profile"].(map[string]any)
	if profile["name"] != "C" {
		t.Fatalf("expected updated name, got %v", profile["name"])
	}
	if profile["title"] != "B" {
		t.Fatalf("expected preserved title, got %v", profile["title"])
	}
}

func TestMergeConfigShallow(t *testing.T) {
	existing := Document{
		"config": map[string]any{"theme": "dark", "language": "en"},
	}
	updates := Document{
		"config": map[string]any{"theme": "light"},
	}

	merged := Merge(existing, updates)
	cfg := merged["config"].(map[string]any)
	if cfg["theme"] != "light" || cfg["language"] != "en" {
		t.Fatalf("unexpected config merge result: %v", cfg)
	}
}

func TestMergeArraysReplacedWholesale(t *testing.T) {
	existing := Document{
		"projects": []any{
			map[string]any{"title": "one"},
			map[string]any{"title": "two"},
		},
	}
	updates := Document{
		"projects": []any{
			map[string]any{"title": "three"},
		},
	}

	merged := Merge(existing, updates)
	projects := merged["projects"].([]any)
	if len(projects) != 1 {
		t.Fatalf("expected wholesale replacement, got %d projects", len(projects))
	}
}

func TestMergeResumeReplacedNotMerged(t *testing.T) {
	existing := Document{
		"resume": map[string]any{"summary": "old", "skills": []any{"go"}},
	}
	updates := Document{
		"resume": map[string]any{"summary": "new"},
	}

	merged := Merge(existing, updates)
	resume := merged["resume"].(map[string]any)
	if resume["summary"] != "new" {
		t.Fatalf("expected updated summary, got %v", resume["summary"])
	}
	if _, kept := resume["skills"]; kept {
		t.Fatal("resume must be replaced wholesale, not merged")
	}
}

func TestMergeLeavesInputsUntouched(t *testing.T) {
	existing := Document{
		"profile": map[string]any{"name": "A"},
	}
	updates := Document{
		"profile": map[string]any{"name": "B"},
	}

	Merge(existing, updates)
	if existing["profile"].(map[string]any)["name"] != "A" {
		t.Fatal("merge mutated the existing document")
	}
}

func TestOverlaySectionObjectMerge(t *testing.T) {
	doc := defaultDocument()
	doc["profile"] = map[string]any{"name": "default", "title": "default"}

	overlaySection(doc, sections[0], map[string]any{"name": "fetched"})

	profile := doc["profile"].(map[string]any)
	if profile["name"] != "fetched" || profile["title"] != "default" {
		t.Fatalf("unexpected overlay result: %v", profile)
	}
}

func TestOverlaySectionIgnoresWrongShape(t *testing.T) {
	doc := defaultDocument()
	want := doc["projects"]

	// projects is an array slot; a fetched object must not corrupt it.
	overlaySection(doc, sections[1], map[string]any{"title": "oops"})

	if !reflect.DeepEqual(doc["projects"], want) {
		t.Fatalf("array slot corrupted: %v", doc["projects"])
	}
}
