package topics

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPreservesOrder(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "topics.json", `[
		{"title": "first", "body": "a", "category": 5},
		{"title": "second", "body": "b", "category": "general"},
		{"title": "third", "body": "c", "category": 7, "image_url": "https://x/i.png"}
	]`)

	got, skips, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(skips) != 0 {
		t.Fatalf("unexpected skips: %+v", skips)
	}
	want := []string{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Title != w {
			t.Fatalf("topics[%d].Title = %q, want %q", i, got[i].Title, w)
		}
	}
}

func TestLoadSkipsInvalidEntries(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "topics.json", `[
		{"body": "no title", "category": 1},
		{"title": "ok", "body": "fine", "category": 1},
		{"title": "no body", "category": 1},
		{"title": "no category", "body": "x"},
		{"title": 42, "body": "wrong type", "category": 1},
		{"title": "bad position", "body": "x", "category": 1, "image_position": "middle"}
	]`)

	got, skips, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(got) != 1 || got[0].Title != "ok" {
		t.Fatalf("got = %+v, want only the valid entry", got)
	}
	if got[0].SourceIndex != 1 {
		t.Fatalf("SourceIndex = %d, want the file position past the skip", got[0].SourceIndex)
	}
	if len(skips) != 5 {
		t.Fatalf("skips = %d, want 5: %+v", len(skips), skips)
	}
	if skips[0].Index != 0 || skips[0].Reason != "missing title" {
		t.Fatalf("skips[0] = %+v", skips[0])
	}
}

func TestLoadIgnoresUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "topics.json", `[
		{"title": "t", "body": "b", "category": 1, "priority": "high", "tags": ["a"]}
	]`)

	got, skips, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(got) != 1 || len(skips) != 0 {
		t.Fatalf("got=%d skips=%d, want 1/0", len(got), len(skips))
	}
}

func TestLoadCategoryPassthrough(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "topics.json", `[
		{"title": "num", "body": "b", "category": 12},
		{"title": "slug", "body": "b", "category": "site-feedback"}
	]`)

	got, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if string(got[0].Category) != "12" {
		t.Fatalf("numeric category = %s", got[0].Category)
	}
	if string(got[1].Category) != `"site-feedback"` {
		t.Fatalf("string category = %s", got[1].Category)
	}
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "topics.yaml", `
- title: hello
  body: world
  category: 3
  formatting:
    bold: true
- title: second
  body: text
  category: announcements
`)

	got, skips, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(got) != 2 || len(skips) != 0 {
		t.Fatalf("got=%d skips=%d, want 2/0", len(got), len(skips))
	}
	if !got[0].Formatting.Bold {
		t.Fatal("formatting.bold not carried through yaml coercion")
	}
}

func TestLoadFileErrors(t *testing.T) {
	t.Parallel()
	if _, _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for absent file")
	}

	bad := writeFile(t, "bad.json", `{"not": "a list"}`)
	if _, _, err := Load(bad); err == nil {
		t.Fatal("expected error for non-list file")
	}

	garbage := writeFile(t, "garbage.json", `{{{`)
	if _, _, err := Load(garbage); err == nil {
		t.Fatal("expected error for unparseable file")
	}
}
