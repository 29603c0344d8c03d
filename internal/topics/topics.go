// Package topics loads the batch file of topic definitions.
//
// The file is a JSON array (or YAML, coerced to JSON first). Entry order is
// preserved exactly because it determines credential assignment downstream.
package topics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Formatting holds the markdown flags applied to the body before submission.
type Formatting struct {
	Bold   bool `json:"bold"`
	Italic bool `json:"italic"`
	Header bool `json:"header"`
}

// Topic is one topic-creation request. Unknown fields in the source file are
// ignored; Category is carried verbatim (number or string) and passed through
// to the forum untouched.
type Topic struct {
	// SourceIndex is the entry's position in the batch file, including any
	// entries that were skipped before it. Set by Load.
	SourceIndex int `json:"-"`

	Title         string          `json:"title"`
	Body          string          `json:"body"`
	Category      json.RawMessage `json:"category"`
	ImageURL      string          `json:"image_url"`
	ImagePosition string          `json:"image_position"`
	Formatting    Formatting      `json:"formatting"`
	EmbedURL      string          `json:"embed_url"`
	ExternalID    string          `json:"external_id"`
}

// Skip reports one entry that was rejected during load. The run continues with
// the remaining entries.
type Skip struct {
	Index  int
	Title  string
	Reason string
}

// Load reads the batch file and returns the valid topics in file order plus a
// report for every rejected entry. A file that is absent or not parseable as a
// list is an error; a bad entry inside an otherwise valid list is only a Skip.
func Load(path string) ([]Topic, []Skip, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read topics file: %w", err)
	}

	jb, err := coerceToJSONBytes(path, b)
	if err != nil {
		return nil, nil, fmt.Errorf("parse topics file %s: %w", path, err)
	}

	var raw []json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(jb))
	if err := dec.Decode(&raw); err != nil {
		return nil, nil, fmt.Errorf("parse topics file %s: expected a list of topics: %w", path, err)
	}

	topics := make([]Topic, 0, len(raw))
	var skips []Skip
	for i, rb := range raw {
		var t Topic
		if err := json.Unmarshal(rb, &t); err != nil {
			skips = append(skips, Skip{Index: i, Reason: err.Error()})
			continue
		}
		if reason := validate(t); reason != "" {
			skips = append(skips, Skip{Index: i, Title: t.Title, Reason: reason})
			continue
		}
		t.SourceIndex = i
		topics = append(topics, t)
	}
	return topics, skips, nil
}

func validate(t Topic) string {
	if strings.TrimSpace(t.Title) == "" {
		return "missing title"
	}
	if strings.TrimSpace(t.Body) == "" {
		return "missing body"
	}
	if !hasCategory(t.Category) {
		return "missing category"
	}
	switch t.ImagePosition {
	case "", "start", "end", "inline":
	default:
		return fmt.Sprintf("unknown image_position %q", t.ImagePosition)
	}
	return ""
}

func hasCategory(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null" && s != `""`
}
