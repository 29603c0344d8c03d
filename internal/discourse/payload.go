package discourse

import (
	"encoding/json"
	"strings"

	"topicherd/internal/topics"
)

// imagePlaceholder marks where an inline image lands in the body.
const imagePlaceholder = "[IMAGE]"

type postPayload struct {
	Title      string          `json:"title"`
	Raw        string          `json:"raw"`
	Category   json.RawMessage `json:"category,omitempty"`
	EmbedURL   string          `json:"embed_url,omitempty"`
	ExternalID string          `json:"external_id,omitempty"`
}

func buildPayload(t topics.Topic) postPayload {
	return postPayload{
		Title:      t.Title,
		Raw:        composeBody(t),
		Category:   t.Category,
		EmbedURL:   t.EmbedURL,
		ExternalID: t.ExternalID,
	}
}

// composeBody applies the markdown formatting flags and image placement.
// Order matters and is kept as the forum operators expect it:
// bold, then italic, then header, then the image.
func composeBody(t topics.Topic) string {
	body := t.Body
	if t.Formatting.Bold {
		body = "**" + body + "**"
	}
	if t.Formatting.Italic {
		body = "*" + body + "*"
	}
	if t.Formatting.Header {
		body = "# " + body
	}

	if t.ImageURL != "" {
		img := "![Image](" + t.ImageURL + ")"
		switch t.ImagePosition {
		case "start":
			body = img + "\n\n" + body
		case "inline":
			body = strings.ReplaceAll(body, imagePlaceholder, img)
		default: // "end" and unset
			body = body + "\n\n" + img
		}
	}
	return body
}
