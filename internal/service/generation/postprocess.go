package generation

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// The pipeline validates plain text; only the final accepted draft is
// rendered for display. Model output is untrusted, so the rendered
// HTML goes through a UGC sanitizer before leaving the service.
var htmlSanitizer = bluemonday.UGCPolicy()

// RenderHTML converts the draft body to sanitized HTML.
func RenderHTML(content string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("render draft html: %w", err)
	}
	return htmlSanitizer.Sanitize(buf.String()), nil
}
