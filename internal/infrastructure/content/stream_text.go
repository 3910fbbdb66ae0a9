package content

import (
	"regexp"
	"strings"
)

// PDF content streams interleave operators with string literals; the literals
// carry the show-text payload. Scanned documents have no literals at all,
// which is exactly what drives the image fallback.
var stringLiteralExpr = regexp.MustCompile(`\(((?:\\.|[^()\\])*)\)`)

var literalEscaper = strings.NewReplacer(
	`\(`, "(",
	`\)`, ")",
	`\\`, `\`,
	`\n`, "\n",
	`\r`, "",
	`\t`, " ",
)

// textFromContentStream recovers readable text from raw page content streams.
// Operator-only (image) pages yield an empty string, which keeps them below
// the caller's length threshold.
func textFromContentStream(raw string) string {
	matches := stringLiteralExpr.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return ""
	}

	parts := make([]string, 0, len(matches))
	for _, match := range matches {
		text := literalEscaper.Replace(match[1])
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}

	return strings.Join(parts, " ")
}
