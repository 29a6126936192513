// Package format escapes user or provider text for Telegram parse modes.
package format

import "strings"

// Telegram's legacy Markdown has no escape for ']' or ')', only for the
// characters that open an entity.
var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

// Markdown escapes text for tele.ModeMarkdown so it renders literally.
func Markdown(text string) string {
	return markdownEscaper.Replace(text)
}
