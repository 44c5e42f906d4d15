package render

import "github.com/russross/blackfriday"

// MarkdownToHTML renders a model reply, which Gemini emits as markdown,
// into HTML for web clients that ask for it.
func MarkdownToHTML(text string) string {
	return string(blackfriday.MarkdownCommon([]byte(text)))
}
