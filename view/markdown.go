package view

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Post content is author-supplied Markdown that may embed raw HTML; authors
// are trusted staff, so unsafe rendering is deliberate.
var postMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// RenderPostContent converts a post's Markdown content to HTML. On render
// failure the raw content comes back unchanged rather than erroring a page.
func RenderPostContent(content string) string {
	var buf bytes.Buffer
	if err := postMarkdown.Convert([]byte(content), &buf); err != nil {
		return content
	}
	return buf.String()
}
