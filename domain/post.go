package domain

import (
	"regexp"
	"strings"
	"time"
)

// Post is a public content entry. Content holds raw Markdown/HTML; rendering
// happens in the view layer, never back into the entity.
type Post struct {
	ID        int64
	Title     string
	Slug      string
	Excerpt   string
	Content   string
	Thumbnail string
	Date      time.Time
	Committee string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Video is a standalone gallery entry.
type Video struct {
	ID        int64
	Title     string
	URL       string
	Image     string
	CreatedAt time.Time
}

// MediaType distinguishes gallery entries.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Media is a gallery item, either uploaded directly or extracted from a
// post's content. PostID is nil for direct uploads and cleared when the
// originating post is deleted.
type Media struct {
	ID        string // uuid
	Title     string
	URL       string
	Type      MediaType
	PostID    *int64
	Thumbnail string
	CreatedAt time.Time
}

var (
	slugStrip    = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces   = regexp.MustCompile(`[\s-]+`)
	htmlTags     = regexp.MustCompile(`<[^>]+>`)
	markdownSyms = regexp.MustCompile("[#*_`\\[\\]!]")

	markdownImage = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)\)`)
	videoURL      = regexp.MustCompile(`\bhttps?://[^\s<>")]+\.(?:mp4|webm|mov)\b`)
)

// Slugify turns a title into a URL-safe slug base. Uniqueness suffixing is
// the store's concern.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 200 {
		s = strings.Trim(s[:200], "-")
	}
	return s
}

// ExcerptFromContent derives preview text when the author left the excerpt
// blank: strip tags and Markdown punctuation, keep the first 300 characters.
func ExcerptFromContent(content string) string {
	text := htmlTags.ReplaceAllString(content, "")
	text = markdownSyms.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= 300 {
		return text
	}
	return strings.TrimSpace(string(runes[:300])) + "..."
}

// ExtractMedia scans post content for embedded media: Markdown image syntax
// becomes image entries, bare video-file URLs become video entries. Order
// follows appearance in the content; duplicate URLs collapse to one entry.
func ExtractMedia(content string) []Media {
	var out []Media
	seen := make(map[string]struct{})

	for _, m := range markdownImage.FindAllStringSubmatch(content, -1) {
		title, url := m[1], m[2]
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		kind := MediaImage
		if videoURL.MatchString(url) {
			kind = MediaVideo
		}
		out = append(out, Media{Title: title, URL: url, Type: kind})
	}
	for _, url := range videoURL.FindAllString(content, -1) {
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		out = append(out, Media{URL: url, Type: MediaVideo})
	}
	return out
}
