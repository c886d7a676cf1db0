package service

import (
	"strings"
	"unicode/utf8"

	"github.com/blogforge/blogforge-api/internal/llm"
)

const maxMetaDescriptionLen = 160

// ParseUnstructuredBlog converts markdown blog text into a StructuredBlog.
// Best effort: it never fails. The first "# " line becomes the title, each
// "## " line starts a section. Text without any headings yields an "Untitled"
// post with the whole input as a single section.
func ParseUnstructuredBlog(content string) *llm.StructuredBlog {
	blog := &llm.StructuredBlog{}

	var current *llm.BlogSection
	var body strings.Builder

	flush := func() {
		if current != nil {
			current.Content = strings.TrimSpace(body.String())
			blog.Sections = append(blog.Sections, *current)
		}
		body.Reset()
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "## "):
			flush()
			current = &llm.BlogSection{Heading: strings.TrimSpace(trimmed[3:])}
		case strings.HasPrefix(trimmed, "# ") && blog.Title == "":
			blog.Title = strings.TrimSpace(trimmed[2:])
		default:
			if current != nil {
				body.WriteString(line)
				body.WriteString("\n")
			}
		}
	}
	flush()

	if blog.Title == "" {
		blog.Title = "Untitled"
	}
	if len(blog.Sections) == 0 {
		blog.Sections = []llm.BlogSection{{Heading: blog.Title, Content: strings.TrimSpace(content)}}
	}

	blog.MetaDescription = truncate(blog.Sections[0].Content, maxMetaDescriptionLen)
	return blog
}

// truncate cuts s to at most max bytes without splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
