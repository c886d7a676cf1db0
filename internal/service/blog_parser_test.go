package service

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParseUnstructuredBlogHeadings(t *testing.T) {
	content := `# Ten Espresso Tips

Intro paragraph before sections.

## Grind Fresh

Whole beans go stale fast.
Grind right before brewing.

## Water Temperature

Aim for 93C.`

	blog := ParseUnstructuredBlog(content)

	if blog.Title != "Ten Espresso Tips" {
		t.Errorf("Title = %q", blog.Title)
	}
	if len(blog.Sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(blog.Sections))
	}
	if blog.Sections[0].Heading != "Grind Fresh" {
		t.Errorf("first heading = %q", blog.Sections[0].Heading)
	}
	if !strings.Contains(blog.Sections[0].Content, "Grind right before brewing.") {
		t.Errorf("first section content = %q", blog.Sections[0].Content)
	}
	if blog.Sections[1].Heading != "Water Temperature" {
		t.Errorf("second heading = %q", blog.Sections[1].Heading)
	}
	if blog.MetaDescription == "" {
		t.Error("meta description should be derived from first section")
	}
}

func TestParseUnstructuredBlogNoHeadings(t *testing.T) {
	content := "Just a plain paragraph with no markdown structure at all."

	blog := ParseUnstructuredBlog(content)

	if blog.Title != "Untitled" {
		t.Errorf("Title = %q, want Untitled", blog.Title)
	}
	if len(blog.Sections) != 1 {
		t.Fatalf("sections = %d, want 1", len(blog.Sections))
	}
	if blog.Sections[0].Content != content {
		t.Errorf("section content = %q", blog.Sections[0].Content)
	}
}

func TestParseUnstructuredBlogMetaTruncation(t *testing.T) {
	long := strings.Repeat("word ", 100)
	content := "# Title\n\n## Section\n\n" + long

	blog := ParseUnstructuredBlog(content)

	if len(blog.MetaDescription) > 160 {
		t.Errorf("meta description length = %d, want <= 160", len(blog.MetaDescription))
	}
}

func TestParseUnstructuredBlogMetaTruncationMultibyte(t *testing.T) {
	// Each rune is 3 bytes; the 160-byte cut lands mid-rune and must back
	// up to a rune boundary instead of emitting invalid UTF-8.
	long := strings.Repeat("咖", 100)
	content := "# Title\n\n## Section\n\n" + long

	blog := ParseUnstructuredBlog(content)

	if !utf8.ValidString(blog.MetaDescription) {
		t.Errorf("meta description is not valid UTF-8: %q", blog.MetaDescription)
	}
	if len(blog.MetaDescription) > 160 {
		t.Errorf("meta description length = %d, want <= 160", len(blog.MetaDescription))
	}
	if len(blog.MetaDescription) != 159 {
		t.Errorf("meta description length = %d, want 159 (53 whole runes)", len(blog.MetaDescription))
	}
}

func TestParseUnstructuredBlogTitleOnly(t *testing.T) {
	blog := ParseUnstructuredBlog("# Lonely Title")

	if blog.Title != "Lonely Title" {
		t.Errorf("Title = %q", blog.Title)
	}
	if len(blog.Sections) != 1 {
		t.Fatalf("sections = %d, want 1", len(blog.Sections))
	}
}

func TestParseUnstructuredBlogEmpty(t *testing.T) {
	blog := ParseUnstructuredBlog("")

	if blog.Title != "Untitled" {
		t.Errorf("Title = %q", blog.Title)
	}
	if len(blog.Sections) != 1 {
		t.Errorf("sections = %d, want 1", len(blog.Sections))
	}
}
