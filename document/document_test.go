package document

import (
	"strings"
	"testing"
)

func TestFindTitle(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "empty",
			content:  "",
			expected: "",
		},
		{
			name:     "simple",
			content:  "# Title\n",
			expected: "Title",
		},
		{
			name:     "empty title",
			content:  "#\n",
			expected: "",
		},
		{
			name:     "no title",
			content:  "content",
			expected: "",
		},
		{
			name:     "multiple titles",
			content:  "# Title 1\n# Title 2\n",
			expected: "Title 1",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			doc := &Document{
				Content: test.content,
			}

			title := doc.FindTitle()
			if title != test.expected {
				t.Errorf("unexpected title: %s", title)
			}
		})
	}
}

func TestFindTitlePrefersMetadata(t *testing.T) {
	doc := &Document{
		Content:  "# Heading\n",
		Metadata: Metadata{Title: "Explicit"},
	}

	if title := doc.FindTitle(); title != "Explicit" {
		t.Errorf("unexpected title: %s", title)
	}
}

func TestToMarkdown(t *testing.T) {
	doc := &Document{
		Content: "# A Page\n\nBody text.\n",
		Metadata: Metadata{
			Source:        "https://www.example.com/a-page",
			ProcessedTime: "2025-01-01T00:00:00Z",
			Links:         []string{"https://www.example.com/next"},
		},
	}

	out, err := doc.ToMarkdown()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(out, "---\n") {
		t.Error("expected YAML front matter delimiter")
	}
	for _, want := range []string{
		"title: A Page",
		"source: https://www.example.com/a-page",
		"https://www.example.com/next",
		"Body text.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}
