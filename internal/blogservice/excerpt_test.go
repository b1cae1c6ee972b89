package blogservice

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestDeriveExcerpt(t *testing.T) {
	testCases := []struct {
		name     string
		explicit string
		content  string
		expected string
	}{
		{
			name:     "explicit excerpt wins",
			explicit: "A short summary.",
			content:  "Completely different content.",
			expected: "A short summary.",
		},
		{
			name:     "derived from content",
			explicit: "",
			content:  "Plain content without markup.",
			expected: "Plain content without markup.",
		},
		{
			name:     "markup stripped",
			explicit: "",
			content:  "<h1>Title</h1><p>First paragraph.</p>",
			expected: "Title First paragraph.",
		},
		{
			name:     "whitespace collapsed",
			explicit: "",
			content:  "spaced\n\nout\t\ttext",
			expected: "spaced out text",
		},
		{
			name:     "explicit excerpt trimmed",
			explicit: "  padded  ",
			content:  "content",
			expected: "padded",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, deriveExcerpt(tc.explicit, tc.content))
		})
	}
}

func TestTruncateExcerpt(t *testing.T) {
	t.Run("at limit unchanged", func(t *testing.T) {
		s := strings.Repeat("a", 300)
		assert.Equal(t, s, truncateExcerpt(s))
	})

	t.Run("over limit truncated with ellipsis", func(t *testing.T) {
		s := strings.Repeat("a", 301)
		got := truncateExcerpt(s)
		assert.Equal(t, 300, utf8.RuneCountInString(got))
		assert.True(t, strings.HasSuffix(got, "..."))
		assert.Equal(t, strings.Repeat("a", 297), strings.TrimSuffix(got, "..."))
	})

	t.Run("never exceeds limit", func(t *testing.T) {
		for _, n := range []int{0, 1, 297, 298, 299, 300, 301, 310, 1000} {
			got := truncateExcerpt(strings.Repeat("x", n))
			assert.LessOrEqual(t, utf8.RuneCountInString(got), 300, "length %d", n)
		}
	})

	t.Run("multibyte runes counted as characters", func(t *testing.T) {
		s := strings.Repeat("é", 310)
		got := truncateExcerpt(s)
		assert.Equal(t, 300, utf8.RuneCountInString(got))
	})
}

func TestParseTags(t *testing.T) {
	testCases := []struct {
		name        string
		raw         string
		expected    []string
		expectedErr error
	}{
		{
			name:     "empty input",
			raw:      "",
			expected: nil,
		},
		{
			name:     "json array",
			raw:      `["AI", "DevOps"]`,
			expected: []string{"AI", "DevOps"},
		},
		{
			name:        "malformed json",
			raw:         `AI, DevOps`,
			expectedErr: ErrInvalidTagFormat,
		},
		{
			name:        "json object",
			raw:         `{"tag": "AI"}`,
			expectedErr: ErrInvalidTagFormat,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tags, err := ParseTags(tc.raw)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, tags)
		})
	}
}
