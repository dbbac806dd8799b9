package notify

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/example/campwatch/internal/availability"
)

func TestRender(t *testing.T) {
	weekends := []availability.Weekend{
		{
			StartDate: "2024-06-07",
			Parks: []availability.Park{
				{Name: "Park A", Campgrounds: []availability.Campground{
					{Name: "Site 1", URL: "u1"},
					{Name: "Site 2", URL: "u2"},
				}},
				{Name: "Park B", Campgrounds: []availability.Campground{
					{Name: "Site 3", URL: "u3"},
				}},
			},
		},
		{StartDate: "2024-06-14"},
		{
			StartDate: "2024-06-21",
			Parks: []availability.Park{
				{Name: "No sites"},
				{Name: "Park C", Campgrounds: []availability.Campground{{Name: "Site 4", URL: "u4"}}},
			},
		},
	}

	want := "*📅 2024\\-06\\-07*\n" +
		"Park A\n\\- [Site 1](u1)\n\\- [Site 2](u2)\n" +
		"Park B\n\\- [Site 3](u3)\n\n" +
		"*📅 2024\\-06\\-21*\n" +
		"Park C\n\\- [Site 4](u4)\n\n"
	assert.Equal(t, want, Render(weekends))
}

func TestRender_EscapesTitles(t *testing.T) {
	weekends := []availability.Weekend{{
		StartDate: "2024-06-07",
		Parks: []availability.Park{{
			Name: "Killbear_Park (North)",
			Campgrounds: []availability.Campground{
				{Name: "Site *1* [A]", URL: "https://example.test/r?a=1&b=(2)"},
				{Name: "Loop `B`.", URL: "u2"},
			},
		}},
	}}

	want := "*📅 2024\\-06\\-07*\n" +
		"Killbear\\_Park \\(North\\)\n" +
		"\\- [Site \\*1\\* \\[A\\]](https://example.test/r?a=1&b=(2\\))\n" +
		"\\- [Loop \\`B\\`\\.](u2)\n\n"
	assert.Equal(t, want, Render(weekends))
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "plain text", Escape("plain text"))
	assert.Equal(t, `campwatch stopped \(upstream\): dial tcp 10\.0\.0\.1: refused\!`,
		Escape("campwatch stopped (upstream): dial tcp 10.0.0.1: refused!"))
	assert.Equal(t, `a\\b`, Escape(`a\b`))
}

func TestRender_Empty(t *testing.T) {
	assert.Equal(t, "", Render(nil))
	assert.Equal(t, "", Render([]availability.Weekend{{StartDate: "2024-06-07", Parks: []availability.Park{{Name: "P"}}}}))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{name: "fits", text: "abc", limit: 3, want: "abc"},
		{name: "no limit", text: "abc", limit: 0, want: "abc"},
		{name: "cuts at line break", text: "line one\nline two\nline three", limit: 20, want: "line one\nline two\n"},
		{name: "plain cut without break", text: "abcdefgh", limit: 5, want: "abcde"},
		{name: "counts runes", text: "📅📅📅📅", limit: 2, want: "📅📅"},
		{name: "leading break only", text: "\nabcdef", limit: 4, want: "\nabc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.text, tt.limit))
		})
	}
}

func TestTruncate_NeverExceedsLimit(t *testing.T) {
	text := strings.Repeat("*📅 2024-06-07*\nPark\n- [Site](https://example.test/x)\n\n", 200)
	for _, limit := range []int{1, 17, 100, 4096} {
		got := Truncate(text, limit)
		assert.LessOrEqual(t, utf8.RuneCountInString(got), limit)
		assert.True(t, strings.HasPrefix(text, got))
	}
}
