package notify

import (
	"strings"
	"unicode/utf8"

	"github.com/example/campwatch/internal/availability"
)

// ParseMode is the Telegram formatting mode Render and Escape target.
const ParseMode = "MarkdownV2"

var (
	textEscaper = strings.NewReplacer(
		`\`, `\\`, "_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`, "~", `\~`,
		"`", "\\`", ">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`, "=", `\=`, "|", `\|`,
		"{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
	)
	urlEscaper = strings.NewReplacer(`\`, `\\`, ")", `\)`)
)

// Escape makes s literal text in a MarkdownV2 message.
func Escape(s string) string { return textEscaper.Replace(s) }

// Render formats weekends as a Telegram MarkdownV2 message. Titles are
// escaped so any park or campground name is accepted. It returns "" when no
// weekend has a campground to show.
func Render(weekends []availability.Weekend) string {
	var b strings.Builder
	for _, wk := range weekends {
		var parks []string
		for _, p := range wk.Parks {
			if len(p.Campgrounds) == 0 {
				continue
			}
			var pb strings.Builder
			pb.WriteString(Escape(p.Name))
			for _, c := range p.Campgrounds {
				pb.WriteString("\n\\- [")
				pb.WriteString(Escape(c.Name))
				pb.WriteString("](")
				pb.WriteString(urlEscaper.Replace(c.URL))
				pb.WriteString(")")
			}
			parks = append(parks, pb.String())
		}
		if len(parks) == 0 {
			continue
		}
		b.WriteString("*📅 ")
		b.WriteString(Escape(wk.StartDate))
		b.WriteString("*\n")
		b.WriteString(strings.Join(parks, "\n"))
		b.WriteString("\n\n")
	}
	return b.String()
}

// Truncate shortens text to at most limit runes, cutting after the last line
// break that fits. Without one it cuts at the limit.
func Truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	head := text[:byteOffset(text, limit)]
	if nl := strings.LastIndexByte(head, '\n'); nl > 0 {
		return head[:nl+1]
	}
	return head
}

// byteOffset returns the byte index where rune number n of s starts.
func byteOffset(s string, n int) int {
	count := 0
	for i := range s {
		if count == n {
			return i
		}
		count++
	}
	return len(s)
}
