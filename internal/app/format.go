package app

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/deusflow/newsbot/internal/telegram"
)

// MessageOptions controls how a message is laid out.
type MessageOptions struct {
	ReadMoreLabel string
	BoldTitle     bool
}

var textPolicy = bluemonday.StrictPolicy()

// FormatMessage renders the Telegram HTML message for one article:
//
//	<b>{title}</b>\n\n{summary}\n\n<a href='{link}'>{label}</a>
//
// The title line is left out unless opts.BoldTitle is set. Title, summary
// and label are stripped of tags and escaped. When the result would exceed
// the Bot API limit the summary is cut at a sentence boundary.
func FormatMessage(title, summary, link string, opts MessageOptions) string {
	build := func(body string) string {
		var b strings.Builder
		if opts.BoldTitle {
			b.WriteString("<b>")
			b.WriteString(textPolicy.Sanitize(title))
			b.WriteString("</b>\n\n")
		}
		b.WriteString(body)
		b.WriteString("\n\n<a href='")
		b.WriteString(html.EscapeString(link))
		b.WriteString("'>")
		b.WriteString(textPolicy.Sanitize(opts.ReadMoreLabel))
		b.WriteString("</a>")
		return b.String()
	}

	msg := build(textPolicy.Sanitize(summary))
	if utf8.RuneCountInString(msg) <= telegram.MaxMessageLength {
		return msg
	}

	avail := telegram.MaxMessageLength - utf8.RuneCountInString(build(""))
	limit := avail
	for limit > 0 {
		body := textPolicy.Sanitize(trimToSentence(summary, limit))
		n := utf8.RuneCountInString(body)
		if n <= avail {
			return build(body)
		}
		// Escaping made it longer; shrink the plain text proportionally.
		next := limit * avail / n
		if next >= limit {
			next = limit - 1
		}
		limit = next
	}
	return build("")
}

// trimToSentence shortens s to at most limit runes, ending after the last
// complete sentence when there is one and with an ellipsis otherwise.
func trimToSentence(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	for i := limit - 1; i > 0; i-- {
		if isSentenceEnd(runes[i]) && (i+1 == len(runes) || runes[i+1] == ' ') {
			return string(runes[:i+1])
		}
	}
	if limit <= 1 {
		return ""
	}
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '؟', '。':
		return true
	}
	return false
}
