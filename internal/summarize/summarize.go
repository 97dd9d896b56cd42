// Package summarize condenses article text to a few key sentences.
package summarize

import (
	"context"
	"errors"
	"html"
	"sort"
	"strings"

	textsummary "github.com/urandom/text-summary/summarize"

	"github.com/deusflow/newsbot/internal/cleaner"
)

// ErrEmptySummary is returned when a condenser selects nothing.
var ErrEmptySummary = errors.New("summary is empty")

// Condenser reduces text to at most sentences sentences.
type Condenser interface {
	Condense(ctx context.Context, title, text string, sentences int) (string, error)
}

// Extractive ranks sentences statistically and keeps the best ones in their
// original order. It never generates new text.
type Extractive struct {
	keyPoints func(title, text string) []string
}

// NewExtractive returns an Extractive condenser backed by text-summary.
func NewExtractive() *Extractive {
	return &Extractive{keyPoints: rankSentences}
}

func rankSentences(title, text string) []string {
	s := textsummary.NewFromString(title, text)
	points := s.KeyPoints()
	for i := range points {
		points[i] = html.UnescapeString(points[i])
	}
	return points
}

// Condense implements Condenser.
func (e *Extractive) Condense(_ context.Context, title, text string, sentences int) (string, error) {
	if sentences <= 0 {
		return "", errors.New("sentence count must be positive")
	}

	ranked := e.keyPoints(title, text)
	var picked []string
	for _, s := range ranked {
		if s = strings.TrimSpace(s); s != "" {
			picked = append(picked, s)
		}
		if len(picked) == sentences {
			break
		}
	}
	if len(picked) == 0 {
		return "", ErrEmptySummary
	}

	return strings.Join(inTextOrder(text, picked), " "), nil
}

// inTextOrder sorts sentences by where they first appear in text. Sentences
// that cannot be located keep their relative order at the end.
func inTextOrder(text string, sentences []string) []string {
	type located struct {
		s   string
		pos int
	}
	loc := make([]located, len(sentences))
	for i, s := range sentences {
		pos := strings.Index(text, s)
		if pos < 0 {
			pos = len(text) + i
		}
		loc[i] = located{s: s, pos: pos}
	}
	sort.SliceStable(loc, func(i, j int) bool { return loc[i].pos < loc[j].pos })

	out := make([]string, len(loc))
	for i, l := range loc {
		out[i] = l.s
	}
	return out
}

// IsBypassed reports whether text is short enough to skip condensation under
// minWords.
func IsBypassed(text string, minWords int) bool {
	return cleaner.WordCount(text) < minWords
}

var _ Condenser = (*Extractive)(nil)
