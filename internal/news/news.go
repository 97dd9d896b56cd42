// Package news holds the article record passed through the pipeline.
package news

import (
	"fmt"
	"strings"
)

// Article is the newest entry of a feed as seen by a single run.
type Article struct {
	Title       string
	Link        string // unique external identifier
	Description string // raw summary or content HTML, may be empty
}

func (a *Article) String() string {
	return fmt.Sprintf("<article link=%q>", a.Link)
}

// SameLink reports whether the article link matches a previously stored one.
// Surrounding whitespace is ignored.
func (a *Article) SameLink(stored string) bool {
	return strings.TrimSpace(a.Link) == strings.TrimSpace(stored)
}
