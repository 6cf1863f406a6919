package feed

import (
	"strings"
	"time"
)

// Item a normalized feed entry
type Item struct {
	Source    string `json:"source"`
	SourceURL string `json:"source_url"`
	Title     string `json:"title"`
	Link      string `json:"link"`
	Summary   string `json:"summary"`
	Published string `json:"published"`

	// PublishedAt is the parsed publication time, used for ordering only.
	// It is zero for entries whose date could not be parsed and is not part
	// of the wire format.
	PublishedAt time.Time `json:"-"`
}

// Key returns the deduplication key for the item. Items without a link fall
// back to title and source.
func (i *Item) Key() string {
	if i.Link != "" {
		return i.Link
	}
	return i.Title + "\x00" + i.Source
}

// Text returns the lowercased text the relevance filter operates on.
func (i *Item) Text() string {
	return strings.ToLower(i.Title + " " + i.Summary)
}
