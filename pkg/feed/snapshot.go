package feed

import (
	"time"
)

// UpdatedFormat is the timestamp layout of the snapshot's updated field,
// e.g. "2025-08-27 14:03:12 UTC".
const UpdatedFormat = "2006-01-02 15:04:05 MST"

// EmptyJSON is served before the first collection so that consumers always
// receive a valid payload.
const EmptyJSON = `{"updated":null,"items":[]}`

// Snapshot the aggregated result of one collection, the items.json payload
type Snapshot struct {
	Updated string  `json:"updated"`
	Items   []*Item `json:"items"`
}

// NewSnapshot stamps the given items with the current UTC time
func NewSnapshot(items []*Item) *Snapshot {
	return &Snapshot{
		Updated: time.Now().UTC().Format(UpdatedFormat),
		Items:   items,
	}
}
