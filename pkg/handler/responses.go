package handler

import (
	"github.com/spursup/feedserver/pkg/feed"
	"github.com/spursup/feedserver/pkg/repo"
)

// HealthResponse the payload of GET /health. Updated is nil until the first
// collection.
type HealthResponse struct {
	OK      bool    `json:"ok"`
	Updated *string `json:"updated"`
}

// CollectResponse the payload of a successful POST /collect
type CollectResponse struct {
	OK      bool             `json:"ok"`
	Count   int              `json:"count"`
	Updated string           `json:"updated,omitempty"`
	Stats   repo.UpdateStats `json:"stats"`
}

// ErrorResponse a JSON error payload
type ErrorResponse struct {
	Error string `json:"error"`
}

type indexData struct {
	Title   string
	Updated string
	Items   []*feed.Item
	Links   []feed.StaticLink
	Feeds   []feed.Feed
}

type fightSongData struct {
	Title string
}
