package collector

import (
	"testing"

	"github.com/spursup/feedserver/pkg/collector/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCollect(t *testing.T) {
	var (
		l      = zaptest.NewLogger(t)
		server = mock.GetMockServer(t)
		feeds  = mock.MakeFeeds(server.URL, "feed-ok")
		c      = New(l, WithFallbackThreshold(0))
	)

	snapshot, err := c.Collect(t.Context(), feeds)
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.NotEmpty(t, snapshot.Updated)

	// three relevant stories, the baseball item is dropped and the duplicate
	// syndication collapses
	require.Len(t, snapshot.Items, 3)

	// newest first
	assert.Equal(t, "Gamecocks open spring practice", snapshot.Items[0].Title)
	assert.Equal(t, "South Carolina football adds transfer quarterback", snapshot.Items[1].Title)
	assert.Equal(t, "Shane Beamer previews the opener", snapshot.Items[2].Title)

	first := snapshot.Items[0]
	assert.Equal(t, "feed-ok", first.Source)
	assert.Equal(t, "https://example.com/gamecocks/spring-practice", first.Link)
	assert.NotContains(t, first.Summary, "<", "summaries are plain text")
	assert.Equal(t, "The Gamecocks hit the field for the first spring session under sunny skies.", first.Summary)
	assert.False(t, first.PublishedAt.IsZero())
}

func TestCollectAtom(t *testing.T) {
	var (
		l      = zaptest.NewLogger(t)
		server = mock.GetMockServer(t)
		feeds  = mock.MakeFeeds(server.URL, "feed-atom")
		c      = New(l, WithFallbackThreshold(0))
	)

	snapshot, err := c.Collect(t.Context(), feeds)
	require.NoError(t, err)

	// the women's basketball entry is filtered out
	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, "Williams-Brice upgrades announced", snapshot.Items[0].Title)
	assert.Equal(t, "https://example.com/atom/williams-brice", snapshot.Items[0].Link)
	assert.False(t, snapshot.Items[0].PublishedAt.IsZero())
}

func TestCollectFallback(t *testing.T) {
	var (
		l      = zaptest.NewLogger(t)
		server = mock.GetMockServer(t)
		feeds  = mock.MakeFeeds(server.URL, "feed-fallback")
	)

	// strict pass keeps nothing, the fallback tops up with the plain
	// south carolina mention but still drops the trojans story
	snapshot, err := New(l, WithFallbackThreshold(12)).Collect(t.Context(), feeds)
	require.NoError(t, err)
	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, "South Carolina campus news roundup", snapshot.Items[0].Title)

	// without the fallback pass nothing survives
	snapshot, err = New(l, WithFallbackThreshold(0)).Collect(t.Context(), feeds)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Items)
}

func TestCollectPartialFailure(t *testing.T) {
	var (
		l      = zaptest.NewLogger(t)
		server = mock.GetMockServer(t)
		feeds  = mock.MakeFeeds(server.URL, "feed-ok", "feed-broken", "feed-no-have")
		c      = New(l, WithFallbackThreshold(0))
	)

	snapshot, err := c.Collect(t.Context(), feeds)
	require.NoError(t, err, "a single healthy feed keeps the collection alive")
	assert.Len(t, snapshot.Items, 3)
}

func TestCollectAllFeedsFailed(t *testing.T) {
	var (
		l      = zaptest.NewLogger(t)
		server = mock.GetMockServer(t)
		feeds  = mock.MakeFeeds(server.URL, "feed-broken", "feed-no-have")
		c      = New(l)
	)

	_, err := c.Collect(t.Context(), feeds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all feeds failed")
}

func TestCollectMaxItems(t *testing.T) {
	var (
		l      = zaptest.NewLogger(t)
		server = mock.GetMockServer(t)
		feeds  = mock.MakeFeeds(server.URL, "feed-ok")
		c      = New(l, WithFallbackThreshold(0), WithMaxItems(2))
	)

	snapshot, err := c.Collect(t.Context(), feeds)
	require.NoError(t, err)
	require.Len(t, snapshot.Items, 2)
	assert.Equal(t, "Gamecocks open spring practice", snapshot.Items[0].Title)
}

func TestCollectNoFeeds(t *testing.T) {
	l := zaptest.NewLogger(t)

	snapshot, err := New(l).Collect(t.Context(), nil)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Items)
}
